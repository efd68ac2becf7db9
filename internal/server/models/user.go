// Package models holds the persisted records of the onboarding server.
package models

import "time"

// Role is the authorization role of an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is one of the two known roles.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole safely parses a string into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}

// Status is the onboarding status of an identity.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	default:
		return false
	}
}

// DefaultLanguage is assigned when no preferred language is given.
const DefaultLanguage = "en"

// User is an identity record. PasswordHash never leaves the server: it is
// excluded from JSON encoding.
type User struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	Role              Role      `json:"role" db:"role"`
	Team              string    `json:"team,omitempty" db:"team"`
	Phone             string    `json:"phone,omitempty" db:"phone"`
	StartDate         time.Time `json:"startDate" db:"start_date"`
	Status            Status    `json:"status" db:"status"`
	PreferredLanguage string    `json:"preferredLanguage" db:"preferred_language"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// ProfileUpdate is a partial update of the profile fields. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Name              *string
	Phone             *string
	Team              *string
	PreferredLanguage *string
	Status            *Status
	StartDate         *time.Time
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.Team == nil &&
		p.PreferredLanguage == nil && p.Status == nil && p.StartDate == nil
}

// Package services contains server-side business logic. This file implements
// UserService, which handles login, access-token refresh, logout, password
// changes and administration of identities.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/dmitrijs2005/onboarding/internal/dbx"
	"github.com/dmitrijs2005/onboarding/internal/logging"
	"github.com/dmitrijs2005/onboarding/internal/server/auth"
	"github.com/dmitrijs2005/onboarding/internal/server/models"
	"github.com/dmitrijs2005/onboarding/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// RefreshExpiresAt is when RefreshToken stops verifying.
	RefreshExpiresAt time.Time
}

// SignUpInput describes an identity created by an administrator. Empty
// optional fields get defaults: role user, status pending, language "en",
// start date now.
type SignUpInput struct {
	Name              string
	Email             string
	Password          string
	Role              models.Role
	Team              string
	Phone             string
	Status            models.Status
	PreferredLanguage string
	StartDate         *time.Time
}

// dummyHasher is implemented by hashers that can supply a hash to compare
// against when no identity matched.
type dummyHasher interface {
	DummyHash() string
}

// UserService provides authentication-related operations:
// - Login: verify credentials and mint an access/refresh pair
// - Refresh: mint a new access token from a refresh token
// - Logout: put a refresh token on the denylist
// - ChangePassword: replace the caller's password hash
// - SignUp, UpdateProfile, GetUser, ListUsers: identity administration
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hasher      auth.PasswordHasher
	logger      logging.Logger
	now         func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, hasher auth.PasswordHasher, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		logger:      logger.With("module", "users"),
		now:         time.Now,
	}
}

// Login checks the presented credentials and issues a TokenPair. An unknown
// email and a wrong password both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	password = auth.NormalizePassword(password)
	if email == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnCompare(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	return s.generateTokenPair(user)
}

// Refresh verifies a refresh token and issues a new access token. The
// refresh token itself is left untouched. Any failure to accept the token
// is reported as common.ErrRefreshRejected.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.codec.Verify(auth.RefreshToken, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrRefreshRejected, err)
	}

	revoked, err := s.repomanager.RevokedTokens(s.db).IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("error checking revocation: %w", err)
	}
	if revoked {
		return "", fmt.Errorf("%w: token revoked", common.ErrRefreshRejected)
	}

	access, _, err := s.codec.Issue(auth.AccessToken, claims.UserID, claims.Role)
	if err != nil {
		return "", fmt.Errorf("%w: issuing access token: %w", common.ErrorInternal, err)
	}
	return access, nil
}

// Logout revokes a refresh token until its natural expiry. A missing or
// unverifiable token is not an error: there is nothing left to revoke.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := s.codec.Verify(auth.RefreshToken, refreshToken)
	if err != nil {
		s.logger.Debug(ctx, "logout with unusable refresh token", "error", err)
		return nil
	}

	repo := s.repomanager.RevokedTokens(s.db)
	if err := repo.Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// ChangePassword replaces the caller's password after checking the current
// one. The new password is validated before the store is touched; the read,
// compare and write happen in one transaction with the row locked. Tokens
// issued earlier remain valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, id auth.VerifiedIdentity, current, next string) error {
	if !id.IsVerified() {
		return common.ErrMissingVerifiedIdentity
	}

	current = auth.NormalizePassword(current)
	next = auth.NormalizePassword(next)

	verr := &common.ValidationError{}
	if current == "" {
		verr.Add("currentPassword", "is required")
	}
	if next == "" {
		verr.Add("newPassword", "is required")
	}
	if !verr.Empty() {
		return verr
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByIDForUpdate(ctx, id.UserID())
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}

		if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(next)
		if err != nil {
			return err
		}

		if err := repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}

		s.logger.Info(ctx, "password changed", "user_id", user.ID)
		return nil
	})
}

// SignUp creates a new identity.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Password = auth.NormalizePassword(in.Password)

	verr := &common.ValidationError{}
	if in.Name == "" {
		verr.Add("name", "is required")
	}
	if in.Email == "" {
		verr.Add("email", "is required")
	} else if !strings.Contains(in.Email, "@") {
		verr.Add("email", "is not an email address")
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	} else if !in.Role.IsValid() {
		verr.Add("role", "must be user or admin")
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	} else if !in.Status.IsValid() {
		verr.Add("status", "must be active, inactive or pending")
	}
	if in.Password == "" {
		verr.Add("password", "is required")
	} else if err := auth.ValidatePassword(in.Password); err != nil {
		var perr *common.ValidationError
		if errors.As(err, &perr) {
			for field, reason := range perr.Fields {
				verr.Add(field, reason)
			}
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if in.PreferredLanguage == "" {
		in.PreferredLanguage = models.DefaultLanguage
	}
	startDate := s.now()
	if in.StartDate != nil {
		startDate = *in.StartDate
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:              in.Name,
		Email:             in.Email,
		PasswordHash:      hash,
		Role:              in.Role,
		Team:              strings.TrimSpace(in.Team),
		Phone:             strings.TrimSpace(in.Phone),
		StartDate:         startDate,
		Status:            in.Status,
		PreferredLanguage: in.PreferredLanguage,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", created.ID, "role", created.Role)
	return created, nil
}

// BootstrapAdmin creates an active admin identity. It is meant for the
// operator CLI that seeds the first administrator.
func (s *UserService) BootstrapAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.SignUp(ctx, SignUpInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
		Status:   models.StatusActive,
	})
}

// UpdateProfile changes the caller's display name and/or phone. Nil and
// blank values are ignored; if nothing is left the call fails with a
// validation error.
func (s *UserService) UpdateProfile(ctx context.Context, id auth.VerifiedIdentity, name, phone *string) (*models.User, error) {
	if !id.IsVerified() {
		return nil, common.ErrMissingVerifiedIdentity
	}

	upd := models.ProfileUpdate{
		Name:  nonBlank(name),
		Phone: nonBlank(phone),
	}
	if upd.Empty() {
		return nil, common.NewValidationError("profile", "no valid fields to update")
	}

	user, err := s.repomanager.Users(s.db).UpdateProfile(ctx, id.UserID(), upd)
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return user, nil
}

// GetUser returns one identity by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// ListUsers returns all identities.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// PurgeRevoked removes denylist entries of refresh tokens that expired.
func (s *UserService) PurgeRevoked(ctx context.Context) (int64, error) {
	return s.repomanager.RevokedTokens(s.db).PurgeExpired(ctx, s.now())
}

// --- helpers below ---

func nonBlank(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// burnCompare spends the same work as a real password check so that a
// missing email is not observable by timing.
func (s *UserService) burnCompare(password string) {
	if d, ok := s.hasher.(dummyHasher); ok {
		_ = s.hasher.Compare(d.DummyHash(), password)
	}
}

func (s *UserService) generateTokenPair(user *models.User) (*TokenPair, error) {
	access, _, err := s.codec.Issue(auth.AccessToken, user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: issuing access token: %w", common.ErrorInternal, err)
	}
	refresh, claims, err := s.codec.Issue(auth.RefreshToken, user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: issuing refresh token: %w", common.ErrorInternal, err)
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

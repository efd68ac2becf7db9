package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is counted in characters after trimming.
	MinPasswordLength = 8

	// maxPasswordBytes is the bcrypt input limit.
	maxPasswordBytes = 72

	passwordSymbols = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns common.ErrInvalidCredentials on mismatch.
	Compare(hash, password string) error
}

// BcryptHasher is a PasswordHasher backed by bcrypt. Each hash carries its
// own random salt.
type BcryptHasher struct {
	Cost int

	dummyOnce sync.Once
	dummy     string
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", common.NewValidationError("password", "is required")
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("%w: hashing password: %w", common.ErrorInternal, err)
	}
	return string(out), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrInvalidCredentials
	}
	return fmt.Errorf("%w: comparing password: %w", common.ErrorInternal, err)
}

// DummyHash returns a hash of a random password at the hasher's cost.
// Comparing against it costs the same as comparing against a real hash.
func (h *BcryptHasher) DummyHash() string {
	h.dummyOnce.Do(func() {
		out, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), h.Cost)
		if err == nil {
			h.dummy = string(out)
		}
	})
	return h.dummy
}

// NormalizePassword strips surrounding whitespace from a submitted password.
func NormalizePassword(password string) string {
	return strings.TrimSpace(password)
}

// ValidatePassword checks the password policy against the normalized
// password. All unmet rules are reported in one *common.ValidationError.
func ValidatePassword(password string) error {
	password = NormalizePassword(password)

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	verr := &common.ValidationError{}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		verr.Add("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if !lower {
		verr.Add("password", "must contain a lowercase letter")
	}
	if !upper {
		verr.Add("password", "must contain an uppercase letter")
	}
	if !digit {
		verr.Add("password", "must contain a digit")
	}
	if !symbol {
		verr.Add("password", "must contain a symbol")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

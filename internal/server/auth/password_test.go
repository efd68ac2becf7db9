package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashCompare(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", hash)

	assert.NoError(t, h.Compare(hash, "Secret1!"))
	assert.ErrorIs(t, h.Compare(hash, "secret1!"), common.ErrInvalidCredentials)

	again, err := h.Hash("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt differs per hash")
}

func TestBcryptHasher_CorruptHash(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	err := h.Compare("not-a-bcrypt-hash", "Secret1!")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.False(t, errors.Is(err, common.ErrInvalidCredentials))
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	t.Parallel()

	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestBcryptHasher_DummyHash(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	d := h.DummyHash()
	require.NotEmpty(t, d)
	assert.Equal(t, d, h.DummyHash())
	assert.ErrorIs(t, h.Compare(d, "Secret1!"), common.ErrInvalidCredentials)
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pw      string
		wantErr bool
		reason  string
	}{
		{"compliant", "Secret1!", false, ""},
		{"compliant after trim", "  Secret1!  ", false, ""},
		{"too short", "Se1!", true, "at least 8"},
		{"short after trim", "   Sec1!  ", true, "at least 8"},
		{"no lowercase", "SECRET1!", true, "lowercase"},
		{"no uppercase", "secret1!", true, "uppercase"},
		{"no digit", "Secret!!", true, "digit"},
		{"no symbol", "Secret12", true, "symbol"},
		{"backtick counts as symbol", "Secret1`", false, ""},
		{"too long", "Aa1!" + strings.Repeat("x", 80), true, "at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.pw)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields["password"], tt.reason)
		})
	}
}

func TestValidatePassword_ReportsAllRules(t *testing.T) {
	t.Parallel()

	err := ValidatePassword("abc")
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	for _, want := range []string{"at least 8", "uppercase", "digit", "symbol"} {
		assert.Contains(t, verr.Fields["password"], want)
	}
}

// Package admin implements the interactive bootstrap of the first admin
// account. Accounts are otherwise created only by admins through the API.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/onboarding/internal/server/models"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

type Bootstrapper interface {
	BootstrapAdmin(ctx context.Context, name, email, password string) (*models.User, error)
}

// Bootstrap asks for whatever of name and email was not supplied, reads the
// password twice and creates an active admin account.
func Bootstrap(ctx context.Context, b Bootstrapper, reader *bufio.Reader, w io.Writer, name, email string) (*models.User, error) {
	var err error

	if name == "" {
		if name, err = GetSimpleText(reader, "Enter admin name", w); err != nil {
			return nil, err
		}
	}
	if email == "" {
		if email, err = GetSimpleText(reader, "Enter admin email", w); err != nil {
			return nil, err
		}
	}

	password, err := GetPassword("Enter password", w)
	if err != nil {
		return nil, err
	}
	confirm, err := GetPassword("Repeat password", w)
	if err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	user, err := b.BootstrapAdmin(ctx, name, email, password)
	if err != nil {
		return nil, fmt.Errorf("error creating admin: %w", err)
	}

	fmt.Fprintf(w, "Admin %s created (id %s)\n", user.Email, user.ID)
	return user, nil
}

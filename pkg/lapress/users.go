package lapress

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/lapress/internal/store"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown login or
// a wrong password.
var ErrInvalidCredentials = errors.New("invalid login or password")

// NewUser describes an account for AddUser.
type NewUser struct {
	Login       string
	Email       string
	Password    string
	DisplayName string
	// Role defaults to author.
	Role string
}

// AddUser creates an account with a bcrypt password hash and the default
// profile meta. The user row and its meta are written in one transaction.
func (s *Site) AddUser(ctx context.Context, nu NewUser) (*types.User, error) {
	if nu.Password == "" {
		return nil, fmt.Errorf("password for %q must not be empty: %w", nu.Login, types.ErrInvalidData)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &types.User{
		Login:       nu.Login,
		Pass:        string(hash),
		Email:       nu.Email,
		DisplayName: nu.DisplayName,
	}
	err = s.backend.WithTx(ctx, func(tx *store.Backend) error {
		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		return u.SetManyMeta(ctx, types.DefaultUserMeta(nu.Role)...)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate returns the user whose login and password match.
func (s *Site) Authenticate(ctx context.Context, login, password string) (*types.User, error) {
	u, err := s.backend.FindUserByLogin(ctx, login)
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidName) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Pass), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

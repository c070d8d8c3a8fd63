package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/storage"
)

// LocalAuthProvider checks credentials against the configured user store.
type LocalAuthProvider struct {
	users  storage.UserRepository
	logger internal.Logger
}

func NewLocalAuthProvider(users storage.UserRepository, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{users: users, logger: logger}
}

func (a *LocalAuthProvider) Authenticate(ctx context.Context, username, password string) (*internal.User, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if errors.Is(err, internal.ErrNotFound) {
		a.logger.Warnf("login attempt for unknown user")
		return nil, internal.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup: %w", err)
	}
	if !VerifyPassword(password, user.Password) {
		a.logger.Warnf("login attempt with wrong password for user %s", user.ID)
		return nil, internal.ErrInvalidCredentials
	}
	return user, nil
}

func (a *LocalAuthProvider) Lookup(ctx context.Context, userID string) (*internal.User, error) {
	return a.users.GetUserByID(ctx, userID)
}

var _ Provider = (*LocalAuthProvider)(nil)

package auth

import (
	"context"

	"github.com/yourname/moodlog/internal"
)

type Provider interface {
	// Authenticate fails with internal.ErrInvalidCredentials for an unknown
	// username and for a wrong password alike.
	Authenticate(ctx context.Context, username, password string) (*internal.User, error)
	// Lookup resolves the userId a client presents.
	Lookup(ctx context.Context, userID string) (*internal.User, error)
}

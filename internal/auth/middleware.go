package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/response"
)

const (
	userIDKey = "userId"
	userKey   = "user"
)

// RequireUserID aborts with 400 when the userId query parameter is missing.
// The id itself is trusted as given.
func RequireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("userId")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(response.MsgUserIDRequired))
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// AuthorizeAdmin is the gate in front of the user listing: no id means
// internal.ErrUnauthenticated, an unknown or non-admin id internal.ErrForbidden.
func AuthorizeAdmin(ctx context.Context, provider Provider, userID string) (*internal.User, error) {
	if userID == "" {
		return nil, internal.ErrUnauthenticated
	}
	user, err := provider.Lookup(ctx, userID)
	if errors.Is(err, internal.ErrNotFound) {
		return nil, fmt.Errorf("auth: unknown user %s: %w", userID, internal.ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup %s: %w", userID, err)
	}
	if !user.IsAdmin {
		return nil, fmt.Errorf("auth: user %s is not an admin: %w", userID, internal.ErrForbidden)
	}
	return user, nil
}

// RequireAdmin lets the request through only when userId names an account
// whose stored isAdmin flag is set.
func RequireAdmin(provider Provider, logger internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("userId")
		user, err := AuthorizeAdmin(c.Request.Context(), provider, id)
		switch {
		case errors.Is(err, internal.ErrUnauthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Failure(response.MsgAuthRequired))
			return
		case errors.Is(err, internal.ErrForbidden):
			logger.Warnf("[request_id=%s] %v", c.GetString("request_id"), err)
			c.AbortWithStatusJSON(http.StatusForbidden, response.Failure(response.MsgForbidden))
			return
		case err != nil:
			logger.Errorf("[request_id=%s] admin lookup failed: %v", c.GetString("request_id"), err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Failure(response.MsgServerError))
			return
		}
		c.Set(userIDKey, id)
		c.Set(userKey, user)
		c.Next()
	}
}

// UserID returns the id stored by RequireUserID or RequireAdmin.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

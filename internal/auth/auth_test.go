package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/storage"
)

func TestHashPassword(t *testing.T) {
	// sha256("password")
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", HashPassword("password"))
	assert.Len(t, HashPassword(""), 64)
	assert.Equal(t, HashPassword("x"), HashPassword("x"))
	assert.True(t, VerifyPassword("password", HashPassword("password")))
	assert.False(t, VerifyPassword("Password", HashPassword("password")))
}

func TestIsBootstrapAdmin(t *testing.T) {
	assert.True(t, IsBootstrapAdmin("admin"))
	assert.False(t, IsBootstrapAdmin("Admin"))
	assert.False(t, IsBootstrapAdmin("administrator"))
}

func seededProvider(t *testing.T) *LocalAuthProvider {
	t.Helper()
	users := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, users.CreateUser(ctx, &internal.User{ID: "u-alice", Username: "alice", Password: HashPassword("secret")}))
	require.NoError(t, users.CreateUser(ctx, &internal.User{ID: "u-admin", Username: "admin", Password: HashPassword("root"), IsAdmin: true}))
	return NewLocalAuthProvider(users, internal.NopLogger())
}

func TestLocalAuthProvider_Authenticate(t *testing.T) {
	p := seededProvider(t)
	ctx := context.Background()

	u, err := p.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", u.ID)

	_, wrongPassword := p.Authenticate(ctx, "alice", "nope")
	_, unknownUser := p.Authenticate(ctx, "bob", "secret")
	assert.ErrorIs(t, wrongPassword, internal.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, internal.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := seededProvider(t)
	r := gin.New()
	r.GET("/users", RequireAdmin(p, internal.NopLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": UserID(c)})
	})

	tests := []struct {
		name    string
		query   string
		status  int
		message string
	}{
		{"missing user id", "", http.StatusUnauthorized, "認証が必要です"},
		{"unknown user", "?userId=ghost", http.StatusForbidden, "この操作を行うための権限がありません"},
		{"not an admin", "?userId=u-alice", http.StatusForbidden, "この操作を行うための権限がありません"},
		{"admin", "?userId=u-admin", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users"+tt.query, nil))
			assert.Equal(t, tt.status, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.message != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.message, body["message"])
			} else {
				assert.Equal(t, "u-admin", body["caller"])
			}
		})
	}
}

func TestRequireUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", RequireUserID(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"ユーザーIDが必要です"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health?userId=u1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

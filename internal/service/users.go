package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/auth"
	"github.com/yourname/moodlog/internal/storage"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return internal.Status(fl.Field().String()).Known()
	})
	return v
}

type AuthRequest struct {
	Action   string `json:"action"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func ValidateAuthRequest(body *AuthRequest) error {
	if err := validate.Struct(body); err != nil {
		return fmt.Errorf("%v: %w", err, internal.ErrValidation)
	}
	return nil
}

type UserService struct {
	users    storage.UserRepository
	provider auth.Provider
	logger   internal.Logger
	now      func() time.Time
}

func NewUserService(users storage.UserRepository, provider auth.Provider, logger internal.Logger) *UserService {
	return &UserService{users: users, provider: provider, logger: logger, now: time.Now}
}

// Register creates an account. Only the reserved admin username gets the
// admin flag, and only here.
func (s *UserService) Register(ctx context.Context, username, password string) (*internal.User, error) {
	user := &internal.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  auth.HashPassword(password),
		CreatedAt: internal.FormatISO(s.now()),
		IsAdmin:   auth.IsBootstrapAdmin(username),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Infof("registered user %s (admin=%t)", user.ID, user.IsAdmin)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*internal.User, error) {
	return s.provider.Authenticate(ctx, username, password)
}

// List returns every account without its digest.
func (s *UserService) List(ctx context.Context) ([]internal.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]internal.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/internal/auth"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/internal/validator"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// SessionCache mirrors live refresh tokens per user.
type SessionCache interface {
	Add(ctx context.Context, userID, token string) error
	Remove(ctx context.Context, userID, token string) error
	InvalidateUser(ctx context.Context, userID string) error
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Password string `json:"password" validate:"required,password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	User  *model.User    `json:"user"`
	Token auth.TokenPair `json:"token"`
}

// AuthService handles local username/password accounts and token rotation.
type AuthService struct {
	users    storage.UserRepo
	tokens   storage.TokenRepo
	manager  *auth.TokenManager
	sessions SessionCache
	now      func() time.Time
}

func NewAuthService(users storage.UserRepo, tokens storage.TokenRepo, manager *auth.TokenManager, sessions SessionCache) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		manager:  manager,
		sessions: sessions,
		now:      utils.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindUserConflict(ctx, in.Username, in.Email, "", "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicate("a user with this username or email")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: hash,
		Role:     model.RoleUser,
		Status:   model.UserStatusRegistered,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User registered", zap.String("user_id", user.ID))
	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.Password, in.Password); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}
	if user.Status == model.UserStatusBanned {
		return nil, fmt.Errorf("%w: account is banned", apperrors.ErrForbidden)
	}

	return s.issue(ctx, user)
}

// Logout revokes refreshToken. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	token, err := s.tokens.FindRefreshToken(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if token.UserID != userID {
		return fmt.Errorf("%w: refresh token belongs to another user", apperrors.ErrForbidden)
	}
	if err := s.tokens.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return err
	}
	s.forgetSession(ctx, userID, refreshToken)
	return nil
}

// Refresh rotates refreshToken into a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, fmt.Errorf("%w: refresh token is required", apperrors.ErrUnauthorized)
	}

	token, err := s.tokens.FindRefreshToken(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown refresh token", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := s.tokens.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	s.forgetSession(ctx, token.UserID, refreshToken)

	if token.Expired(s.now()) {
		return nil, fmt.Errorf("%w: refresh token expired", apperrors.ErrUnauthorized)
	}

	user, err := s.users.FindUserByID(ctx, token.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if user.Status == model.UserStatusBanned {
		if s.sessions != nil {
			if err := s.sessions.InvalidateUser(ctx, user.ID); err != nil {
				logger.FromContext(ctx).Warn("Failed to drop banned user's sessions", zap.Error(err))
			}
		}
		return nil, fmt.Errorf("%w: account is banned", apperrors.ErrForbidden)
	}
	return s.issue(ctx, user)
}

// Confirm marks the user's account CONFIRMED.
func (s *AuthService) Confirm(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Status = model.UserStatusConfirmed
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPassword records a reset request. It never reveals whether the
// email is registered.
func (s *AuthService) RequestPassword(ctx context.Context, email string) {
	log := logger.FromContext(ctx)
	user, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		log.Info("Password reset requested for unknown email")
	case err != nil:
		log.Error("Password reset lookup failed", zap.Error(err))
	default:
		log.Info("Password reset requested", zap.String("user_id", user.ID))
	}
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*AuthResult, error) {
	access, expires, err := s.manager.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	refresh, refreshExpires := s.manager.NewRefreshToken()
	if err := s.tokens.SaveRefreshToken(ctx, &model.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: refreshExpires,
	}); err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.Add(ctx, user.ID, refresh); err != nil {
			logger.FromContext(ctx).Warn("Failed to record session in cache", zap.Error(err))
		}
	}

	return &AuthResult{
		User: user,
		Token: auth.TokenPair{
			TokenType:    "Bearer",
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    expires,
		},
	}, nil
}

func (s *AuthService) forgetSession(ctx context.Context, userID, token string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Remove(ctx, userID, token); err != nil {
		logger.FromContext(ctx).Warn("Failed to drop session from cache", zap.Error(err))
	}
}

package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"filebox/config"
	"filebox/logger"
	"filebox/models"
	"filebox/repositories"
	"filebox/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthOutput struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (models.User, error)
	Login(ctx context.Context, in LoginInput) (AuthOutput, error)
	Refresh(ctx context.Context, refreshToken string) (AuthOutput, error)
	Logout(ctx context.Context, userID uint) error
}

type authService struct {
	txManager repositories.TxManager
	users     repositories.UserRepository
	attempts  repositories.LoginAttemptRepository
	tokens    TokenService
	security  config.SecurityConfig
}

func NewAuthService(
	txManager repositories.TxManager,
	users repositories.UserRepository,
	attempts repositories.LoginAttemptRepository,
	tokens TokenService,
	security config.SecurityConfig,
) AuthService {
	if attempts == nil {
		attempts = repositories.NoopLoginAttemptRepository{}
	}
	return &authService{txManager: txManager, users: users, attempts: attempts, tokens: tokens, security: security}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return models.User{}, validationError(ErrMissingFields)
	}
	if !strings.Contains(email, "@") {
		return models.User{}, newAppError(http.StatusBadRequest, KindValidation, "email is invalid", nil)
	}

	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return models.User{}, internalError("failed to check username", err)
	}
	if count > 0 {
		return models.User{}, conflictError(ErrDuplicateUsername)
	}
	count, err = s.users.CountByEmail(ctx, email)
	if err != nil {
		return models.User{}, internalError("failed to check email", err)
	}
	if count > 0 {
		return models.User{}, conflictError(ErrDuplicateEmail)
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.User{}, internalError("failed to hash password", err)
	}

	user := models.User{Username: username, Email: email, Password: hashedPassword}
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.users.Create(ctx, tx, &user)
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if n, cerr := s.users.CountByEmail(ctx, email); cerr == nil && n > 0 {
				return models.User{}, conflictError(ErrDuplicateEmail)
			}
			return models.User{}, conflictError(ErrDuplicateUsername)
		}
		return models.User{}, internalError("failed to create user", err)
	}

	logger.Infof("registered user %d (%s)", user.ID, user.Username)
	return user, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (AuthOutput, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return AuthOutput{}, validationError(ErrMissingFields)
	}

	key := strings.ToLower(username)
	if s.throttled(ctx, key) {
		return AuthOutput{}, newAppError(http.StatusTooManyRequests, KindRateLimited, ErrTooManyAttempts.Error(), ErrTooManyAttempts)
	}

	user, err := s.users.GetByUsername(ctx, nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BurnPasswordCheck(in.Password)
			s.recordFailure(ctx, key)
			return AuthOutput{}, authError(ErrInvalidCredentials)
		}
		return AuthOutput{}, internalError("failed to query user", err)
	}

	if !utils.CheckPassword(in.Password, user.Password) {
		s.recordFailure(ctx, key)
		return AuthOutput{}, authError(ErrInvalidCredentials)
	}

	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return AuthOutput{}, internalError("failed to issue tokens", err)
	}
	if s.security.MaxLoginFailures > 0 {
		if err := s.attempts.Reset(ctx, key); err != nil {
			logger.Warnf("reset login failures for %q: %v", key, err)
		}
	}

	return AuthOutput{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (AuthOutput, error) {
	if refreshToken == "" {
		return AuthOutput{}, authError(ErrMissingToken)
	}
	pair, user, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return AuthOutput{}, tokenError(err)
	}
	return AuthOutput{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, userID uint) error {
	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return internalError("failed to revoke session", err)
	}
	return nil
}

// throttled fails open: a broken counter store must not lock everyone out.
func (s *authService) throttled(ctx context.Context, key string) bool {
	if s.security.MaxLoginFailures <= 0 {
		return false
	}
	failures, err := s.attempts.Failures(ctx, key)
	if err != nil {
		logger.Warnf("read login failures for %q: %v", key, err)
		return false
	}
	return failures >= int64(s.security.MaxLoginFailures)
}

func (s *authService) recordFailure(ctx context.Context, key string) {
	if s.security.MaxLoginFailures <= 0 {
		return
	}
	if _, err := s.attempts.RecordFailure(ctx, key, s.security.LoginLockoutWindow); err != nil {
		logger.Warnf("record login failure for %q: %v", key, err)
	}
}

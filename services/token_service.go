package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"filebox/auth"
	"filebox/config"
	"filebox/models"
	"filebox/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenService issues and validates session tokens. Each user has at most one
// live refresh token; issuing or rotating replaces it and revoking clears it.
type TokenService interface {
	Issue(ctx context.Context, userID uint) (TokenPair, error)
	ValidateAccess(token string) (uint, error)
	ValidateRefresh(ctx context.Context, token string) (uint, error)
	Rotate(ctx context.Context, refreshToken string) (TokenPair, models.User, error)
	Revoke(ctx context.Context, userID uint) error
}

type tokenService struct {
	users      repositories.UserRepository
	jwt        *auth.Manager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(users repositories.UserRepository, cfg config.JWTConfig, now func() time.Time) TokenService {
	return &tokenService{
		users:      users,
		jwt:        auth.NewManager([]byte(cfg.Secret), now),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

func (s *tokenService) Issue(ctx context.Context, userID uint) (TokenPair, error) {
	pair, hash, err := s.mint(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, nil, userID, &hash); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

func (s *tokenService) ValidateAccess(token string) (uint, error) {
	claims, err := s.jwt.Parse(token, auth.KindAccess)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (s *tokenService) ValidateRefresh(ctx context.Context, token string) (uint, error) {
	user, _, err := s.checkRefresh(ctx, token)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Rotate trades a live refresh token for a new pair. Two concurrent rotations
// of the same token race on the stored hash and exactly one wins.
func (s *tokenService) Rotate(ctx context.Context, refreshToken string) (TokenPair, models.User, error) {
	user, oldHash, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, models.User{}, err
	}

	pair, newHash, err := s.mint(user.ID)
	if err != nil {
		return TokenPair{}, models.User{}, err
	}

	swapped, err := s.users.SwapRefreshTokenHash(ctx, nil, user.ID, oldHash, newHash)
	if err != nil {
		return TokenPair{}, models.User{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		return TokenPair{}, models.User{}, ErrTokenSuperseded
	}
	user.RefreshTokenHash = &newHash
	return pair, user, nil
}

func (s *tokenService) Revoke(ctx context.Context, userID uint) error {
	if err := s.users.SetRefreshTokenHash(ctx, nil, userID, nil); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *tokenService) checkRefresh(ctx context.Context, token string) (models.User, string, error) {
	claims, err := s.jwt.Parse(token, auth.KindRefresh)
	if err != nil {
		return models.User{}, "", err
	}

	user, err := s.users.GetByID(ctx, nil, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, "", ErrUnknownUser
		}
		return models.User{}, "", fmt.Errorf("load user: %w", err)
	}

	hash := hashToken(token)
	if user.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshTokenHash), []byte(hash)) != 1 {
		return models.User{}, "", ErrTokenSuperseded
	}
	return user, hash, nil
}

func (s *tokenService) mint(userID uint) (TokenPair, string, error) {
	access, accessExp, err := s.jwt.Sign(userID, auth.KindAccess, s.accessTTL, newTokenID())
	if err != nil {
		return TokenPair{}, "", fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := s.jwt.Sign(userID, auth.KindRefresh, s.refreshTTL, newTokenID())
	if err != nil {
		return TokenPair{}, "", fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, hashToken(refresh), nil
}

// newTokenID gives every token a random jti, so two tokens minted for the
// same user in the same second still differ.
func newTokenID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Only a digest of the refresh token is stored.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"filebox/models"
	"filebox/repositories"

	"gorm.io/gorm"
)

// AuthGate turns an Authorization header into the user it belongs to.
type AuthGate interface {
	Authenticate(ctx context.Context, header string) (models.User, error)
}

type authGate struct {
	tokens TokenService
	users  repositories.UserRepository
}

func NewAuthGate(tokens TokenService, users repositories.UserRepository) AuthGate {
	return &authGate{tokens: tokens, users: users}
}

func (g *authGate) Authenticate(ctx context.Context, header string) (models.User, error) {
	if header == "" {
		return models.User{}, authError(ErrMissingToken)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return models.User{}, authError(ErrMalformedHeader)
	}

	userID, err := g.tokens.ValidateAccess(token)
	if err != nil {
		// A refresh token presented as an access token is just an invalid token here.
		if errors.Is(err, ErrWrongKind) {
			return models.User{}, newAppError(http.StatusUnauthorized, KindAuth, ErrInvalidToken.Error(),
				fmt.Errorf("%w: %w", ErrInvalidToken, err))
		}
		return models.User{}, tokenError(err)
	}

	user, err := g.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, authError(ErrUnknownUser)
		}
		return models.User{}, internalError("failed to load user", err)
	}
	return user, nil
}

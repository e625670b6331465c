// Package auth signs and parses the HS256 bearer tokens handed to clients.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrTokenMissing   = errors.New("token is missing")
	ErrTokenMalformed = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrWrongKind      = errors.New("invalid token type")
)

// Claims carries the user id and token kind next to the registered claims.
type Claims struct {
	UserID uint `json:"user_id"`
	Type   Kind `json:"type"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret []byte, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{secret: secret, now: now}
}

// Sign returns the signed token and its expiry.
func (m *Manager) Sign(userID uint, kind Kind, ttl time.Duration, jti string) (string, time.Time, error) {
	issued := m.now()
	expires := issued.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Parse checks signature, expiry and kind, in that order.
func (m *Manager) Parse(tokenString string, want Kind) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenMalformed
	}
	if claims.Type != want {
		return nil, ErrWrongKind
	}
	return claims, nil
}

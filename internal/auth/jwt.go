package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by both access and refresh tokens. Role is only present on
// access tokens.
type Claims struct {
	Role      model.UserRole `json:"role,omitempty"`
	TokenType string         `json:"type"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256-signed JWTs.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessToken issues an access token carrying the user id and role.
func (m *Manager) AccessToken(u *model.User) (string, error) {
	return m.sign(u.ID, u.Role, TokenTypeAccess, m.accessTTL)
}

// RefreshToken issues a refresh token carrying only the user id.
func (m *Manager) RefreshToken(u *model.User) (string, error) {
	return m.sign(u.ID, "", TokenTypeRefresh, m.refreshTTL)
}

func (m *Manager) sign(userID uuid.UUID, role model.UserRole, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, checking the signature, expiry and the
// expected token type. Returns the user id the token was issued for.
func (m *Manager) Verify(tokenString, expectedType string) (uuid.UUID, *Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, nil, ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return uuid.Nil, nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, ErrInvalidToken
	}
	return userID, &claims, nil
}

// Package jwtutil mints and verifies the bearer tokens Auth issues. Unlike
// the Casdoor-backed RS256/JWKS verification in common/net/http/withJWT.go,
// this system is its own identity provider, so tokens are signed locally
// with a shared HS256 secret.
package jwtutil

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/corebooks/core/internal/platform/apperr"
)

// TokenKind distinguishes an access token from a refresh token so one can
// never be presented in place of the other.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the payload carried by every Corebooks JWT. Resource services
// never trust these claims directly: they re-verify via authclient against
// /profile. Auth itself uses Claims to validate refresh tokens and to mint
// the access token's own claims.
type Claims struct {
	UserID      string   `json:"sub"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Kind        TokenKind `json:"type"`
	SessionID   string   `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Minter signs and parses tokens with a single shared secret.
type Minter struct {
	secret          []byte
	accessTTL       time.Duration
	refreshTTL      time.Duration
}

// New builds a Minter. accessTTL/refreshTTL come from config.
func New(secret string, accessTTL, refreshTTL time.Duration) *Minter {
	return &Minter{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (m *Minter) sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(m.secret)
}

// MintAccess signs a short-lived access token carrying role/permissions.
func (m *Minter) MintAccess(userID, username, role string, permissions []string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.accessTTL)

	c := Claims{
		UserID:      userID,
		Username:    username,
		Role:        role,
		Permissions: permissions,
		Kind:        KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := m.sign(c)

	return token, expiresAt, err
}

// MintRefresh signs a longer-lived refresh token bound to a session id.
func (m *Minter) MintRefresh(userID, sessionID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.refreshTTL)

	c := Claims{
		UserID:    userID,
		Kind:      KindRefresh,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := m.sign(c)

	return token, expiresAt, err
}

// Parse verifies signature and expiry and returns the claims, requiring the
// token to be of the expected kind.
func (m *Minter) Parse(tokenString string, want TokenKind) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return m.secret, nil
	})

	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.UnauthorizedError{Code: "CB0005", Title: "Unauthorized", Message: "token expired"}
		}

		return nil, apperr.UnauthorizedError{Code: "CB0004", Title: "Unauthorized", Message: "invalid token"}
	}

	if claims.Kind != want {
		return nil, apperr.UnauthorizedError{Code: "CB0006", Title: "Unauthorized", Message: "wrong token type"}
	}

	return claims, nil
}

// BearerFromHeader extracts the token from a standard Authorization header.
func BearerFromHeader(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

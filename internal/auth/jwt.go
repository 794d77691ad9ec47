// Package auth provides session tokens, password hashing, and the
// authentication middleware.
//
// Sessions are stateless HS256 JWTs stored in an HttpOnly cookie. The
// token carries the user ID ("sub"), the email, and the forced
// password-change flag, so protected routes can gate on the flag without a
// database lookup. Password-change operations mint a fresh token with the
// flag cleared and replace the cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "travelog"

	// SessionTTL is the token and cookie lifetime.
	SessionTTL = 7 * 24 * time.Hour
)

// Session is the verified identity extracted from a token.
type Session struct {
	UserID                string
	Email                 string
	RequirePasswordChange bool
}

// TokenService signs and verifies session tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	Email                 string `json:"email"`
	RequirePasswordChange bool   `json:"pwd_change,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates a signed session token valid for SessionTTL.
func (s *TokenService) Issue(userID, email string, requirePasswordChange bool) (string, error) {
	now := time.Now()

	c := claims{
		Email:                 email,
		RequirePasswordChange: requirePasswordChange,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// issueWithTTL is used by tests to produce expired tokens.
func (s *TokenService) issueWithTTL(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Validate parses and verifies a token string.
//
// Pinning the accepted algorithm to HS256 (jwt.WithValidMethods) prevents
// algorithm-confusion attacks; the issuer check rejects tokens minted by
// other applications sharing the secret.
func (s *TokenService) Validate(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &Session{
		UserID:                c.Subject,
		Email:                 c.Email,
		RequirePasswordChange: c.RequirePasswordChange,
	}, nil
}

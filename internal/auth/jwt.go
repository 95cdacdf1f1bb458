// Package auth issues and verifies session tokens, hashes passwords, talks to
// the social identity providers and gates HTTP routes on a valid session.
//
// SESSION FLOW:
//  1. A user signs in (email/password or a provider callback)
//  2. The server issues a signed JWT carrying {id, email, role}
//  3. The client sends it back as "Authorization: Bearer <token>"
//  4. RequireAuth verifies it and stores the Session in the request context
//
// Tokens are stateless: there is no refresh and no revocation list. A token
// stays valid until it expires, even after a password or role change.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/model"
)

// DefaultIssuer is used when no issuer is configured.
const DefaultIssuer = "social-auth"

const minSecretLen = 16

// Session is the data a verified token asserts about its bearer.
type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenService signs and verifies HS256 session tokens. Every token it
// issues has the same lifetime.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService rejects secrets shorter than 16 bytes. An empty issuer
// falls back to DefaultIssuer.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("auth: JWT_SECRET needs at least %d bytes, got %d", minSecretLen, len(secret))
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// claims is the JWT payload. The three session fields sit next to the
// registered claims (iss, iat, exp) at the top level of the payload.
type claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TTL returns how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for the user with the configured lifetime.
func (s *TokenService) Issue(user *model.User) (string, error) {
	return s.IssueWithDuration(user, s.ttl)
}

// IssueWithDuration signs a token with a custom lifetime.
// Used in tests to mint already-expired tokens.
func (s *TokenService) IssueWithDuration(user *model.User, d time.Duration) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("auth: cannot issue a token without a user id")
	}

	now := time.Now()
	c := claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    s.issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token for %s: %w", user.ID, err)
	}
	return signed, nil
}

// Verify parses and checks a token string and returns the session it carries.
//
// Every failure (empty, malformed, bad signature, wrong algorithm, wrong
// issuer, expired) is reported as apperror.ErrUnauthenticated. The caller
// never needs to know which check failed. Only HS256 is accepted, so "none"
// and RSA-keyed tokens are refused before the signature is checked.
func (s *TokenService) Verify(tokenStr string) (*Session, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("auth: empty token: %w", apperror.ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(tokenStr, &claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired: %w", apperror.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("auth: invalid token (%v): %w", err, apperror.ErrUnauthenticated)
	}

	c, _ := token.Claims.(*claims)
	if c == nil || c.UserID == "" {
		return nil, fmt.Errorf("auth: token has no user id: %w", apperror.ErrUnauthenticated)
	}

	return &Session{UserID: c.UserID, Email: c.Email, Role: c.Role}, nil
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/social-auth/internal/response"
)

// Client-facing messages for the two gate failures.
const (
	MsgUnauthorized = "Please login to access this resource"
	MsgForbidden    = "You are not authorized to access this resource"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the session value.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth is the authentication half of the request gate.
//
// It reads "Authorization: Bearer <token>", verifies the token and stores
// the Session in the request context. A missing, malformed, expired or
// badly signed token gets a 401 envelope and the chain stops there.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new one that wraps it.
// Chi applies them in order: req -> M1 -> M2 -> Handler -> M2 -> M1 -> resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := tokens.Verify(bearerToken(r))
			if err != nil {
				response.JSON(w, http.StatusUnauthorized, MsgUnauthorized, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireRole is the authorization half of the request gate. It must run
// after RequireAuth: a request without a session, or whose session role
// differs from role, gets a 403 envelope.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok || session.Role != role {
				response.JSON(w, http.StatusForbidden, MsgForbidden, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the verified session from the request context.
// Returns (nil, false) outside a RequireAuth-protected route.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// bearerToken extracts the token from the Authorization header, or "" when
// the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

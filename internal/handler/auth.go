package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/response"
)

const (
	tokenCookie    = "token"
	stateCookie    = "oauth_state"
	redirectCookie = "oauth_redirect"

	// oauthCookieTTL bounds how long the user may sit on a consent screen.
	oauthCookieTTL = 10 * time.Minute
)

// MsgUnknownProvider is returned for a sign-in route whose provider is not
// configured.
const MsgUnknownProvider = "Sign-in provider is not available"

// AuthHandler serves email/password sign-in and the social provider flows.
//
// ROUTES:
//   - POST /auth/register, POST /auth/login, POST /auth/logout
//   - GET  /auth/{google,github}          → redirect to the consent screen
//   - GET  /auth/{google,github,telegram}/callback
//
// A successful callback sets an HttpOnly "token" cookie and redirects the
// browser to the client with ?token= in the URL. Any failure redirects to
// <CLIENT_URL>/auth/error; callbacks never answer with a JSON body.
type AuthHandler struct {
	auth      Authenticator
	providers map[model.Provider]auth.Provider
	clientURL string
	origins   []string
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. origins lists the hosts a Google
// sign-in may ask to be sent back to; tokenTTL is the token cookie max age.
func NewAuthHandler(
	authenticator Authenticator,
	clientURL string,
	origins []string,
	tokenTTL time.Duration,
	logger *slog.Logger,
	providers ...auth.Provider,
) *AuthHandler {
	h := &AuthHandler{
		auth:      authenticator,
		providers: make(map[model.Provider]auth.Provider, len(providers)),
		clientURL: strings.TrimRight(clientURL, "/"),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
	for _, o := range origins {
		h.origins = append(h.origins, strings.TrimRight(o, "/"))
	}
	for _, p := range providers {
		h.providers[p.Name()] = p
	}
	return h
}

// Has reports whether the provider is registered.
func (h *AuthHandler) Has(name model.Provider) bool {
	_, ok := h.providers[name]
	return ok
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an email/password account and signs it in.
//
// HTTP: POST /auth/register {name, email, password}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req, false); err != nil {
		response.JSON(w, http.StatusBadRequest, MsgValidationError, nil)
		return
	}

	result, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.Error(w, err, MsgUserRegisterError)
		return
	}
	response.JSON(w, http.StatusOK, MsgUserRegisterSuccess, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks an email/password pair.
//
// HTTP: POST /auth/login {email, password}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		response.JSON(w, http.StatusBadRequest, MsgValidationError, nil)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, err, MsgUserLoginError)
		return
	}
	response.JSON(w, http.StatusOK, MsgUserLoginSuccess, result)
}

// HandleLogout clears the token cookie. Tokens are stateless, so a copy
// held elsewhere stays valid until it expires.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, tokenCookie)
	response.JSON(w, http.StatusOK, MsgLogoutSuccess, nil)
}

// HandleProviderLogin starts an OAuth 2.0 flow by redirecting to the
// provider's consent screen.
//
// HTTP: GET /auth/{google,github}[?redirect=<origin>]
//
// CSRF PROTECTION VIA STATE:
// A random xid goes into a short-lived HttpOnly cookie and into the consent
// URL. The callback only proceeds when both match.
func (h *AuthHandler) HandleProviderLogin(name model.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirector, ok := h.providers[name].(auth.Redirector)
		if !ok {
			response.JSON(w, http.StatusNotFound, MsgUnknownProvider, nil)
			return
		}

		state := xid.New().String()
		setCookie(w, stateCookie, state, oauthCookieTTL)

		if dest := r.URL.Query().Get("redirect"); dest != "" {
			if h.allowedOrigin(dest) {
				setCookie(w, redirectCookie, strings.TrimRight(dest, "/"), oauthCookieTTL)
			} else {
				h.logger.Warn("ignoring redirect to unknown origin", slog.String("redirect", dest))
			}
		}

		http.Redirect(w, r, redirector.AuthURL(state), http.StatusTemporaryRedirect)
	}
}

// HandleProviderCallback completes a provider sign-in.
//
// FLOW:
//  1. For OAuth providers, check the state cookie (CSRF)
//  2. Exchange the callback parameters for a verified Profile
//  3. Find, create or link the user
//  4. Set the token cookie and redirect to the client
func (h *AuthHandler) HandleProviderCallback(name model.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := h.providers[name]
		if !ok {
			response.JSON(w, http.StatusNotFound, MsgUnknownProvider, nil)
			return
		}
		query := r.URL.Query()

		if _, isOAuth := provider.(auth.Redirector); isOAuth {
			if !checkState(w, r) {
				h.logger.Warn("auth callback: state mismatch", slog.String("provider", string(name)))
				h.fail(w, r)
				return
			}
			if denied := query.Get("error"); denied != "" {
				h.logger.Info("auth callback: user denied authorization",
					slog.String("provider", string(name)),
					slog.String("error", denied),
				)
				h.fail(w, r)
				return
			}
		}

		profile, err := provider.Exchange(r.Context(), query)
		if err != nil {
			h.logger.Error("auth callback: exchange failed",
				slog.String("provider", string(name)),
				slog.String("error", err.Error()),
			)
			h.fail(w, r)
			return
		}

		result, err := h.auth.SignInWithProvider(r.Context(), profile)
		if err != nil {
			h.logger.Error("auth callback: sign-in failed",
				slog.String("provider", string(name)),
				slog.String("error", err.Error()),
			)
			h.fail(w, r)
			return
		}

		setCookie(w, tokenCookie, result.Token, h.tokenTTL)
		http.Redirect(w, r, h.successURL(w, r, name, result.Token), http.StatusFound)
	}
}

// successURL is <host>/auth/callback?token= for Google, where host may come
// from the redirect cookie, and <CLIENT_URL>/home?token= otherwise.
func (h *AuthHandler) successURL(w http.ResponseWriter, r *http.Request, name model.Provider, token string) string {
	if name != model.ProviderGoogle {
		return h.clientURL + "/home?token=" + url.QueryEscape(token)
	}

	host := h.clientURL
	if c, err := r.Cookie(redirectCookie); err == nil && h.allowedOrigin(c.Value) {
		host = strings.TrimRight(c.Value, "/")
		clearCookie(w, redirectCookie)
	}
	return host + "/auth/callback?token=" + url.QueryEscape(token)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.clientURL+"/auth/error", http.StatusFound)
}

func (h *AuthHandler) allowedOrigin(origin string) bool {
	origin = strings.TrimRight(origin, "/")
	if origin == h.clientURL {
		return true
	}
	for _, o := range h.origins {
		if o == origin {
			return true
		}
	}
	return false
}

// checkState compares the callback's state with the cookie and clears the
// cookie; it is single-use.
func checkState(w http.ResponseWriter, r *http.Request) bool {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" {
		return false
	}
	clearCookie(w, stateCookie)
	return r.URL.Query().Get("state") == c.Value
}

func setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

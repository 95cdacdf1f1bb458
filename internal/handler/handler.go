// Package handler translates HTTP requests into service calls and service
// results into response envelopes.
//
// Handlers depend on the small interfaces below rather than on concrete
// services, so tests can drive them with in-memory mocks.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/service"
)

// Authenticator signs users in. *service.AuthService implements it.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	SignInWithProvider(ctx context.Context, profile *auth.Profile) (*service.AuthResult, error)
}

// Profiles serves the signed-in user's profile and the user lists.
// *service.UserService implements it.
type Profiles interface {
	Details(ctx context.Context, userID string) (*model.User, error)
	Update(ctx context.Context, userID string, upd service.ProfileUpdate) (*service.AuthResult, error)
	AdminList(ctx context.Context, page service.Page) (*service.UserList, error)
	PublicList(ctx context.Context, page service.Page) (*service.UserList, error)
}

// QuickSaves is implemented by *service.QuickSaveService.
type QuickSaves interface {
	Add(ctx context.Context, userID string, content map[string]any) (*model.QuickSave, error)
	List(ctx context.Context, userID string, params service.QuickSaveListParams) (*service.QuickSavePage, error)
	Delete(ctx context.Context, userID, id string) error
}

// Uploader is implemented by *service.AssetService.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*service.Asset, error)
}

var (
	_ Authenticator = (*service.AuthService)(nil)
	_ Profiles      = (*service.UserService)(nil)
	_ QuickSaves    = (*service.QuickSaveService)(nil)
	_ Uploader      = (*service.AssetService)(nil)
)

// errBadBody marks a request body that is not the JSON we expect.
var errBadBody = errors.New("handler: malformed request body")

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return errBadBody
	}
	return nil
}

// queryInt parses a numeric query parameter. Missing means 0; anything
// non-numeric is reported with ok=false.
func queryInt(r *http.Request, key string) (n int, ok bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sessionUserID returns the id of the authenticated caller. RequireAuth
// guarantees a session on every route that calls it.
func sessionUserID(r *http.Request) (string, bool) {
	s, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return "", false
	}
	return s.UserID, true
}

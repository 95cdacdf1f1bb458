package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/service"
)

// envelope mirrors response.Envelope with Data left raw for per-test decoding.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	require.Equal(t, rr.Code, env.Code, "envelope code must equal HTTP status")
	return env
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withSession returns r as RequireAuth would pass it on.
func withSession(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(auth.WithSession(r.Context(), &auth.Session{UserID: userID, Role: role}))
}

// MockAuthenticator implements handler.Authenticator.
type MockAuthenticator struct {
	Result      *service.AuthResult
	Err         error
	GotName     string
	GotEmail    string
	GotPassword string
	GotProfile  *auth.Profile
}

func (m *MockAuthenticator) Register(_ context.Context, name, email, password string) (*service.AuthResult, error) {
	m.GotName, m.GotEmail, m.GotPassword = name, email, password
	return m.Result, m.Err
}

func (m *MockAuthenticator) Login(_ context.Context, email, password string) (*service.AuthResult, error) {
	m.GotEmail, m.GotPassword = email, password
	return m.Result, m.Err
}

func (m *MockAuthenticator) SignInWithProvider(_ context.Context, p *auth.Profile) (*service.AuthResult, error) {
	m.GotProfile = p
	return m.Result, m.Err
}

// MockProvider implements auth.Provider and, when authURL is set, auth.Redirector.
type MockProvider struct {
	name      model.Provider
	profile   *auth.Profile
	err       error
	gotParams url.Values
}

func (m *MockProvider) Name() model.Provider { return m.name }

func (m *MockProvider) Exchange(_ context.Context, params url.Values) (*auth.Profile, error) {
	m.gotParams = params
	return m.profile, m.err
}

// MockOAuthProvider adds the consent-screen redirect.
type MockOAuthProvider struct {
	MockProvider
}

func (m *MockOAuthProvider) AuthURL(state string) string {
	return "https://idp.example/authorize?state=" + state
}

// MockProfiles implements handler.Profiles.
type MockProfiles struct {
	User      *model.User
	Result    *service.AuthResult
	List      *service.UserList
	Err       error
	GotUserID string
	GotUpdate service.ProfileUpdate
	GotPage   service.Page
	Called    string
}

func (m *MockProfiles) Details(_ context.Context, userID string) (*model.User, error) {
	m.GotUserID, m.Called = userID, "details"
	return m.User, m.Err
}

func (m *MockProfiles) Update(_ context.Context, userID string, upd service.ProfileUpdate) (*service.AuthResult, error) {
	m.GotUserID, m.GotUpdate, m.Called = userID, upd, "update"
	return m.Result, m.Err
}

func (m *MockProfiles) AdminList(_ context.Context, page service.Page) (*service.UserList, error) {
	m.GotPage, m.Called = page, "admin"
	return m.List, m.Err
}

func (m *MockProfiles) PublicList(_ context.Context, page service.Page) (*service.UserList, error) {
	m.GotPage, m.Called = page, "public"
	return m.List, m.Err
}

// MockQuickSaves implements handler.QuickSaves.
type MockQuickSaves struct {
	Saved      *model.QuickSave
	Page       *service.QuickSavePage
	Err        error
	GotUserID  string
	GotID      string
	GotContent map[string]any
	GotParams  service.QuickSaveListParams
}

func (m *MockQuickSaves) Add(_ context.Context, userID string, content map[string]any) (*model.QuickSave, error) {
	m.GotUserID, m.GotContent = userID, content
	return m.Saved, m.Err
}

func (m *MockQuickSaves) List(_ context.Context, userID string, p service.QuickSaveListParams) (*service.QuickSavePage, error) {
	m.GotUserID, m.GotParams = userID, p
	return m.Page, m.Err
}

func (m *MockQuickSaves) Delete(_ context.Context, userID, id string) error {
	m.GotUserID, m.GotID = userID, id
	return m.Err
}

// MockUploader implements handler.Uploader.
type MockUploader struct {
	Asset       *service.Asset
	Err         error
	GotName     string
	GotType     string
	GotContents []byte
}

func (m *MockUploader) Upload(_ context.Context, filename, contentType string, r io.Reader) (*service.Asset, error) {
	m.GotName, m.GotType = filename, contentType
	m.GotContents, _ = io.ReadAll(r)
	return m.Asset, m.Err
}

// MockPinger implements handler.Pinger.
type MockPinger struct{ Err error }

func (m MockPinger) Ping(context.Context) error { return m.Err }

package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/handler"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/service"
)

func TestUserHandler_HandleDetails(t *testing.T) {
	t.Run("returns the session's user", func(t *testing.T) {
		mock := &MockProfiles{User: &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "secret-hash"}}
		h := handler.NewUserHandler(mock, testLogger())

		rr := httptest.NewRecorder()
		h.HandleDetails(rr, withSession(httptest.NewRequest(http.MethodGet, "/user/details", nil), "u1", model.RoleUser))

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, handler.MsgUserDetailsSuccess, env.Message)
		assert.Contains(t, string(env.Data), `"email":"a@example.com"`)
		assert.NotContains(t, string(env.Data), "secret-hash")
		assert.Equal(t, "u1", mock.GotUserID)
	})

	t.Run("vanished user", func(t *testing.T) {
		mock := &MockProfiles{Err: apperror.New(apperror.ErrNotFound, service.MsgUserNotFound)}
		h := handler.NewUserHandler(mock, testLogger())

		rr := httptest.NewRecorder()
		h.HandleDetails(rr, withSession(httptest.NewRequest(http.MethodGet, "/user/details", nil), "gone", model.RoleUser))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, service.MsgUserNotFound, decodeEnvelope(t, rr).Message)
	})

	t.Run("no session", func(t *testing.T) {
		h := handler.NewUserHandler(&MockProfiles{}, testLogger())
		rr := httptest.NewRecorder()
		h.HandleDetails(rr, httptest.NewRequest(http.MethodGet, "/user/details", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, auth.MsgUnauthorized, decodeEnvelope(t, rr).Message)
	})
}

func TestUserHandler_HandleAccessTokenLogin(t *testing.T) {
	mock := &MockProfiles{Err: errors.New("connection reset")}
	h := handler.NewUserHandler(mock, testLogger())

	rr := httptest.NewRecorder()
	h.HandleAccessTokenLogin(rr, withSession(httptest.NewRequest(http.MethodPost, "/user/accessTokenLogin", nil), "u1", model.RoleUser))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, handler.MsgAccessTokenError, decodeEnvelope(t, rr).Message)
}

func TestUserHandler_HandleUpdate(t *testing.T) {
	t.Run("passes the partial update through", func(t *testing.T) {
		mock := &MockProfiles{Result: &service.AuthResult{User: &model.User{ID: "u1"}, Token: "fresh"}}
		h := handler.NewUserHandler(mock, testLogger())

		body := `{"name":"New","visibility":"public"}`
		req := withSession(httptest.NewRequest(http.MethodPut, "/user/update", bytes.NewBufferString(body)), "u1", model.RoleUser)
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, handler.MsgUserUpdateSuccess, env.Message)
		assert.Contains(t, string(env.Data), `"token":"fresh"`)
		assert.Equal(t, service.ProfileUpdate{Name: "New", Visibility: "public"}, mock.GotUpdate)
	})

	t.Run("empty body is an empty update", func(t *testing.T) {
		mock := &MockProfiles{Result: &service.AuthResult{User: &model.User{ID: "u1"}, Token: "t"}}
		h := handler.NewUserHandler(mock, testLogger())

		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, withSession(httptest.NewRequest(http.MethodPut, "/user/update", nil), "u1", model.RoleUser))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, service.ProfileUpdate{}, mock.GotUpdate)
	})

	t.Run("validation error keeps its message", func(t *testing.T) {
		mock := &MockProfiles{Err: apperror.OneOf("role", "user", "admin")}
		h := handler.NewUserHandler(mock, testLogger())

		req := withSession(httptest.NewRequest(http.MethodPut, "/user/update", bytes.NewBufferString(`{"role":"root"}`)), "u1", model.RoleUser)
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, `"role" must be one of [user, admin]`, decodeEnvelope(t, rr).Message)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		mock := &MockProfiles{}
		h := handler.NewUserHandler(mock, testLogger())

		req := withSession(httptest.NewRequest(http.MethodPut, "/user/update", bytes.NewBufferString(`[1,2`)), "u1", model.RoleUser)
		rr := httptest.NewRecorder()
		h.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, mock.Called, "service must not be called")
	})
}

func TestUserHandler_Lists(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		wantPage service.Page
		wantCode int
	}{
		{"body", "/user/public-list", `{"page":2,"limit":5}`, service.Page{Page: 2, Limit: 5}, http.StatusOK},
		{"query fallback", "/user/public-list?page=3&limit=20", "", service.Page{Page: 3, Limit: 20}, http.StatusOK},
		{"body wins over query", "/user/public-list?page=9", `{"page":1}`, service.Page{Page: 1}, http.StatusOK},
		{"defaults left to the service", "/user/public-list", `{}`, service.Page{}, http.StatusOK},
		{"non-numeric query", "/user/public-list?page=abc", "", service.Page{}, http.StatusBadRequest},
		{"non-numeric body", "/user/public-list", `{"page":"two"}`, service.Page{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockProfiles{List: &service.UserList{Users: []model.User{{ID: "u1"}}, Total: 1}}
			h := handler.NewUserHandler(mock, testLogger())

			req := withSession(httptest.NewRequest(http.MethodPost, tt.target, bytes.NewBufferString(tt.body)), "u1", model.RoleUser)
			rr := httptest.NewRecorder()
			h.HandlePublicList(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantPage, mock.GotPage)
				assert.Equal(t, "public", mock.Called)
			}
		})
	}

	t.Run("admin list envelope", func(t *testing.T) {
		mock := &MockProfiles{List: &service.UserList{Total: 0}}
		h := handler.NewUserHandler(mock, testLogger())

		rr := httptest.NewRecorder()
		h.HandleAdminList(rr, withSession(httptest.NewRequest(http.MethodPost, "/user/admin-list", nil), "a1", model.RoleAdmin))

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, handler.MsgUserListSuccess, env.Message)

		var data service.UserList
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.NotNil(t, data.Users, "users is [] not null")
		assert.Equal(t, "admin", mock.Called)
	})

	t.Run("store failure", func(t *testing.T) {
		mock := &MockProfiles{Err: errors.New("db down")}
		h := handler.NewUserHandler(mock, testLogger())

		rr := httptest.NewRecorder()
		h.HandlePublicList(rr, withSession(httptest.NewRequest(http.MethodPost, "/user/public-list", nil), "u1", model.RoleUser))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, handler.MsgUserPublicListError, decodeEnvelope(t, rr).Message)
	})
}

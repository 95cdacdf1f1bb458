package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/response"
	"github.com/sakif/social-auth/internal/service"
)

// UserHandler serves the /user routes about accounts. Every route sits
// behind RequireAuth; admin-list also behind RequireRole(admin).
type UserHandler struct {
	users  Profiles
	logger *slog.Logger
}

func NewUserHandler(users Profiles, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleDetails returns the caller's own profile.
//
// HTTP: GET /user/details
func (h *UserHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	h.currentUser(w, r, MsgUserDetailsSuccess, MsgUserDetailsError)
}

// HandleAccessTokenLogin lets a client holding a token restore its session.
// It answers like HandleDetails with its own messages.
//
// HTTP: POST /user/accessTokenLogin
func (h *UserHandler) HandleAccessTokenLogin(w http.ResponseWriter, r *http.Request) {
	h.currentUser(w, r, MsgAccessTokenSuccess, MsgAccessTokenError)
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request, okMsg, errMsg string) {
	userID, ok := sessionUserID(r)
	if !ok {
		response.JSON(w, http.StatusUnauthorized, auth.MsgUnauthorized, nil)
		return
	}

	user, err := h.users.Details(r.Context(), userID)
	if err != nil {
		h.logFailure("fetching user", userID, err)
		response.Error(w, err, errMsg)
		return
	}
	response.JSON(w, http.StatusOK, okMsg, user)
}

// HandleUpdate applies a partial profile update and returns the user with
// a fresh token.
//
// HTTP: PUT /user/update {name?, email?, visibility?, image?, password?, bio?, role?}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		response.JSON(w, http.StatusUnauthorized, auth.MsgUnauthorized, nil)
		return
	}

	var upd service.ProfileUpdate
	if err := decodeJSON(r, &upd, true); err != nil {
		response.JSON(w, http.StatusBadRequest, MsgValidationError, nil)
		return
	}

	result, err := h.users.Update(r.Context(), userID, upd)
	if err != nil {
		h.logFailure("updating user", userID, err)
		response.Error(w, err, MsgUserUpdateError)
		return
	}
	response.JSON(w, http.StatusOK, MsgUserUpdateSuccess, result)
}

// HandleAdminList pages through every account.
//
// HTTP: POST /user/admin-list {page?, limit?}
func (h *UserHandler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.users.AdminList, MsgUserListSuccess, MsgUserListError)
}

// HandlePublicList pages through public, non-admin accounts.
//
// HTTP: POST /user/public-list {page?, limit?}
func (h *UserHandler) HandlePublicList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.users.PublicList, MsgUserPublicListSuccess, MsgUserPublicListError)
}

type listFunc func(ctx context.Context, page service.Page) (*service.UserList, error)

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request, fetch listFunc, okMsg, errMsg string) {
	page, ok := pageFromRequest(r)
	if !ok {
		response.JSON(w, http.StatusBadRequest, MsgValidationError, nil)
		return
	}

	list, err := fetch(r.Context(), page)
	if err != nil {
		h.logger.Error("failed to list users", slog.String("error", err.Error()))
		response.Error(w, err, errMsg)
		return
	}
	if list.Users == nil {
		list.Users = []model.User{}
	}
	response.JSON(w, http.StatusOK, okMsg, list)
}

// pageFromRequest reads {page, limit} from the JSON body, falling back to
// the query string for fields the body leaves out.
func pageFromRequest(r *http.Request) (service.Page, bool) {
	var body struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	}
	if err := decodeJSON(r, &body, true); err != nil {
		return service.Page{}, false
	}

	var page service.Page
	var ok bool
	if body.Page != nil {
		page.Page = *body.Page
	} else if page.Page, ok = queryInt(r, "page"); !ok {
		return service.Page{}, false
	}
	if body.Limit != nil {
		page.Limit = *body.Limit
	} else if page.Limit, ok = queryInt(r, "limit"); !ok {
		return service.Page{}, false
	}
	return page, true
}

func (h *UserHandler) logFailure(action, userID string, err error) {
	if response.StatusFor(err) != http.StatusInternalServerError {
		return
	}
	h.logger.Error("failed "+action,
		slog.String("userID", userID),
		slog.String("error", err.Error()),
	)
}

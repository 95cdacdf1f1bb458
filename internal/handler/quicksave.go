package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/response"
	"github.com/sakif/social-auth/internal/service"
)

// QuickSaveHandler serves the caller's bookmarks.
type QuickSaveHandler struct {
	saves  QuickSaves
	logger *slog.Logger
}

func NewQuickSaveHandler(saves QuickSaves, logger *slog.Logger) *QuickSaveHandler {
	return &QuickSaveHandler{saves: saves, logger: logger}
}

type addQuickSaveRequest struct {
	Content map[string]any `json:"content"`
}

// HandleAdd stores a bookmark.
//
// HTTP: POST /user/add-to-quick-save {content: {...}}
func (h *QuickSaveHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		response.JSON(w, http.StatusUnauthorized, auth.MsgUnauthorized, nil)
		return
	}

	var req addQuickSaveRequest
	if err := decodeJSON(r, &req, false); err != nil {
		response.JSON(w, http.StatusBadRequest, MsgValidationError, nil)
		return
	}

	qs, err := h.saves.Add(r.Context(), userID, req.Content)
	if err != nil {
		response.Error(w, err, MsgQuickSaveAddError)
		return
	}
	response.JSON(w, http.StatusOK, MsgQuickSaveAddSuccess, qs)
}

// HandleList returns one page of bookmarks.
//
// HTTP: GET /user/get-quick-saves?page&limit&search&sortBy&sortOrder
func (h *QuickSaveHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		response.JSON(w, http.StatusUnauthorized, auth.MsgUnauthorized, nil)
		return
	}

	page, okPage := queryInt(r, "page")
	limit, okLimit := queryInt(r, "limit")
	if !okPage || !okLimit {
		response.JSON(w, http.StatusBadRequest, MsgValidationError, nil)
		return
	}

	q := r.URL.Query()
	result, err := h.saves.List(r.Context(), userID, service.QuickSaveListParams{
		Page:      service.Page{Page: page, Limit: limit},
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	})
	if err != nil {
		response.Error(w, err, MsgQuickSaveListError)
		return
	}
	response.JSON(w, http.StatusOK, MsgQuickSaveListSuccess, result)
}

// HandleDelete removes a bookmark the caller owns. Another user's id
// answers 404 exactly like a missing one.
//
// HTTP: DELETE /user/quick-save/{id}
func (h *QuickSaveHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		response.JSON(w, http.StatusUnauthorized, auth.MsgUnauthorized, nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.saves.Delete(r.Context(), userID, id); err != nil {
		response.Error(w, err, MsgQuickSaveDeleteError)
		return
	}
	response.JSON(w, http.StatusOK, MsgQuickSaveDeleteSuccess, nil)
}

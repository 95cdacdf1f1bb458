package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/repository"
)

// Sort orders accepted by QuickSaveService.List.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

type QuickSaveService struct {
	repo   repository.QuickSaveRepository
	logger *slog.Logger
}

func NewQuickSaveService(repo repository.QuickSaveRepository, logger *slog.Logger) *QuickSaveService {
	return &QuickSaveService{repo: repo, logger: logger}
}

// Add stores content for userID. content must be a non-empty JSON object.
func (s *QuickSaveService) Add(ctx context.Context, userID string, content map[string]any) (*model.QuickSave, error) {
	if len(content) == 0 {
		return nil, apperror.Required("content")
	}

	qs := &model.QuickSave{UserID: userID, Content: content}
	if err := s.repo.CreateQuickSave(ctx, qs); err != nil {
		s.logger.Error("failed to create quick save",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/quicksave: creating: %w", err)
	}

	s.logger.Info("quick save created", slog.String("id", qs.ID), slog.String("userID", userID))
	return qs, nil
}

// QuickSaveListParams are the raw list parameters from the request.
type QuickSaveListParams struct {
	Page
	Search    string
	SortBy    string // createdAt (default) or updatedAt
	SortOrder string // desc (default) or asc
}

// QuickSavePage is the paginated list body. prevPage and nextPage are null
// when there is no such page.
type QuickSavePage struct {
	Docs          []model.QuickSave `json:"docs"`
	TotalDocs     int               `json:"totalDocs"`
	Limit         int               `json:"limit"`
	Page          int               `json:"page"`
	TotalPages    int               `json:"totalPages"`
	PagingCounter int               `json:"pagingCounter"`
	HasPrevPage   bool              `json:"hasPrevPage"`
	HasNextPage   bool              `json:"hasNextPage"`
	PrevPage      *int              `json:"prevPage"`
	NextPage      *int              `json:"nextPage"`
}

// List returns one page of the user's quick saves.
func (s *QuickSaveService) List(ctx context.Context, userID string, params QuickSaveListParams) (*QuickSavePage, error) {
	page := params.Page.normalize()

	sortBy := strings.TrimSpace(params.SortBy)
	switch sortBy {
	case "":
		sortBy = repository.SortCreatedAt
	case repository.SortCreatedAt, repository.SortUpdatedAt:
	default:
		return nil, apperror.OneOf("sortBy", repository.SortCreatedAt, repository.SortUpdatedAt)
	}

	order := strings.ToLower(strings.TrimSpace(params.SortOrder))
	switch order {
	case "":
		order = SortDesc
	case SortAsc, SortDesc:
	default:
		return nil, apperror.OneOf("sortOrder", SortAsc, SortDesc)
	}

	docs, total, err := s.repo.ListQuickSaves(ctx, repository.QuickSaveQuery{
		UserID:      userID,
		Search:      strings.TrimSpace(params.Search),
		SortBy:      sortBy,
		Desc:        order == SortDesc,
		ListOptions: page.options(),
	})
	if err != nil {
		s.logger.Error("failed to list quick saves",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/quicksave: listing: %w", err)
	}

	return paginate(docs, total, page), nil
}

// Delete removes the quick save only if userID owns it. A missing id and
// someone else's id are both ErrNotFound.
func (s *QuickSaveService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.Required("id")
	}
	if err := s.repo.DeleteQuickSave(ctx, id, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.New(apperror.ErrNotFound, MsgQuickSaveNotFound)
		}
		return fmt.Errorf("service/quicksave: deleting %s: %w", id, err)
	}
	s.logger.Info("quick save deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}

func paginate(docs []model.QuickSave, total int, page Page) *QuickSavePage {
	totalPages := (total + page.Limit - 1) / page.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	if docs == nil {
		docs = []model.QuickSave{}
	}

	p := &QuickSavePage{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         page.Limit,
		Page:          page.Page,
		TotalPages:    totalPages,
		PagingCounter: (page.Page-1)*page.Limit + 1,
		HasPrevPage:   page.Page > 1,
		HasNextPage:   page.Page < totalPages,
	}
	if p.HasPrevPage {
		prev := page.Page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := page.Page + 1
		p.NextPage = &next
	}
	return p
}

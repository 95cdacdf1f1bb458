// Package repository declares the storage interfaces the services depend on.
// internal/repository/sqlite is the only implementation; tests use fakes.
package repository

import (
	"context"

	"github.com/sakif/social-auth/internal/model"
)

// ListOptions is LIMIT/OFFSET pagination. Implementations clamp Limit to
// [1, MaxLimit] and negative offsets to 0.
type ListOptions struct {
	Limit  int
	Offset int
}

// MaxLimit caps every page size.
const MaxLimit = 100

// UserFilter narrows ListUsers. Empty fields match everything.
type UserFilter struct {
	Visibility string
	Role       string
}

type UserRepository interface {
	// CreateUser inserts user, filling ID and timestamps. A taken email or
	// provider id returns apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByProviderID(ctx context.Context, provider model.Provider, providerID string) (*model.User, error)
	// UpdateUser overwrites the profile columns of user. Provider ids are
	// left to LinkProvider and refreshed into user from the stored row.
	UpdateUser(ctx context.Context, user *model.User) error
	// LinkProvider sets one provider id on an existing user, refreshing the
	// first/last name when the given values are non-empty.
	LinkProvider(ctx context.Context, userID string, provider model.Provider, providerID, firstName, lastName string) (*model.User, error)
	// ListUsers returns one page plus the total matching count.
	ListUsers(ctx context.Context, filter UserFilter, opts ListOptions) ([]model.User, int, error)
	Ping(ctx context.Context) error
}

// Sort columns for quick saves.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
)

// QuickSaveQuery selects one page of a user's quick saves.
type QuickSaveQuery struct {
	UserID string
	// Search is a case-insensitive substring matched against content.title
	// and content.description.
	Search string
	SortBy string // SortCreatedAt or SortUpdatedAt
	Desc   bool
	ListOptions
}

type QuickSaveRepository interface {
	CreateQuickSave(ctx context.Context, qs *model.QuickSave) error
	ListQuickSaves(ctx context.Context, q QuickSaveQuery) ([]model.QuickSave, int, error)
	// DeleteQuickSave removes the row only when both id and owner match;
	// anything else is apperror.ErrNotFound.
	DeleteQuickSave(ctx context.Context, id, userID string) error
}

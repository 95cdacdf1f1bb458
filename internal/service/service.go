// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never *sqlite.DB, so the tests in this
// package run against in-memory fakes. They return apperror values and know
// nothing about HTTP status codes.
package service

import (
	"math"
	"net/mail"
	"strings"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/repository"
)

// Client-facing messages that services attach to their errors.
const (
	MsgUserNotFound       = "User does not exist"
	MsgUserAlreadyExist   = "User already exist"
	MsgInvalidCredentials = "Email or password is incorrect"
	MsgQuickSaveNotFound  = "Quick save not found"
)

// Pagination defaults shared by the user and quick-save lists.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = repository.MaxLimit

	// MaxPage keeps (page-1)*limit inside int for any allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// normalize fills defaults and clamps Limit to MaxLimit.
func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

func (p Page) options() repository.ListOptions {
	return repository.ListOptions{Limit: p.Limit, Offset: (p.Page - 1) * p.Limit}
}

// normalizeEmail trims and lower-cases an address so lookups are
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// requireField rejects a blank value with the "is required" validation error.
func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Required(field)
	}
	return nil
}

// validateEmail accepts a bare address ("a@b.c"), not a display-name form.
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return apperror.ValidationFailed("email", `"email" must be a valid email`)
	}
	return nil
}

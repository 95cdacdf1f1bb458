// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles a user can hold. Role is carried inside the session token, so a
// change only takes effect once a fresh token is issued.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile visibility values. Only public, non-admin users appear in the
// public user list.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// DefaultBio is stored for every new account until the user sets their own.
const DefaultBio = "A user from the platform"

// Provider names a social identity provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderGitHub   Provider = "github"
	ProviderTelegram Provider = "telegram"
)

// User represents a registered account.
//
// WHY ARE THE PROVIDER IDS AND EMAIL PLAIN STRINGS?
// Each of them is optional. An empty string means "not linked" (or, for
// Email, "the provider didn't give us one"). The repository stores empty
// values as NULL so the UNIQUE constraints on those columns only apply to
// populated values (sparse uniqueness).
//
// One account can collect several provider IDs over time: the first provider
// to register an email owns the record, later providers with the same email
// attach their ID to it.
type User struct {
	ID           string    `json:"id"`
	GoogleID     string    `json:"googleId,omitempty"`
	GitHubID     string    `json:"githubId,omitempty"`
	TelegramID   string    `json:"telegramId,omitempty"`
	Email        string    `json:"email,omitempty"`
	DisplayName  string    `json:"displayName"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Image        string    `json:"image,omitempty"`
	Visibility   string    `json:"visibility"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"` // never serialised
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProviderID returns the identifier this user holds for the given provider,
// or "" if the provider isn't linked.
func (u *User) ProviderID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderGitHub:
		return u.GitHubID
	case ProviderTelegram:
		return u.TelegramID
	}
	return ""
}

// SetProviderID links the given provider identifier to the user.
func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderGitHub:
		u.GitHubID = id
	case ProviderTelegram:
		u.TelegramID = id
	}
}

// Valid reports whether p is a provider this application knows about.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderGitHub, ProviderTelegram:
		return true
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/repository"
)

// IdentityService turns a provider profile into a local account.
//
// Email is the unification key: the first provider to present an address
// owns the record and later providers with the same address attach their
// id to it. A profile without an email (Telegram) is looked up by its
// provider id only, so it never merges into an email account.
type IdentityService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewIdentityService(users repository.UserRepository, logger *slog.Logger) *IdentityService {
	return &IdentityService{users: users, logger: logger}
}

// Reconcile finds, creates or links the account for profile:
//
//  1. look the user up by provider id, then by email
//  2. found and already linked to this provider → returned unchanged
//  3. not found → a new user is created from the profile
//  4. found but not linked → the provider id is attached, names refreshed
//
// The account already holding the provider id always wins, even when the
// provider now reports an address that belongs to another account.
func (s *IdentityService) Reconcile(ctx context.Context, p *auth.Profile) (*model.User, error) {
	if p == nil || p.ID == "" || !p.Provider.Valid() {
		return nil, fmt.Errorf("service/identity: incomplete provider profile")
	}
	email := normalizeEmail(p.Email)

	user, err := s.lookup(ctx, p.Provider, p.ID, email)
	if err != nil {
		s.logger.Error("identity lookup failed",
			slog.String("provider", string(p.Provider)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	switch {
	case user == nil:
		return s.create(ctx, p, email)
	case user.ProviderID(p.Provider) != "":
		return user, nil
	}

	linked, err := s.users.LinkProvider(ctx, user.ID, p.Provider, p.ID, p.FirstName, p.LastName)
	if err != nil {
		s.logger.Error("failed to link provider",
			slog.String("provider", string(p.Provider)),
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/identity: linking %s: %w", p.Provider, err)
	}

	s.logger.Info("provider linked to existing account",
		slog.String("provider", string(p.Provider)),
		slog.String("userID", linked.ID),
	)
	return linked, nil
}

// lookup returns (nil, nil) when no account matches.
func (s *IdentityService) lookup(ctx context.Context, provider model.Provider, providerID, email string) (*model.User, error) {
	user, err := s.users.GetUserByProviderID(ctx, provider, providerID)
	switch {
	case err == nil:
		return user, nil
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/identity: looking up by %s id: %w", provider, err)
	case email == "":
		return nil, nil
	}

	user, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, apperror.ErrNotFound):
		return nil, nil
	}
	return nil, fmt.Errorf("service/identity: looking up by email: %w", err)
}

func (s *IdentityService) create(ctx context.Context, p *auth.Profile, email string) (*model.User, error) {
	user := &model.User{
		Email:       email,
		DisplayName: displayNameFor(p, email),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Image:       p.AvatarURL,
	}
	user.SetProviderID(p.Provider, p.ID)

	// Two first sign-ins racing on the same email both miss the lookup; the
	// UNIQUE index rejects the second with ErrConflict.
	if err := s.users.CreateUser(ctx, user); err != nil {
		s.logger.Error("failed to create user from provider profile",
			slog.String("provider", string(p.Provider)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/identity: creating user: %w", err)
	}

	s.logger.Info("user registered via provider",
		slog.String("provider", string(p.Provider)),
		slog.String("userID", user.ID),
	)
	return user, nil
}

// displayNameFor never returns "": display_name is NOT NULL.
func displayNameFor(p *auth.Profile, email string) string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.FirstName != "":
		return p.FirstName
	case email != "":
		return email
	}
	return string(p.Provider) + " user " + p.ID
}

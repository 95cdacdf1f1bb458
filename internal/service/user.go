package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/repository"
)

// UserService covers the signed-in user's own profile and the user lists.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Details returns the account behind a session. A token that outlived its
// user gets ErrNotFound.
func (s *UserService) Details(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, MsgUserNotFound)
		}
		return nil, fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// ProfileUpdate is a partial update. Empty fields keep their stored value.
type ProfileUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Visibility string `json:"visibility"`
	Image      string `json:"image"`
	Password   string `json:"password"`
	Bio        string `json:"bio"`
	Role       string `json:"role"`
}

// Update applies upd to the user and issues a fresh token, so a role
// change is visible to the gate from the next request on.
//
// Name sets both the first name and the display name.
func (s *UserService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*AuthResult, error) {
	if err := validateUpdate(&upd); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(apperror.ErrValidation, MsgUserNotFound)
		}
		return nil, fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}

	if upd.Name != "" {
		user.FirstName = upd.Name
		user.DisplayName = upd.Name
	}
	if upd.Email != "" {
		user.Email = upd.Email
	}
	if upd.Visibility != "" {
		user.Visibility = upd.Visibility
	}
	if upd.Image != "" {
		user.Image = upd.Image
	}
	if upd.Bio != "" {
		user.Bio = upd.Bio
	}
	if upd.Role != "" {
		user.Role = upd.Role
	}
	if upd.Password != "" {
		hash, err := s.passwords.Hash(upd.Password)
		if err != nil {
			return nil, fmt.Errorf("service/user: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.New(apperror.ErrConflict, MsgUserAlreadyExist)
		}
		s.logger.Error("failed to update user",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/user: updating user %s: %w", userID, err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("service/user: issuing token: %w", err)
	}

	s.logger.Info("user updated", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

func validateUpdate(upd *ProfileUpdate) error {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Email = normalizeEmail(upd.Email)
	upd.Visibility = strings.TrimSpace(upd.Visibility)
	upd.Role = strings.TrimSpace(upd.Role)

	if upd.Email != "" {
		if err := validateEmail(upd.Email); err != nil {
			return err
		}
	}
	switch upd.Visibility {
	case "", model.VisibilityPublic, model.VisibilityPrivate:
	default:
		return apperror.OneOf("visibility", model.VisibilityPublic, model.VisibilityPrivate)
	}
	switch upd.Role {
	case "", model.RoleUser, model.RoleAdmin:
	default:
		return apperror.OneOf("role", model.RoleUser, model.RoleAdmin)
	}
	return nil
}

// UserList is one page of users plus the total across all pages.
type UserList struct {
	Users []model.User `json:"users"`
	Total int          `json:"total"`
}

// AdminList pages through every account.
func (s *UserService) AdminList(ctx context.Context, page Page) (*UserList, error) {
	return s.list(ctx, repository.UserFilter{}, page)
}

// PublicList pages through public, non-admin accounts.
func (s *UserService) PublicList(ctx context.Context, page Page) (*UserList, error) {
	return s.list(ctx, repository.UserFilter{
		Visibility: model.VisibilityPublic,
		Role:       model.RoleUser,
	}, page)
}

func (s *UserService) list(ctx context.Context, filter repository.UserFilter, page Page) (*UserList, error) {
	users, total, err := s.users.ListUsers(ctx, filter, page.normalize().options())
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return &UserList{Users: users, Total: total}, nil
}

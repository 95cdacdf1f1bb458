package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/repository"
)

// AuthService handles sign-up and sign-in, by password or by provider.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ IdentityService (provider accounts)
//	                               ↘ TokenService (JWT)
type AuthService struct {
	users     repository.UserRepository
	identity  *IdentityService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthService(
	users repository.UserRepository,
	identity *IdentityService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		identity:  identity,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT together so the
// caller can respond (or set the cookie and redirect) in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an email/password account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if err := requireField("name", name); err != nil {
		return nil, err
	}
	if err := requireField("email", email); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := requireField("password", password); err != nil {
		return nil, err
	}

	// Fast path for the common duplicate. The UNIQUE index below still
	// decides when two registrations race.
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, apperror.New(apperror.ErrConflict, MsgUserAlreadyExist)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Email:        email,
		DisplayName:  name,
		FirstName:    name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.New(apperror.ErrConflict, MsgUserAlreadyExist)
		}
		s.logger.Error("failed to register user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return s.signIn(user)
}

// Login checks an email/password pair. An unknown email, an account without
// a password and a wrong password all produce the same error, and all of
// them pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	if err := requireField("email", email); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := requireField("password", password); err != nil {
		return nil, err
	}

	invalid := apperror.New(apperror.ErrValidation, MsgInvalidCredentials)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: looking up user: %w", err)
		}
		_ = s.passwords.Verify(s.decoy(), password)
		return nil, invalid
	}

	hash := user.PasswordHash
	if hash == "" {
		hash = s.decoy()
	}
	if err := s.passwords.Verify(hash, password); err != nil || user.PasswordHash == "" {
		return nil, invalid
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.signIn(user)
}

// SignInWithProvider reconciles a verified provider profile with the user
// table and issues a session token for the resulting account.
func (s *AuthService) SignInWithProvider(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	user, err := s.identity.Reconcile(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.signIn(user)
}

func (s *AuthService) signIn(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// decoy returns a real hash of a throwaway password, computed on first use.
func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		h, err := s.passwords.Hash("decoy-password-for-timing")
		if err != nil {
			s.logger.Error("failed to build decoy hash", slog.String("error", err.Error()))
		}
		s.decoyHash = h
	})
	return s.decoyHash
}

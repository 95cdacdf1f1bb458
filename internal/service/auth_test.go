package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
)

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_StoresHashAndIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), "Ada", "Ada@Example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored, _ := repo.GetUserByID(context.Background(), result.User.ID)
	if stored.PasswordHash == "" || strings.Contains(stored.PasswordHash, "s3cret-pass") {
		t.Errorf("PasswordHash = %q, want a non-plaintext hash", stored.PasswordHash)
	}
	if stored.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalised address", stored.Email)
	}
	if stored.DisplayName != "Ada" || stored.FirstName != "Ada" {
		t.Errorf("names = (%q, %q), want Ada", stored.DisplayName, stored.FirstName)
	}

	session, err := newTestTokens(t).Verify(result.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if session.UserID != stored.ID || session.Role != model.RoleUser || session.Email != "ada@example.com" {
		t.Errorf("session = %+v", session)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "A", "dup@example.com", "pw"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), "B", "DUP@example.com", "pw")

	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() error = %v, want ErrConflict", err)
	}
	if err.Error() != MsgUserAlreadyExist {
		t.Errorf("message = %q, want %q", err.Error(), MsgUserAlreadyExist)
	}
	if repo.count() != 1 {
		t.Errorf("user count = %d, want 1", repo.count())
	}
}

// A registration that loses the race past the lookup still gets the
// duplicate message, from the store's UNIQUE constraint.
func TestRegister_ConflictFromStore(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = apperror.Conflict("user", "race@example.com")
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "R", "race@example.com", "pw")
	if !errors.Is(err, apperror.ErrConflict) || err.Error() != MsgUserAlreadyExist {
		t.Fatalf("Register() error = %v, want %q conflict", err, MsgUserAlreadyExist)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	tests := []struct {
		name, fullName, email, password string
		wantField                       string
	}{
		{"missing name", "", "a@example.com", "pw", "name"},
		{"missing email", "A", "", "pw", "email"},
		{"bad email", "A", "not-an-email", "pw", "email"},
		{"display-name form", "A", "Ada <a@example.com>", "pw", "email"},
		{"no dot in domain", "A", "a@localhost", "pw", "email"},
		{"missing password", "A", "a@example.com", "", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.fullName, tt.email, tt.password)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want a validation error", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = errors.New("connection refused")
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "A", "a@example.com", "pw")
	if err == nil || errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Register() error = %v, want a plain internal error", err)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	registered, _ := svc.Register(context.Background(), "Ada", "ada@example.com", "correct-horse")

	result, err := svc.Login(context.Background(), " ADA@example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != registered.User.ID || result.Token == "" {
		t.Errorf("Login() = %+v", result)
	}
}

// Unknown email, wrong password and a password-less (OAuth-only) account
// must be indistinguishable to the caller.
func TestLogin_FailuresAreIdentical(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, &model.User{Email: "oauth@example.com", GoogleID: "g1", DisplayName: "O"}); err != nil {
		t.Fatal(err)
	}

	cases := map[string][2]string{
		"unknown email":  {"nobody@example.com", "correct-horse"},
		"wrong password": {"ada@example.com", "wrong-horse"},
		"oauth account":  {"oauth@example.com", "anything"},
	}

	var messages []string
	for name, c := range cases {
		_, err := svc.Login(ctx, c[0], c[1])
		if !errors.Is(err, apperror.ErrValidation) {
			t.Fatalf("%s: Login() error = %v, want ErrValidation", name, err)
		}
		var appErr *apperror.AppError
		errors.As(err, &appErr)
		if appErr.Field != "" {
			t.Errorf("%s: Field = %q, must not point at a field", name, appErr.Field)
		}
		messages = append(messages, err.Error())
	}
	for _, m := range messages {
		if m != MsgInvalidCredentials {
			t.Errorf("message = %q, want %q", m, MsgInvalidCredentials)
		}
	}
}

func TestLogin_Validation(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Login(context.Background(), "", "pw"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing email: error = %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@example.com", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing password: error = %v", err)
	}
}

// =========================================================================
// SignInWithProvider TESTS
// =========================================================================

func TestSignInWithProvider(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.SignInWithProvider(context.Background(), &auth.Profile{
		Provider:    model.ProviderGitHub,
		ID:          "42",
		Email:       "octo@example.com",
		DisplayName: "Octo Cat",
	})
	if err != nil {
		t.Fatalf("SignInWithProvider() error = %v", err)
	}
	if result.User.GitHubID != "42" || result.Token == "" {
		t.Errorf("result = %+v", result)
	}
}

func TestSignInWithProvider_StoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = errors.New("db down")
	svc := newTestAuthService(t, repo)

	_, err := svc.SignInWithProvider(context.Background(), &auth.Profile{Provider: model.ProviderGoogle, ID: "g"})
	if err == nil {
		t.Fatal("SignInWithProvider() should fail when the store is down")
	}
}

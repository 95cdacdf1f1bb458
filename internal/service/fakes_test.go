package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// It enforces the same UNIQUE rules as the real schema so conflict paths
// can be exercised.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User // keyed by internal ID
	order  []string               // insertion order, for ListUsers
	nextID int

	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
	updateErr error
	linkErr   error
	listErr   error

	linkCalls int
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

// taken reports whether another user already holds one of u's unique values.
func (f *fakeUserRepo) taken(u *model.User) bool {
	for id, other := range f.users {
		if id == u.ID {
			continue
		}
		if (u.Email != "" && u.Email == other.Email) ||
			(u.GoogleID != "" && u.GoogleID == other.GoogleID) ||
			(u.GitHubID != "" && u.GitHubID == other.GitHubID) ||
			(u.TelegramID != "" && u.TelegramID == other.TelegramID) {
			return true
		}
	}
	return false
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.taken(user) {
		return apperror.Conflict("user", user.Email)
	}

	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Visibility == "" {
		user.Visibility = model.VisibilityPrivate
	}
	if user.Bio == "" {
		user.Bio = model.DefaultBio
	}

	copied := *user
	f.users[user.ID] = &copied
	f.order = append(f.order, user.ID)
	return nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id }, id)
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email }, email)
}

func (f *fakeUserRepo) GetUserByProviderID(_ context.Context, p model.Provider, id string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ProviderID(p) == id }, id)
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.GoogleID, user.GitHubID, user.TelegramID = stored.GoogleID, stored.GitHubID, stored.TelegramID
	if f.taken(user) {
		return apperror.Conflict("user", user.Email)
	}
	user.UpdatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) LinkProvider(_ context.Context, userID string, p model.Provider, providerID, first, last string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, apperror.NotFound("user", userID)
	}
	probe := *u
	probe.SetProviderID(p, providerID)
	if f.taken(&probe) {
		return nil, apperror.Conflict("user", providerID)
	}
	u.SetProviderID(p, providerID)
	if first != "" {
		u.FirstName = first
	}
	if last != "" {
		u.LastName = last
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context, filter repository.UserFilter, opts repository.ListOptions) ([]model.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var matched []model.User
	for _, id := range f.order {
		u := f.users[id]
		if filter.Visibility != "" && u.Visibility != filter.Visibility {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		matched = append(matched, *u)
	}
	return window(matched, opts), len(matched), nil
}

func (f *fakeUserRepo) Ping(context.Context) error { return nil }

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeQuickSaveRepo is an in-memory repository.QuickSaveRepository.
type fakeQuickSaveRepo struct {
	saves  []model.QuickSave
	nextID int

	createErr error
	listErr   error
	lastQuery repository.QuickSaveQuery
}

var _ repository.QuickSaveRepository = (*fakeQuickSaveRepo)(nil)

func (f *fakeQuickSaveRepo) CreateQuickSave(_ context.Context, qs *model.QuickSave) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	qs.ID = fmt.Sprintf("qs-%02d", f.nextID)
	qs.CreatedAt = time.Unix(int64(f.nextID), 0)
	qs.UpdatedAt = qs.CreatedAt
	f.saves = append(f.saves, *qs)
	return nil
}

func (f *fakeQuickSaveRepo) ListQuickSaves(_ context.Context, q repository.QuickSaveQuery) ([]model.QuickSave, int, error) {
	f.lastQuery = q
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var matched []model.QuickSave
	for _, qs := range f.saves {
		if qs.UserID != q.UserID {
			continue
		}
		if q.Search != "" && !contentMatches(qs.Content, q.Search) {
			continue
		}
		matched = append(matched, qs)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if q.Desc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return window(matched, q.ListOptions), len(matched), nil
}

func contentMatches(content map[string]any, search string) bool {
	for _, key := range []string{"title", "description"} {
		if s, ok := content[key].(string); ok && strings.Contains(strings.ToLower(s), strings.ToLower(search)) {
			return true
		}
	}
	return false
}

func (f *fakeQuickSaveRepo) DeleteQuickSave(_ context.Context, id, userID string) error {
	for i, qs := range f.saves {
		if qs.ID == id && qs.UserID == userID {
			f.saves = append(f.saves[:i], f.saves[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("quick save", id)
}

// window applies LIMIT/OFFSET to an in-memory slice.
func window[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	end := opts.Offset + opts.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[opts.Offset:end]
}

// fakeStore records what AssetService forwards to the media host.
type fakeStore struct {
	err      error
	key      string
	body     []byte
	size     int64
	stagedAt string // name of the reader if it was a file
}

func (f *fakeStore) Put(_ context.Context, key string, r io.Reader, size int64, _ string) (string, error) {
	if named, ok := r.(interface{ Name() string }); ok {
		f.stagedAt = named.Name()
	}
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.size = size
	f.body, _ = io.ReadAll(r)
	return "https://media.example.com/assets/" + key, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", "test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// bcrypt.MinCost keeps hashing fast in tests.
func newTestPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceForTest(4, "test-salt")
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	logger := testLogger()
	return NewAuthService(repo, NewIdentityService(repo, logger), newTestTokens(t), newTestPasswords(), logger)
}

func newTestUserService(t *testing.T, repo *fakeUserRepo) *UserService {
	t.Helper()
	return NewUserService(repo, newTestTokens(t), newTestPasswords(), testLogger())
}

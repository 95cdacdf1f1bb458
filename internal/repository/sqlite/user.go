package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/social-auth/internal/apperror"
	"github.com/sakif/social-auth/internal/model"
	"github.com/sakif/social-auth/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, google_id, github_id, telegram_id, email, display_name,
	first_name, last_name, image, visibility, role, password_hash, bio,
	created_at, updated_at`

// providerColumn maps a provider to its id column. Column names can't be
// bound as ? parameters, so only these whitelisted values reach the SQL.
func providerColumn(p model.Provider) (string, error) {
	switch p {
	case model.ProviderGoogle:
		return "google_id", nil
	case model.ProviderGitHub:
		return "github_id", nil
	case model.ProviderTelegram:
		return "telegram_id", nil
	}
	return "", fmt.Errorf("sqlite: unknown provider %q", p)
}

// scanUser reads one row selected with userColumns. The nullable columns
// come back as sql.NullString and are flattened to "" when NULL.
func scanUser(row scanner) (*model.User, error) {
	var u model.User
	var googleID, githubID, telegramID, email, passwordHash sql.NullString
	err := row.Scan(
		&u.ID,
		&googleID,
		&githubID,
		&telegramID,
		&email,
		&u.DisplayName,
		&u.FirstName,
		&u.LastName,
		&u.Image,
		&u.Visibility,
		&u.Role,
		&passwordHash,
		&u.Bio,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GoogleID = googleID.String
	u.GitHubID = githubID.String
	u.TelegramID = telegramID.String
	u.Email = email.String
	u.PasswordHash = passwordHash.String
	return &u, nil
}

// CreateUser inserts a new user. ID and timestamps are generated here and
// written back into user; empty Visibility, Role and Bio get their defaults.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Visibility == "" {
		user.Visibility = model.VisibilityPrivate
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Bio == "" {
		user.Bio = model.DefaultBio
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		nullable(user.GoogleID),
		nullable(user.GitHubID),
		nullable(user.TelegramID),
		nullable(user.Email),
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.Image,
		user.Visibility,
		user.Role,
		nullable(user.PasswordHash),
		user.Bio,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

func (db *DB) GetUserByProviderID(ctx context.Context, provider model.Provider, providerID string) (*model.User, error) {
	col, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+col+` = ?`, providerID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", providerID)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", col, err)
	}
	return u, nil
}

// UpdateUser writes the profile columns. Provider ids belong to LinkProvider
// and are never written here; their current values are read back into user.
// id and created_at never change.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	var googleID, githubID, telegramID sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`UPDATE users
		 SET email = ?, display_name = ?, first_name = ?, last_name = ?, image = ?,
		     visibility = ?, role = ?, password_hash = ?, bio = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING google_id, github_id, telegram_id`,
		nullable(user.Email),
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.Image,
		user.Visibility,
		user.Role,
		nullable(user.PasswordHash),
		user.Bio,
		user.UpdatedAt,
		user.ID,
	).Scan(&googleID, &githubID, &telegramID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperror.NotFound("user", user.ID)
	case err != nil && isUniqueViolation(err):
		return apperror.Conflict("user", user.Email)
	case err != nil:
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	user.GoogleID, user.GitHubID, user.TelegramID = googleID.String, githubID.String, telegramID.String
	return nil
}

// LinkProvider attaches providerID to an existing account with a targeted
// UPDATE, so nothing else the account holds (other provider ids, the
// password hash) can be clobbered by a stale read.
func (db *DB) LinkProvider(ctx context.Context, userID string, provider model.Provider, providerID, firstName, lastName string) (*model.User, error) {
	col, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET `+col+` = ?,
		     first_name = CASE WHEN ? = '' THEN first_name ELSE ? END,
		     last_name  = CASE WHEN ? = '' THEN last_name ELSE ? END,
		     updated_at = ?
		 WHERE id = ?`,
		providerID,
		firstName, firstName,
		lastName, lastName,
		time.Now().UTC(),
		userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user", providerID)
		}
		return nil, fmt.Errorf("sqlite: linking %s to user %s: %w", col, userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("user", userID)
	}

	return db.GetUserByID(ctx, userID)
}

// ListUsers returns one page of users matching filter, oldest first, and
// the total number of matches.
func (db *DB) ListUsers(ctx context.Context, filter repository.UserFilter, opts repository.ListOptions) ([]model.User, int, error) {
	limit, offset := clamp(opts.Limit, opts.Offset, 10, repository.MaxLimit)

	var (
		conds []string
		args  []any
	)
	if filter.Visibility != "" {
		conds = append(conds, "visibility = ?")
		args = append(args, filter.Visibility)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting users: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+where+`
		 ORDER BY created_at ASC, id ASC
		 LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing users: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, total, nil
}

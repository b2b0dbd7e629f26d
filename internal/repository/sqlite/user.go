package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user. Email and username are each checked before the
// INSERT so the caller gets a precise conflict message rather than a raw
// UNIQUE-constraint failure. The UNIQUE constraints remain the real
// authority: a race between the check and the insert still fails safely.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	var exists int

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, user.Email,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking email %s: %w", user.Email, err)
	}
	if exists > 0 {
		return apperror.Conflict("email", user.Email)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?`, user.Username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking username %s: %w", user.Username, err)
	}
	if exists > 0 {
		return apperror.Conflict("username", user.Username)
	}

	user.ID = xid.New().String()
	user.IsActive = true
	user.CreatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, github_id, avatar_url, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.GitHubID,
		user.AvatarURL,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByEmail returns the user with the given identity key.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `email = ?`, email)
}

// GetUserByID returns the user with the given internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `id = ?`, id)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, github_id, avatar_url, is_active, created_at
		 FROM users WHERE `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.GitHubID,
		&u.AvatarURL,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%v", arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}
	return &u, nil
}

// UpsertGitHubUser inserts a user on first GitHub sign-in, or refreshes their
// profile (username/avatar can change on GitHub) on subsequent logins. The
// GitHub account ID is the stable key; the internal ID never changes once
// assigned.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, avatar_url = ? WHERE id = ?`,
			user.Username,
			user.AvatarURL,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating github user %s: %w", user.ID, err)
		}
		return nil
	}

	user.ID = xid.New().String()
	user.IsActive = true
	user.CreatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, github_id, avatar_url, is_active, created_at)
		 VALUES (?, ?, ?, '', ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.GitHubID,
		user.AvatarURL,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting github user (githubID=%d): %w", user.GitHubID, err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, login, email, password_hash, github_id, avatar_url, created_at, updated_at`

// CreateUser inserts a new password-based account. A taken login surfaces as
// apperror.ErrConflict so the registration form can report it.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now()
	u.ID = xid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Login,
		u.Email,
		u.PasswordHash,
		u.GitHubID,
		u.AvatarURL,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict("user", u.Login)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", u.Login, err)
	}

	return nil
}

// isConstraintViolation reports whether err is a SQLITE_CONSTRAINT failure
// (unique login, unique github_id). The driver's typed error carries the
// extended result code; masking to the primary code covers every constraint
// subtype.
func isConstraintViolation(err error) bool {
	var se *sqlite3.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3lib.SQLITE_CONSTRAINT
}

// GetUserByID retrieves a user by their internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `id = ?`, id)
}

// GetUserByLogin retrieves a user by login name, for the login form.
func (db *DB) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	return db.getUser(ctx, `login = ?`, login)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Login,
		&u.Email,
		&u.PasswordHash,
		&u.GitHubID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}

// UpsertGitHubUser inserts or refreshes an account keyed by GitHub ID.
// An existing account keeps its internal ID; the profile fields are updated
// in case the login, email, or avatar changed on GitHub.
//
// Login collisions with password accounts are possible (a GitHub user named
// like a registered login); we suffix the GitHub numeric ID in that case.
func (db *DB) UpsertGitHubUser(ctx context.Context, u *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ? AND github_id != 0`, u.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", u.GitHubID, err)
	}

	if existingID != "" {
		u.ID = existingID
		u.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			u.Email,
			u.AvatarURL,
			u.UpdatedAt,
			u.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", u.ID, err)
		}
		return nil
	}

	err = db.CreateUser(ctx, u)
	if errors.Is(err, apperror.ErrConflict) {
		// A password account already holds this login name. Disambiguate
		// with the stable GitHub numeric ID and retry once.
		u.Login = fmt.Sprintf("%s-gh%d", u.Login, u.GitHubID)
		err = db.CreateUser(ctx, u)
	}
	return err
}

// usersByIDs loads a set of users in one query, keyed by ID. Duplicate IDs
// in the input are fine.
func (db *DB) usersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return map[string]*model.User{}, nil
	}

	query := fmt.Sprintf(
		`SELECT `+userColumns+` FROM users WHERE id IN (%s)`,
		placeholders(len(unique)),
	)

	rows, err := db.conn.QueryContext(ctx, query, toAnySlice(unique)...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading users: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*model.User, len(unique))
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Login, &u.Email, &u.PasswordHash, &u.GitHubID,
			&u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		result[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return result, nil
}

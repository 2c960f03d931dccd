package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository"
)

// compile-time check that *DB implements repository.BirthdayRepository
var _ repository.BirthdayRepository = (*DB)(nil)

// DefaultPageSize caps list queries when the caller passes no limit.
const DefaultPageSize = 10

// CreateBirthday inserts a new birthday and its tag links.
// The caller's struct gets the generated ID and timestamps filled in.
func (db *DB) CreateBirthday(ctx context.Context, b *model.Birthday, tagIDs []string) error {
	b.ID = xid.New().String()

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO birthdays (id, first_name, last_name, birth_date, description,
		                        author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.FirstName,
		b.LastName,
		b.BirthDate,
		b.Description,
		b.AuthorID,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating birthday: %w", err)
	}

	if err := replaceTagLinks(ctx, tx, b.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing birthday create: %w", err)
	}
	return nil
}

// GetBirthdayByID retrieves a single birthday with its author and tags.
func (db *DB) GetBirthdayByID(ctx context.Context, id string) (*model.Birthday, error) {
	var b model.Birthday

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, birth_date, description, author_id,
		        created_at, updated_at
		 FROM birthdays
		 WHERE id = ?`,
		id,
	).Scan(
		&b.ID,
		&b.FirstName,
		&b.LastName,
		&b.BirthDate,
		&b.Description,
		&b.AuthorID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("birthday", id)
		}
		return nil, fmt.Errorf("sqlite: getting birthday %s: %w", id, err)
	}

	page := []model.Birthday{b}
	if err := db.attachRelations(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// ListBirthdays retrieves a page of birthdays ordered by id ascending, with
// authors and tags attached. The whole call costs three queries regardless
// of page size.
func (db *DB) ListBirthdays(ctx context.Context, opts repository.ListOptions) ([]model.Birthday, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, first_name, last_name, birth_date, description, author_id,
		        created_at, updated_at
		 FROM birthdays
		 ORDER BY id ASC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing birthdays: %w", err)
	}
	defer rows.Close()

	birthdays := make([]model.Birthday, 0, limit)
	for rows.Next() {
		var b model.Birthday
		if err := rows.Scan(
			&b.ID, &b.FirstName, &b.LastName, &b.BirthDate, &b.Description,
			&b.AuthorID, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning birthday row: %w", err)
		}
		birthdays = append(birthdays, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating birthdays: %w", err)
	}

	if err := db.attachRelations(ctx, birthdays); err != nil {
		return nil, err
	}
	return birthdays, nil
}

// CountBirthdays returns the total number of birthday records, for the
// pagination controls on the list page.
func (db *DB) CountBirthdays(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM birthdays`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting birthdays: %w", err)
	}
	return count, nil
}

// UpdateBirthday modifies an existing birthday and replaces its tag links.
// The author_id column is deliberately absent from the SET clause; authorship
// never changes after creation.
func (db *DB) UpdateBirthday(ctx context.Context, b *model.Birthday, tagIDs []string) error {
	b.UpdatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE birthdays
		 SET first_name = ?, last_name = ?, birth_date = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		b.FirstName,
		b.LastName,
		b.BirthDate,
		b.Description,
		b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating birthday %s: %w", b.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("birthday", b.ID)
	}

	if err := replaceTagLinks(ctx, tx, b.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing birthday update: %w", err)
	}
	return nil
}

// DeleteBirthday removes a birthday. The ON DELETE CASCADE constraints take
// its congratulations and tag links with it.
func (db *DB) DeleteBirthday(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM birthdays WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting birthday %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("birthday", id)
	}

	return nil
}

// attachRelations batch-loads authors and tags for a slice of birthdays:
// one query for all authors, one for all tag links. This is the explicit
// version of ORM eager loading and avoids a query per row.
func (db *DB) attachRelations(ctx context.Context, birthdays []model.Birthday) error {
	if len(birthdays) == 0 {
		return nil
	}

	ids := make([]string, 0, len(birthdays))
	authorIDs := make([]string, 0, len(birthdays))
	for i := range birthdays {
		ids = append(ids, birthdays[i].ID)
		authorIDs = append(authorIDs, birthdays[i].AuthorID)
	}

	authors, err := db.usersByIDs(ctx, authorIDs)
	if err != nil {
		return err
	}

	tagsByBirthday, err := db.tagsForBirthdays(ctx, ids)
	if err != nil {
		return err
	}

	for i := range birthdays {
		if author, ok := authors[birthdays[i].AuthorID]; ok {
			birthdays[i].Author = author
		}
		birthdays[i].Tags = tagsByBirthday[birthdays[i].ID]
	}
	return nil
}

// tagsForBirthdays loads the tags of every birthday in ids with one query.
func (db *DB) tagsForBirthdays(ctx context.Context, ids []string) (map[string][]model.Tag, error) {
	query := fmt.Sprintf(
		`SELECT bt.birthday_id, t.id, t.label
		 FROM birthday_tags bt
		 JOIN tags t ON t.id = bt.tag_id
		 WHERE bt.birthday_id IN (%s)
		 ORDER BY t.label ASC`,
		placeholders(len(ids)),
	)

	rows, err := db.conn.QueryContext(ctx, query, toAnySlice(ids)...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading birthday tags: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.Tag)
	for rows.Next() {
		var birthdayID string
		var tag model.Tag
		if err := rows.Scan(&birthdayID, &tag.ID, &tag.Label); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		result[birthdayID] = append(result[birthdayID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tag rows: %w", err)
	}
	return result, nil
}

// replaceTagLinks rewrites the birthday_tags rows for one birthday inside
// the caller's transaction.
func replaceTagLinks(ctx context.Context, tx *sql.Tx, birthdayID string, tagIDs []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM birthday_tags WHERE birthday_id = ?`, birthdayID,
	); err != nil {
		return fmt.Errorf("sqlite: clearing tag links: %w", err)
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO birthday_tags (birthday_id, tag_id) VALUES (?, ?)`,
			birthdayID, tagID,
		); err != nil {
			return fmt.Errorf("sqlite: linking tag %s: %w", tagID, err)
		}
	}
	return nil
}

// placeholders returns "?, ?, ..., ?" with n placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toAnySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository"
)

// compile-time check that *DB implements repository.CongratulationRepository
var _ repository.CongratulationRepository = (*DB)(nil)

// CreateCongratulation inserts a new comment. AuthorID and BirthdayID must
// already be set by the caller; the foreign key constraint rejects a
// congratulation pointing at a birthday that no longer exists.
func (db *DB) CreateCongratulation(ctx context.Context, c *model.Congratulation) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO congratulations (id, text, author_id, birthday_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID,
		c.Text,
		c.AuthorID,
		c.BirthdayID,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating congratulation: %w", err)
	}

	return nil
}

// ListCongratulations returns every comment on a birthday in creation order,
// with authors attached in a second batched query.
func (db *DB) ListCongratulations(ctx context.Context, birthdayID string) ([]model.Congratulation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, text, author_id, birthday_id, created_at
		 FROM congratulations
		 WHERE birthday_id = ?
		 ORDER BY created_at ASC, id ASC`,
		birthdayID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing congratulations: %w", err)
	}
	defer rows.Close()

	var congrats []model.Congratulation
	authorIDs := make([]string, 0, 8)
	for rows.Next() {
		var c model.Congratulation
		if err := rows.Scan(&c.ID, &c.Text, &c.AuthorID, &c.BirthdayID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning congratulation row: %w", err)
		}
		congrats = append(congrats, c)
		authorIDs = append(authorIDs, c.AuthorID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating congratulations: %w", err)
	}

	if len(congrats) == 0 {
		return congrats, nil
	}

	authors, err := db.usersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	for i := range congrats {
		if author, ok := authors[congrats[i].AuthorID]; ok {
			congrats[i].Author = author
		}
	}

	return congrats, nil
}

// Package jokes provides the SQL-backed store for joke records.
package jokes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/dbx"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
)

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Count returns the number of stored jokes.
func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jokes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// FindMany returns at most limit jokes after skipping skip rows.
// Ties on created_at are broken by id so paging is stable.
func (r *SQLRepository) FindMany(ctx context.Context, limit, skip int, order Order) ([]*models.Joke, error) {
	orderBy := "created_at DESC, id DESC"
	if order == OrderCreatedAsc {
		orderBy = "created_at ASC, id ASC"
	}

	query := `SELECT id, name, content, owner_id, created_at FROM jokes
		ORDER BY ` + orderBy + `
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Joke
	for rows.Next() {
		j, err := scanJoke(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// FindByID returns common.ErrorNotFound when no joke has the given id.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Joke, error) {
	query := `SELECT id, name, content, owner_id, created_at FROM jokes
		WHERE id = $1`

	j, err := scanJoke(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return j, nil
}

// Create inserts joke as-is; the caller assigns ID, OwnerID and CreatedAt.
func (r *SQLRepository) Create(ctx context.Context, joke *models.Joke) (*models.Joke, error) {
	query := `INSERT INTO jokes (id, name, content, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	owner := sql.NullString{String: joke.OwnerID, Valid: joke.OwnerID != ""}
	if _, err := r.db.ExecContext(ctx, query, joke.ID, joke.Name, joke.Content, owner, joke.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return joke, nil
}

// Delete removes the joke. Deleting a missing id is common.ErrorNotFound,
// which is what a losing concurrent delete observes.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jokes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJoke(s scanner) (*models.Joke, error) {
	var (
		j     models.Joke
		owner sql.NullString
	)
	if err := s.Scan(&j.ID, &j.Name, &j.Content, &owner, &j.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	j.OwnerID = owner.String
	return &j, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kdimtricp/cineck/internal/models"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const searchCountColumns = `id, search_term, count, movie_id, title, poster_url, created_at, updated_at`

// ListOptions filters List. An empty Term lists every record.
type ListOptions struct {
	Term  string
	Limit int
}

type SearchCountRepo struct {
	db *DB
}

func NewSearchCountRepo(db *DB) *SearchCountRepo {
	return &SearchCountRepo{db: db}
}

func (r *SearchCountRepo) Create(ctx context.Context, sc *models.SearchCount) error {
	query := r.db.rebind(`
		INSERT INTO search_counts (` + searchCountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.conn.ExecContext(ctx, query,
		sc.ID,
		sc.SearchTerm,
		sc.Count,
		sc.MovieID,
		sc.Title,
		sc.PosterURL,
		sc.CreatedAt,
		sc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("search term %q: %w", sc.SearchTerm, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert search count: %w", err)
	}
	return nil
}

// FindByTerm matches the term exactly, case included.
func (r *SearchCountRepo) FindByTerm(ctx context.Context, term string) (*models.SearchCount, error) {
	query := r.db.rebind(`SELECT ` + searchCountColumns + ` FROM search_counts WHERE search_term = ?`)

	sc, err := scanSearchCount(r.db.conn.QueryRowContext(ctx, query, term))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search count: %w", err)
	}
	return sc, nil
}

// Increment bumps the count of the record with the given id by one.
func (r *SearchCountRepo) Increment(ctx context.Context, id string) error {
	query := r.db.rebind(`UPDATE search_counts SET count = count + 1, updated_at = ? WHERE id = ?`)

	result, err := r.db.conn.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to increment search count: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to increment search count: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records ordered by count, highest first.
func (r *SearchCountRepo) List(ctx context.Context, opts ListOptions) ([]models.SearchCount, error) {
	query := `SELECT ` + searchCountColumns + ` FROM search_counts`
	var args []any
	if opts.Term != "" {
		query += ` WHERE search_term = ?`
		args = append(args, opts.Term)
	}
	query += ` ORDER BY count DESC, updated_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list search counts: %w", err)
	}
	defer rows.Close()

	counts := []models.SearchCount{}
	for rows.Next() {
		sc, err := scanSearchCount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search count: %w", err)
		}
		counts = append(counts, *sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

func (r *SearchCountRepo) Top(ctx context.Context, limit int) ([]models.SearchCount, error) {
	return r.List(ctx, ListOptions{Limit: limit})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearchCount(row rowScanner) (*models.SearchCount, error) {
	var sc models.SearchCount
	err := row.Scan(
		&sc.ID,
		&sc.SearchTerm,
		&sc.Count,
		&sc.MovieID,
		&sc.Title,
		&sc.PosterURL,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

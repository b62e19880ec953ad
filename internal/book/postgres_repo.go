package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const bookColumns = `isbn, amazon_url, author, language, pages, publisher, title, year`

type PostgresRepo struct {
	db      DB
	timeout time.Duration
}

func NewPostgresRepo(db DB, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ISBN, &b.AmazonURL, &b.Author, &b.Language, &b.Pages, &b.Publisher, &b.Title, &b.Year)
	return b, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books ORDER BY isbn`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book %s: %w", isbn, err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b Book) (Book, error) {
	const query = `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	created, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		b.ISBN, b.AmazonURL, b.Author, b.Language, b.Pages, b.Publisher, b.Title, b.Year,
	))
	if err != nil {
		return Book{}, fmt.Errorf("create book %s: %w", b.ISBN, err)
	}
	return created, nil
}

func (r *PostgresRepo) Update(ctx context.Context, b Book) (Book, error) {
	const query = `
		UPDATE books
		SET amazon_url = $2, author = $3, language = $4, pages = $5, publisher = $6, title = $7, year = $8
		WHERE isbn = $1
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	updated, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		b.ISBN, b.AmazonURL, b.Author, b.Language, b.Pages, b.Publisher, b.Title, b.Year,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("update book %s: %w", b.ISBN, err)
	}
	return updated, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, isbn string) error {
	const query = `DELETE FROM books WHERE isbn = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, isbn)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", isbn, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

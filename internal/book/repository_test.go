package book

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"booksapi/db"
	"booksapi/internal/platform/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepository runs the behavior every Repository implementation must share.
func testRepository(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		books, err := newRepo(t).List(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("create then get", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, sampleBook)
		require.NoError(t, err)
		assert.Equal(t, sampleBook, created)

		got, err := repo.GetByISBN(ctx, sampleBook.ISBN)
		require.NoError(t, err)
		assert.Equal(t, sampleBook, got)
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, sampleBook)
		require.NoError(t, err)

		_, err = repo.Create(ctx, sampleBook)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("list is ordered by isbn", func(t *testing.T) {
		repo := newRepo(t)
		later := sampleBook
		later.ISBN = "9876543210"
		_, err := repo.Create(ctx, later)
		require.NoError(t, err)
		_, err = repo.Create(ctx, sampleBook)
		require.NoError(t, err)

		books, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, sampleBook.ISBN, books[0].ISBN)
		assert.Equal(t, later.ISBN, books[1].ISBN)
	})

	t.Run("update replaces every column", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, sampleBook)
		require.NoError(t, err)

		changed := Book{
			ISBN:      sampleBook.ISBN,
			AmazonURL: "http://a.co/other",
			Author:    "Jane Roe",
			Language:  "english",
			Pages:     100,
			Publisher: "Other House",
			Title:     "How to be a better person",
			Year:      2010,
		}
		updated, err := repo.Update(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, changed, updated)

		got, err := repo.GetByISBN(ctx, sampleBook.ISBN)
		require.NoError(t, err)
		assert.Equal(t, changed, got)
	})

	t.Run("missing rows", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByISBN(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		missing := sampleBook
		missing.ISBN = "missing"
		_, err = repo.Update(ctx, missing)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, sampleBook)
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, sampleBook.ISBN))

		_, err = repo.GetByISBN(ctx, sampleBook.ISBN)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newRepo(t).Ping(ctx))
	})
}

func TestMemoryRepo(t *testing.T) {
	testRepository(t, func(t *testing.T) Repository {
		repo, err := NewMemoryRepo()
		require.NoError(t, err)
		return repo
	})
}

func TestMemoryRepo_CanceledContext(t *testing.T) {
	repo, err := NewMemoryRepo()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repo.Create(ctx, sampleBook)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Ping(ctx), context.Canceled)
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	repo, err := NewMemoryRepo()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = repo.Create(ctx, sampleBook)
	require.NoError(t, err)

	books, err := repo.List(ctx)
	require.NoError(t, err)
	books[0].Title = "mutated"

	got, err := repo.GetByISBN(ctx, sampleBook.ISBN)
	require.NoError(t, err)
	assert.Equal(t, sampleBook.Title, got.Title)
}

// TestPostgresRepo needs a disposable database; set TEST_DB_DSN to run it.
func TestPostgresRepo(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, db.Migrations, db.MigrationsDir))

	testRepository(t, func(t *testing.T) Repository {
		_, err := pool.Exec(ctx, `TRUNCATE books`)
		require.NoError(t, err)
		return NewPostgresRepo(pool, 3*time.Second)
	})
}

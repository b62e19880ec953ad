package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context) ([]Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	Create(ctx context.Context, b Book) (Book, error)
	// Update replaces every column of the row keyed by b.ISBN.
	Update(ctx context.Context, b Book) (Book, error)
	Delete(ctx context.Context, isbn string) error
	Ping(ctx context.Context) error
}

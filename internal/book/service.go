package book

import (
	"context"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every stored book.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// GetByISBN returns a book by its ISBN.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

// Create validates body and stores it as a new book.
func (s *Service) Create(ctx context.Context, body []byte) (Book, error) {
	b, err := ParseBook(body)
	if err != nil {
		return Book{}, err
	}
	return s.repo.Create(ctx, b)
}

// Update validates body and replaces the book stored under isbn.
// The body must carry the same isbn as the path.
func (s *Service) Update(ctx context.Context, isbn string, body []byte) (Book, error) {
	b, err := ParseBook(body)
	if err != nil {
		return Book{}, err
	}
	if b.ISBN != isbn {
		return Book{}, invalid("isbn", "must match the ISBN in the path")
	}
	return s.repo.Update(ctx, b)
}

// Delete removes the book stored under isbn.
func (s *Service) Delete(ctx context.Context, isbn string) error {
	return s.repo.Delete(ctx, isbn)
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

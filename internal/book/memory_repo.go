package book

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const booksTable = "books"

// MemoryRepo keeps books in an in-process go-memdb database. Rows are lost on restart.
type MemoryRepo struct {
	db *memdb.MemDB
}

func NewMemoryRepo() (*MemoryRepo, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			booksTable: {
				Name: booksTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ISBN"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("initialize in-memory store: %w", err)
	}
	return &MemoryRepo{db: db}, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(booksTable, "id")
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	out := []Book{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *obj.(*Book))
	}
	return out, nil
}

func (r *MemoryRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	txn := r.db.Txn(false)
	defer txn.Abort()
	return first(txn, isbn)
}

func first(txn *memdb.Txn, isbn string) (Book, error) {
	obj, err := txn.First(booksTable, "id", isbn)
	if err != nil {
		return Book{}, fmt.Errorf("get book %s: %w", isbn, err)
	}
	if obj == nil {
		return Book{}, ErrNotFound
	}
	return *obj.(*Book), nil
}

func (r *MemoryRepo) Create(ctx context.Context, b Book) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(booksTable, "id", b.ISBN)
	if err != nil {
		return Book{}, fmt.Errorf("create book %s: %w", b.ISBN, err)
	}
	if existing != nil {
		return Book{}, fmt.Errorf("create book %s: duplicate key", b.ISBN)
	}

	row := b
	if err := txn.Insert(booksTable, &row); err != nil {
		return Book{}, fmt.Errorf("create book %s: %w", b.ISBN, err)
	}
	txn.Commit()
	return row, nil
}

func (r *MemoryRepo) Update(ctx context.Context, b Book) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	if _, err := first(txn, b.ISBN); err != nil {
		return Book{}, err
	}

	row := b
	if err := txn.Insert(booksTable, &row); err != nil {
		return Book{}, fmt.Errorf("update book %s: %w", b.ISBN, err)
	}
	txn.Commit()
	return row, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, isbn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	n, err := txn.DeleteAll(booksTable, "id", isbn)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", isbn, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	txn.Commit()
	return nil
}

func (r *MemoryRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

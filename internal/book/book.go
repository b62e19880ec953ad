package book

import (
	"errors"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Book represents a book entity. ISBN is the primary key.
type Book struct {
	ISBN      string `json:"isbn"`
	AmazonURL string `json:"amazon_url"`
	Author    string `json:"author"`
	Language  string `json:"language"`
	Pages     int    `json:"pages"`
	Publisher string `json:"publisher"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"booksapi/internal/book"
	"booksapi/internal/config"
	"booksapi/internal/logger"
	"booksapi/internal/platform/database"

	"github.com/sirupsen/logrus"
)

var sampleBooks = []book.Book{
	{
		ISBN:      "0123456789",
		AmazonURL: "http://a.co/test",
		Author:    "John Doe",
		Language:  "russian",
		Pages:     222,
		Publisher: "Springboard",
		Title:     "How to be a good person",
		Year:      2000,
	},
	{
		ISBN:      "0691161518",
		AmazonURL: "http://a.co/eobPtX2",
		Author:    "Matthew Lane",
		Language:  "english",
		Pages:     264,
		Publisher: "Princeton University Press",
		Title:     "Power-Up: Unlocking the Hidden Mathematics in Video Games",
		Year:      2017,
	},
	{
		ISBN:      "9780262033848",
		AmazonURL: "http://a.co/d/clrs3",
		Author:    "Thomas H. Cormen",
		Language:  "english",
		Pages:     1312,
		Publisher: "MIT Press",
		Title:     "Introduction to Algorithms",
		Year:      2009,
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Environment: cfg.Environment})

	ctx := context.Background()
	pool, err := database.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	inserted, err := seed(ctx, book.NewPostgresRepo(pool, cfg.DBTimeout), sampleBooks, log)
	if err != nil {
		log.WithError(err).Error("seeding failed")
		pool.Close()
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{"inserted": inserted, "total": len(sampleBooks)}).Info("seed complete")
}

// seed inserts every book whose ISBN is not stored yet and reports how many were inserted.
func seed(ctx context.Context, repo book.Repository, books []book.Book, log logrus.FieldLogger) (int, error) {
	inserted := 0
	for _, b := range books {
		_, err := repo.GetByISBN(ctx, b.ISBN)
		switch {
		case err == nil:
			log.WithField("isbn", b.ISBN).Debug("book already present, skipping")
			continue
		case !errors.Is(err, book.ErrNotFound):
			return inserted, err
		}

		if _, err := repo.Create(ctx, b); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

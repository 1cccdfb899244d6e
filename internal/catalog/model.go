package catalog

import "time"

// Book is one row of the books table.
type Book struct {
	BookID          int64
	Title           string
	Author          string
	ISBN            string
	PublishedYear   int
	Genre           string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

// BookCounts is the slice of a book row the ledger operates on.
type BookCounts struct {
	BookID          int64
	Title           string
	TotalCopies     int
	AvailableCopies int
}

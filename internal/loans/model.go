package loans

import (
	"database/sql"
	"time"
)

// Loan is one row of the loans table. A loan is active while ReturnDate is
// NULL and transitions exactly once to returned.
type Loan struct {
	LoanID     int64
	LoanULID   string
	BookID     int64
	BorrowerID int64
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
}

// LoanDetail is a loan joined with its book title and borrower name for
// display. The names are a read convenience, not a stored fact.
type LoanDetail struct {
	Loan
	BookTitle    string
	BorrowerName string
}

type BookSummary struct {
	BookID          int64
	Title           string
	AvailableCopies int
}

type BorrowerSummary struct {
	BorrowerID int64
	Name       string
}

// LoanFilter narrows the projection queries. AsOf is the overdue cut-off.
type LoanFilter struct {
	BorrowerID  *int64
	OnlyOverdue bool
	AsOf        time.Time
}

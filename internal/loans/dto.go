package loans

import "time"

// ===== Requests =====

type IssueLoanRequest struct {
	BookID     int64 `json:"book_id" binding:"required"`
	BorrowerID int64 `json:"borrower_id" binding:"required"`
}

type ReturnLoanRequest struct {
	LoanID int64 `json:"loan_id" binding:"required"`
}

// Return by (book, borrower) pair. Best-effort: when the pair has more than
// one active loan this settles the most recent one; use /loans/return with a
// loan_id to pick a specific loan.
type ReturnByBookRequest struct {
	BookID     int64 `json:"book_id" binding:"required"`
	BorrowerID int64 `json:"borrower_id" binding:"required"`
}

// ===== Responses =====

type LoanDetailsResponse struct {
	LoanID       int64      `json:"loan_id"`
	LoanULID     string     `json:"loan_ulid"`
	BookID       int64      `json:"book_id"`
	BookTitle    string     `json:"book_title"`
	BorrowerID   int64      `json:"borrower_id"`
	BorrowerName string     `json:"borrower_name"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `json:"due_date"`
	// nil serializes as an explicit null while the loan is active
	ReturnDate   *time.Time `json:"return_date"`
}

type ReturnLoanResponse struct {
	Message string              `json:"message"`
	Loan    LoanDetailsResponse `json:"loan"`
}

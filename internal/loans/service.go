package loans

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// ===== Clock & ID =====

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ===== Service =====

// Store is the persistence surface the lifecycle needs. *SQLStore implements
// it against MySQL; tests swap in an in-memory fake. The Exec* methods are
// atomic: the copy-count mutation and the loan row change commit together or
// not at all, and the availability check is re-run under the book row lock.
type Store interface {
	GetBookSummary(ctx context.Context, bookID int64) (*BookSummary, error)             // nil when absent
	GetBorrowerSummary(ctx context.Context, borrowerID int64) (*BorrowerSummary, error) // nil when absent
	ExecIssue(ctx context.Context, l *Loan) error
	ExecReturn(ctx context.Context, loanID int64, returnedAt time.Time) (*LoanDetail, error)
	ExecReturnByPair(ctx context.Context, bookID, borrowerID int64, returnedAt time.Time) (*LoanDetail, error)
	ListLoans(ctx context.Context, f LoanFilter) ([]LoanDetail, error)
}

type Service struct {
	store      Store
	clock      Clock
	id         IDGen
	loanPeriod time.Duration
}

func NewService(db *sql.DB, loanPeriodDays int) *Service {
	return &Service{
		store:      NewSQLStore(db),
		clock:      realClock{},
		id:         ulidGen{},
		loanPeriod: time.Duration(loanPeriodDays) * 24 * time.Hour,
	}
}

// Issue lends one copy of a book to a borrower. Check order: book missing,
// book unavailable, borrower missing. The availability seen here is only a
// fast pre-check; the store re-validates it under the book row lock.
func (s *Service) Issue(ctx context.Context, req IssueLoanRequest) (*LoanDetailsResponse, error) {
	if req.BookID <= 0 || req.BorrowerID <= 0 {
		return nil, ErrInvalid("book_id and borrower_id must be positive")
	}

	book, err := s.store.GetBookSummary(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrNotFound("book not found")
	}
	if book.AvailableCopies <= 0 {
		return nil, ErrUnavailable("book is not available")
	}

	borrower, err := s.store.GetBorrowerSummary(ctx, req.BorrowerID)
	if err != nil {
		return nil, err
	}
	if borrower == nil {
		return nil, ErrNotFound("borrower not found")
	}

	now := s.clock.Now()
	l := &Loan{
		LoanULID:   s.id.NewULID(now),
		BookID:     req.BookID,
		BorrowerID: req.BorrowerID,
		LoanDate:   now,
		DueDate:    now.Add(s.loanPeriod),
	}
	if err := s.store.ExecIssue(ctx, l); err != nil {
		return nil, err
	}

	resp := buildLoanDetailsResponse(&LoanDetail{Loan: *l, BookTitle: book.Title, BorrowerName: borrower.Name})
	return &resp, nil
}

// Return settles a loan by its id. A loan that never existed and a loan
// already returned both surface as not found.
func (s *Service) Return(ctx context.Context, req ReturnLoanRequest) (*ReturnLoanResponse, error) {
	if req.LoanID <= 0 {
		return nil, ErrInvalid("loan_id must be positive")
	}

	d, err := s.store.ExecReturn(ctx, req.LoanID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &ReturnLoanResponse{
		Message: "book returned successfully",
		Loan:    buildLoanDetailsResponse(d),
	}, nil
}

// ReturnByBook settles the most recent active loan for a (book, borrower)
// pair. See ReturnByBookRequest for the disambiguation caveat.
func (s *Service) ReturnByBook(ctx context.Context, req ReturnByBookRequest) (*ReturnLoanResponse, error) {
	if req.BookID <= 0 || req.BorrowerID <= 0 {
		return nil, ErrInvalid("book_id and borrower_id must be positive")
	}

	d, err := s.store.ExecReturnByPair(ctx, req.BookID, req.BorrowerID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &ReturnLoanResponse{
		Message: "book returned successfully",
		Loan:    buildLoanDetailsResponse(d),
	}, nil
}

func (s *Service) ListOverdue(ctx context.Context) ([]LoanDetailsResponse, error) {
	details, err := s.store.ListLoans(ctx, LoanFilter{OnlyOverdue: true, AsOf: s.clock.Now()})
	if err != nil {
		return nil, err
	}
	return buildLoanDetailsList(details), nil
}

func (s *Service) ListAll(ctx context.Context) ([]LoanDetailsResponse, error) {
	details, err := s.store.ListLoans(ctx, LoanFilter{})
	if err != nil {
		return nil, err
	}
	return buildLoanDetailsList(details), nil
}

func (s *Service) ListByBorrower(ctx context.Context, borrowerID int64) ([]LoanDetailsResponse, error) {
	borrower, err := s.store.GetBorrowerSummary(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	if borrower == nil {
		return nil, ErrNotFound("borrower not found")
	}

	details, err := s.store.ListLoans(ctx, LoanFilter{BorrowerID: &borrowerID})
	if err != nil {
		return nil, err
	}
	return buildLoanDetailsList(details), nil
}

// ===== helpers =====

func buildLoanDetailsResponse(d *LoanDetail) LoanDetailsResponse {
	resp := LoanDetailsResponse{
		LoanID:       d.LoanID,
		LoanULID:     d.LoanULID,
		BookID:       d.BookID,
		BookTitle:    d.BookTitle,
		BorrowerID:   d.BorrowerID,
		BorrowerName: d.BorrowerName,
		LoanDate:     d.LoanDate,
		DueDate:      d.DueDate,
	}
	if d.ReturnDate.Valid {
		v := d.ReturnDate.Time
		resp.ReturnDate = &v
	}
	return resp
}

func buildLoanDetailsList(details []LoanDetail) []LoanDetailsResponse {
	out := make([]LoanDetailsResponse, 0, len(details))
	for i := range details {
		out = append(out, buildLoanDetailsResponse(&details[i]))
	}
	return out
}

package loans

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"library-backend/internal/catalog"
	"library-backend/internal/platform/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) GetBookSummary(ctx context.Context, bookID int64) (*BookSummary, error) {
	const q = `SELECT book_id, title, available_copies FROM books WHERE book_id = ?`
	var b BookSummary
	if err := s.db.QueryRowContext(ctx, q, bookID).Scan(&b.BookID, &b.Title, &b.AvailableCopies); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *SQLStore) GetBorrowerSummary(ctx context.Context, borrowerID int64) (*BorrowerSummary, error) {
	const q = `SELECT borrower_id, name FROM borrowers WHERE borrower_id = ?`
	var b BorrowerSummary
	if err := s.db.QueryRowContext(ctx, q, borrowerID).Scan(&b.BorrowerID, &b.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// ExecIssue decrements the book's availability and inserts the loan row in one
// transaction. The availability check runs again under the book row lock, so
// two concurrent issues against the last copy cannot both pass.
func (s *SQLStore) ExecIssue(ctx context.Context, l *Loan) error {
	return db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		counts, err := catalog.LockBook(ctx, tx, l.BookID)
		if err != nil {
			return err
		}
		if counts == nil {
			return ErrNotFound("book not found")
		}
		if counts.AvailableCopies <= 0 {
			return ErrUnavailable("book is not available")
		}

		if err := catalog.DecrementAvailable(ctx, tx, l.BookID); err != nil {
			if err == catalog.ErrNoAvailableCopy {
				return ErrUnavailable("book is not available")
			}
			return err
		}

		const q = `
		INSERT INTO loans (loan_ulid, book_id, borrower_id, loan_date, due_date)
		VALUES (?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q, l.LoanULID, l.BookID, l.BorrowerID, l.LoanDate, l.DueDate)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		l.LoanID = id
		return nil
	})
}

func (s *SQLStore) ExecReturn(ctx context.Context, loanID int64, returnedAt time.Time) (*LoanDetail, error) {
	var out *LoanDetail
	err := db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const q = `
		SELECT loan_id, loan_ulid, book_id, borrower_id, loan_date, due_date, return_date
		FROM loans WHERE loan_id = ? AND return_date IS NULL FOR UPDATE`
		m, err := scanActiveLoan(tx.QueryRowContext(ctx, q, loanID))
		if err != nil {
			return err
		}
		out, err = settleLoan(ctx, tx, m, returnedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecReturnByPair settles the most recent active loan for the pair. Picking
// the newest loan_date keeps the choice deterministic when the pair holds
// more than one active loan.
func (s *SQLStore) ExecReturnByPair(ctx context.Context, bookID, borrowerID int64, returnedAt time.Time) (*LoanDetail, error) {
	var out *LoanDetail
	err := db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const q = `
		SELECT loan_id, loan_ulid, book_id, borrower_id, loan_date, due_date, return_date
		FROM loans WHERE book_id = ? AND borrower_id = ? AND return_date IS NULL
		ORDER BY loan_date DESC LIMIT 1 FOR UPDATE`
		m, err := scanActiveLoan(tx.QueryRowContext(ctx, q, bookID, borrowerID))
		if err != nil {
			return err
		}
		out, err = settleLoan(ctx, tx, m, returnedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanActiveLoan(row *sql.Row) (*Loan, error) {
	var m Loan
	err := row.Scan(&m.LoanID, &m.LoanULID, &m.BookID, &m.BorrowerID, &m.LoanDate, &m.DueDate, &m.ReturnDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound("active loan not found or already returned")
		}
		return nil, err
	}
	return &m, nil
}

// settleLoan flips the loan to returned and gives the copy back to the book,
// inside the caller's transaction. The loan row is already locked.
func settleLoan(ctx context.Context, tx db.DBTX, m *Loan, returnedAt time.Time) (*LoanDetail, error) {
	const uq = `UPDATE loans SET return_date = ? WHERE loan_id = ? AND return_date IS NULL`
	res, err := tx.ExecContext(ctx, uq, returnedAt, m.LoanID)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return nil, ErrNotFound("active loan not found or already returned")
	}
	m.ReturnDate = sql.NullTime{Time: returnedAt, Valid: true}

	counts, err := catalog.LockBook(ctx, tx, m.BookID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		// unreachable under referential integrity
		log.Printf("[ERROR] loan %d references missing book %d", m.LoanID, m.BookID)
		return nil, ErrInternal("associated book not found for the loan")
	}
	if err := catalog.IncrementAvailable(ctx, tx, m.BookID); err != nil {
		if err == catalog.ErrAtTotalCap {
			log.Printf("[ERROR] book %d availability already at total while settling loan %d", m.BookID, m.LoanID)
			return nil, ErrInternal("book availability out of sync")
		}
		return nil, err
	}

	borrowerName := "N/A"
	const bq = `SELECT name FROM borrowers WHERE borrower_id = ?`
	if err := tx.QueryRowContext(ctx, bq, m.BorrowerID).Scan(&borrowerName); err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return &LoanDetail{Loan: *m, BookTitle: counts.Title, BorrowerName: borrowerName}, nil
}

func (s *SQLStore) ListLoans(ctx context.Context, f LoanFilter) ([]LoanDetail, error) {
	// the FK columns go NULL when the book or borrower row is deleted
	sb := strings.Builder{}
	sb.WriteString(`
	SELECT
	l.loan_id, l.loan_ulid, COALESCE(l.book_id, 0), COALESCE(l.borrower_id, 0), l.loan_date, l.due_date, l.return_date,
	COALESCE(b.title, 'N/A'), COALESCE(br.name, 'N/A')
	FROM loans l
	LEFT JOIN books b ON b.book_id = l.book_id
	LEFT JOIN borrowers br ON br.borrower_id = l.borrower_id
	WHERE 1=1`)

	args := []any{}
	if f.BorrowerID != nil {
		sb.WriteString(` AND l.borrower_id = ?`)
		args = append(args, *f.BorrowerID)
	}
	if f.OnlyOverdue {
		sb.WriteString(` AND l.return_date IS NULL AND l.due_date < ?`)
		args = append(args, f.AsOf)
	}
	sb.WriteString(` ORDER BY l.loan_date DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanDetail
	for rows.Next() {
		var d LoanDetail
		if err := rows.Scan(
			&d.LoanID, &d.LoanULID, &d.BookID, &d.BorrowerID, &d.LoanDate, &d.DueDate, &d.ReturnDate,
			&d.BookTitle, &d.BorrowerName,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

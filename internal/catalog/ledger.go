package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"library-backend/internal/platform/db"
)

// The ledger owns the copy-count invariant:
//
//	0 <= available_copies <= total_copies
//	available_copies == total_copies - count(active loans on the book)
//
// The tx-scope helpers below run inside a caller-owned transaction and never
// commit on their own. The loan store pairs every decrement with a loan insert
// and every increment with a loan close in the same transaction.

var (
	ErrNoAvailableCopy = errors.New("no available copy to decrement")
	ErrAtTotalCap      = errors.New("available copies already at total")
)

// LockBook reads the book's copy counts under a row lock. Returns nil when the
// book does not exist.
func LockBook(ctx context.Context, tx db.DBTX, bookID int64) (*BookCounts, error) {
	const q = `SELECT book_id, title, total_copies, available_copies FROM books WHERE book_id = ? FOR UPDATE`
	var c BookCounts
	if err := tx.QueryRowContext(ctx, q, bookID).Scan(&c.BookID, &c.Title, &c.TotalCopies, &c.AvailableCopies); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func DecrementAvailable(ctx context.Context, tx db.DBTX, bookID int64) error {
	const q = `UPDATE books SET available_copies = available_copies - 1 WHERE book_id = ? AND available_copies > 0`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return ErrNoAvailableCopy
	}
	return nil
}

func IncrementAvailable(ctx context.Context, tx db.DBTX, bookID int64) error {
	const q = `UPDATE books SET available_copies = available_copies + 1 WHERE book_id = ? AND available_copies < total_copies`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return ErrAtTotalCap
	}
	return nil
}

// ValidateCopyAdjustment checks an administrative edit of the copy counts
// against the number of copies currently on loan.
func ValidateCopyAdjustment(totalCopies, availableCopies, onLoan int) error {
	if totalCopies < onLoan {
		return ErrCopyAdjustment(fmt.Sprintf("cannot set total copies to %d: %d copies are on loan", totalCopies, onLoan))
	}
	if availableCopies > totalCopies {
		return ErrCopyAdjustment(fmt.Sprintf("available copies (%d) cannot exceed total copies (%d)", availableCopies, totalCopies))
	}
	if availableCopies < 0 {
		return ErrCopyAdjustment(fmt.Sprintf("available copies (%d) cannot be negative", availableCopies))
	}
	return nil
}

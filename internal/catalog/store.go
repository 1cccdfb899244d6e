package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"library-backend/internal/platform/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const bookColumns = `book_id, title, author, isbn, published_year, genre, total_copies, available_copies, created_at`

func scanBook(row *sql.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.BookID, &b.Title, &b.Author, &b.ISBN, &b.PublishedYear, &b.Genre,
		&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *SQLStore) GetByID(ctx context.Context, id int64) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE book_id = ?`
	return scanBook(s.db.QueryRowContext(ctx, q, id))
}

func (s *SQLStore) GetByISBN(ctx context.Context, isbn string) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE isbn = ?`
	return scanBook(s.db.QueryRowContext(ctx, q, isbn))
}

func (s *SQLStore) List(ctx context.Context) ([]Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books ORDER BY book_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.BookID, &b.Title, &b.Author, &b.ISBN, &b.PublishedYear, &b.Genre,
			&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLStore) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(title, author, isbn, published_year, genre, total_copies, available_copies)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.PublishedYear, b.Genre, b.TotalCopies, b.AvailableCopies)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict("a book with this ISBN already exists")
		}
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = id
	return nil
}

// ExecUpdate applies an administrative edit. The book row is locked first so
// the on-loan count cannot change between the validation and the write.
func (s *SQLStore) ExecUpdate(ctx context.Context, b *Book) error {
	return db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		counts, err := LockBook(ctx, tx, b.BookID)
		if err != nil {
			return err
		}
		if counts == nil {
			return ErrNotFound("book not found")
		}

		var onLoan int
		const cq = `SELECT COUNT(*) FROM loans WHERE book_id = ? AND return_date IS NULL`
		if err := tx.QueryRowContext(ctx, cq, b.BookID).Scan(&onLoan); err != nil {
			return err
		}
		if err := ValidateCopyAdjustment(b.TotalCopies, b.AvailableCopies, onLoan); err != nil {
			return err
		}

		const q = `
		UPDATE books
		SET title = ?, author = ?, published_year = ?, genre = ?, total_copies = ?, available_copies = ?
		WHERE book_id = ?`
		_, err = tx.ExecContext(ctx, q,
			b.Title, b.Author, b.PublishedYear, b.Genre, b.TotalCopies, b.AvailableCopies, b.BookID)
		return err
	})
}

func (s *SQLStore) ExecDelete(ctx context.Context, id int64) error {
	return db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		counts, err := LockBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if counts == nil {
			return ErrNotFound("book not found")
		}

		var active int
		const cq = `SELECT COUNT(*) FROM loans WHERE book_id = ? AND return_date IS NULL`
		if err := tx.QueryRowContext(ctx, cq, id).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveLoans("cannot delete book: there are active loans for this book")
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, id)
		return err
	})
}

// 1062 = ER_DUP_ENTRY
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

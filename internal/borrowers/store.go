package borrowers

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"library-backend/internal/platform/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) GetByID(ctx context.Context, id int64) (*Borrower, error) {
	const q = `SELECT borrower_id, name, email, membership_id, created_at FROM borrowers WHERE borrower_id = ?`
	var b Borrower
	err := s.db.QueryRowContext(ctx, q, id).Scan(&b.BorrowerID, &b.Name, &b.Email, &b.MembershipID, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// FindDuplicate reports which unique field (if any) is already taken by
// another borrower. Empty membershipID is never a duplicate.
func (s *SQLStore) FindDuplicate(ctx context.Context, email, membershipID string, excludeID int64) (string, error) {
	var n int
	const eq = `SELECT COUNT(*) FROM borrowers WHERE email = ? AND borrower_id <> ?`
	if err := s.db.QueryRowContext(ctx, eq, email, excludeID).Scan(&n); err != nil {
		return "", err
	}
	if n > 0 {
		return "email", nil
	}
	if membershipID != "" {
		const mq = `SELECT COUNT(*) FROM borrowers WHERE membership_id = ? AND borrower_id <> ?`
		if err := s.db.QueryRowContext(ctx, mq, membershipID, excludeID).Scan(&n); err != nil {
			return "", err
		}
		if n > 0 {
			return "membership ID", nil
		}
	}
	return "", nil
}

func (s *SQLStore) List(ctx context.Context) ([]Borrower, error) {
	const q = `SELECT borrower_id, name, email, membership_id, created_at FROM borrowers ORDER BY borrower_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Borrower
	for rows.Next() {
		var b Borrower
		if err := rows.Scan(&b.BorrowerID, &b.Name, &b.Email, &b.MembershipID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLStore) Insert(ctx context.Context, b *Borrower) error {
	const q = `INSERT INTO borrowers (name, email, membership_id) VALUES (?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, b.Name, b.Email, nullStrOrNil(b.MembershipID))
	if err != nil {
		if isDuplicateKey(err) {
			return conflictFromDupKey(err)
		}
		return err
	}
	id, _ := res.LastInsertId()
	b.BorrowerID = id
	return nil
}

func (s *SQLStore) Update(ctx context.Context, b *Borrower) error {
	const q = `UPDATE borrowers SET name = ?, email = ?, membership_id = ? WHERE borrower_id = ?`
	res, err := s.db.ExecContext(ctx, q, b.Name, b.Email, nullStrOrNil(b.MembershipID), b.BorrowerID)
	if err != nil {
		if isDuplicateKey(err) {
			return conflictFromDupKey(err)
		}
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		// row may have been deleted since the service's read
		exists, err := s.GetByID(ctx, b.BorrowerID)
		if err != nil {
			return err
		}
		if exists == nil {
			return ErrNotFound("borrower not found")
		}
	}
	return nil
}

func (s *SQLStore) ExecDelete(ctx context.Context, id int64) error {
	return db.RunInTxRetry(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var found int64
		const gq = `SELECT borrower_id FROM borrowers WHERE borrower_id = ? FOR UPDATE`
		if err := tx.QueryRowContext(ctx, gq, id).Scan(&found); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound("borrower not found")
			}
			return err
		}

		var active int
		const cq = `SELECT COUNT(*) FROM loans WHERE borrower_id = ? AND return_date IS NULL`
		if err := tx.QueryRowContext(ctx, cq, id).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveLoans("cannot delete borrower: this borrower has active loans")
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM borrowers WHERE borrower_id = ?`, id)
		return err
	})
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

// 1062 = ER_DUP_ENTRY
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

func conflictFromDupKey(err error) error {
	if strings.Contains(err.Error(), "membership") {
		return ErrConflict("a borrower with this membership ID already exists")
	}
	return ErrConflict("a borrower with this email already exists")
}

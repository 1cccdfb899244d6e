package borrowers

import (
	"database/sql"
	"time"
)

// Borrower is one row of the borrowers table. MembershipID is NULL when the
// borrower has no membership card, so uniqueness only applies when present.
type Borrower struct {
	BorrowerID   int64
	Name         string
	Email        string
	MembershipID sql.NullString
	CreatedAt    time.Time
}

package auth

import (
	"context"
	"database/sql"
	"time"
)

type User struct {
	UserID       int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error) // nil when absent
	Create(ctx context.Context, u *User) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT user_id, username, password_hash, created_at
FROM users
WHERE username = ?
LIMIT 1
`
	var u User
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&u.UserID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	res, err := s.db.ExecContext(ctx, q, u.Username, u.PasswordHash)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	u.UserID = id
	return nil
}

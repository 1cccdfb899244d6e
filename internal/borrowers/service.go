package borrowers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ===== Error model (same shape as catalog/loans) =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeHasActiveLoans  Code = "HAS_ACTIVE_LOANS"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError     { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError    { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError    { return &APIError{Code: CodeConflict, Message: msg} }
func ErrActiveLoans(msg string) *APIError { return &APIError{Code: CodeHasActiveLoans, Message: msg} }
func ErrInternal(msg string) *APIError    { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument, CodeHasActiveLoans:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type Store interface {
	GetByID(ctx context.Context, id int64) (*Borrower, error) // nil when absent
	FindDuplicate(ctx context.Context, email, membershipID string, excludeID int64) (field string, err error)
	List(ctx context.Context) ([]Borrower, error)
	Insert(ctx context.Context, b *Borrower) error
	Update(ctx context.Context, b *Borrower) error
	ExecDelete(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewSQLStore(db)}
}

func (s *Service) ListBorrowers(ctx context.Context) ([]BorrowerResponse, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BorrowerResponse, 0, len(items))
	for i := range items {
		out = append(out, buildBorrowerResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) GetBorrower(ctx context.Context, id int64) (*BorrowerResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound("borrower not found")
	}
	resp := buildBorrowerResponse(b)
	return &resp, nil
}

func (s *Service) CreateBorrower(ctx context.Context, req CreateBorrowerRequest) (*BorrowerResponse, error) {
	email := strings.TrimSpace(req.Email)
	membership := normalizedMembership(req.MembershipID)

	if field, err := s.store.FindDuplicate(ctx, email, membership, 0); err != nil {
		return nil, err
	} else if field != "" {
		return nil, ErrConflict("a borrower with this " + field + " already exists")
	}

	b := &Borrower{Name: req.Name, Email: email}
	if membership != "" {
		b.MembershipID = sql.NullString{String: membership, Valid: true}
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	resp := buildBorrowerResponse(b)
	return &resp, nil
}

func (s *Service) UpdateBorrower(ctx context.Context, id int64, req UpdateBorrowerRequest) (*BorrowerResponse, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound("borrower not found")
	}

	email := strings.TrimSpace(req.Email)
	membership := normalizedMembership(req.MembershipID)

	if field, err := s.store.FindDuplicate(ctx, email, membership, id); err != nil {
		return nil, err
	} else if field != "" {
		return nil, ErrConflict("another borrower with this " + field + " already exists")
	}

	b := &Borrower{BorrowerID: id, Name: req.Name, Email: email}
	if membership != "" {
		b.MembershipID = sql.NullString{String: membership, Valid: true}
	}
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	resp := buildBorrowerResponse(b)
	return &resp, nil
}

func (s *Service) DeleteBorrower(ctx context.Context, id int64) error {
	return s.store.ExecDelete(ctx, id)
}

func normalizedMembership(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func buildBorrowerResponse(b *Borrower) BorrowerResponse {
	resp := BorrowerResponse{
		BorrowerID: b.BorrowerID,
		Name:       b.Name,
		Email:      b.Email,
	}
	if b.MembershipID.Valid {
		v := b.MembershipID.String
		resp.MembershipID = &v
	}
	return resp
}

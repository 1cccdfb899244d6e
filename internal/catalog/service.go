package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ===== Error model (same shape in borrowers/loans) =====

type Code string

const (
	CodeInvalidArgument       Code = "INVALID_ARGUMENT"
	CodeNotFound              Code = "NOT_FOUND"
	CodeConflict              Code = "CONFLICT"
	CodeHasActiveLoans        Code = "HAS_ACTIVE_LOANS"
	CodeInvalidCopyAdjustment Code = "INVALID_COPY_ADJUSTMENT"
	CodeInternal              Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError        { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError       { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError       { return &APIError{Code: CodeConflict, Message: msg} }
func ErrActiveLoans(msg string) *APIError    { return &APIError{Code: CodeHasActiveLoans, Message: msg} }
func ErrCopyAdjustment(msg string) *APIError { return &APIError{Code: CodeInvalidCopyAdjustment, Message: msg} }
func ErrInternal(msg string) *APIError       { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument, CodeHasActiveLoans, CodeInvalidCopyAdjustment:
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

// Store is the persistence surface the service needs. *SQLStore implements it
// against MySQL; tests swap in an in-memory fake.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Book, error)       // nil when absent
	GetByISBN(ctx context.Context, isbn string) (*Book, error)  // nil when absent
	List(ctx context.Context) ([]Book, error)
	Insert(ctx context.Context, b *Book) error
	ExecUpdate(ctx context.Context, b *Book) error // ledger-validated, transactional
	ExecDelete(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewSQLStore(db)}
}

func (s *Service) ListBooks(ctx context.Context) ([]BookResponse, error) {
	books, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, buildBookResponse(&books[i]))
	}
	return out, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (*BookResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound("book not found")
	}
	resp := buildBookResponse(b)
	return &resp, nil
}

func (s *Service) CreateBook(ctx context.Context, req CreateBookRequest) (*BookResponse, error) {
	if req.TotalCopies < 0 {
		return nil, ErrInvalid("total_copies must be >= 0")
	}
	isbn := strings.TrimSpace(req.ISBN)

	existing, err := s.store.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict("a book with this ISBN already exists")
	}

	b := &Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            isbn,
		PublishedYear:   req.PublishedYear,
		Genre:           req.Genre,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.TotalCopies, // all copies start available
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	resp := buildBookResponse(b)
	return &resp, nil
}

// UpdateBook is the administrative edit path. The copy-count change is
// validated against the loans currently outstanding inside the store
// transaction, so a concurrent issue/return cannot slip past the check.
func (s *Service) UpdateBook(ctx context.Context, id int64, req UpdateBookRequest) (*BookResponse, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound("book not found")
	}

	b := &Book{
		BookID:          id,
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            existing.ISBN,
		PublishedYear:   req.PublishedYear,
		Genre:           req.Genre,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
	}
	if err := s.store.ExecUpdate(ctx, b); err != nil {
		return nil, err
	}
	resp := buildBookResponse(b)
	return &resp, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	return s.store.ExecDelete(ctx, id)
}

func buildBookResponse(b *Book) BookResponse {
	return BookResponse{
		BookID:          b.BookID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PublishedYear:   b.PublishedYear,
		Genre:           b.Genre,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
	}
}

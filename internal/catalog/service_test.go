package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== in-memory fake store =====

type fakeStore struct {
	mu            sync.Mutex
	books         map[int64]*Book
	activeLoans   map[int64]int // book_id -> active loan count
	returnedLoans map[int64]int // book_id -> settled loan count, kept as history
	nextID        int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:         make(map[int64]*Book),
		activeLoans:   make(map[int64]int),
		returnedLoans: make(map[int64]int),
	}
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) GetByISBN(_ context.Context, isbn string) (*Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.ISBN == isbn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) List(_ context.Context) ([]Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, b *Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.books {
		if existing.ISBN == b.ISBN {
			return ErrConflict("a book with this ISBN already exists")
		}
	}
	f.nextID++
	b.BookID = f.nextID
	cp := *b
	f.books[b.BookID] = &cp
	return nil
}

func (f *fakeStore) ExecUpdate(_ context.Context, b *Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.books[b.BookID]
	if !ok {
		return ErrNotFound("book not found")
	}
	if err := ValidateCopyAdjustment(b.TotalCopies, b.AvailableCopies, f.activeLoans[b.BookID]); err != nil {
		return err
	}
	cp := *b
	cp.CreatedAt = existing.CreatedAt
	f.books[b.BookID] = &cp
	return nil
}

func (f *fakeStore) ExecDelete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[id]; !ok {
		return ErrNotFound("book not found")
	}
	// only active loans block deletion; settled history stays behind
	if f.activeLoans[id] > 0 {
		return ErrActiveLoans("cannot delete book: there are active loans for this book")
	}
	delete(f.books, id)
	return nil
}

func newTestService(store Store) *Service { return &Service{store: store} }

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	api, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T: %v", err, err)
	assert.Equal(t, code, api.Code)
}

// ===== tests =====

func TestCreateBook(t *testing.T) {
	svc := newTestService(newFakeStore())

	res, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title:         "Dune",
		Author:        "Frank Herbert",
		ISBN:          "9780441172719",
		PublishedYear: 1965,
		Genre:         "Science Fiction",
		TotalCopies:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCopies)
	assert.Equal(t, 3, res.AvailableCopies, "all copies start available")
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", TotalCopies: 1,
	})
	require.NoError(t, err)

	_, err = svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "Dune (reprint)", Author: "Frank Herbert", ISBN: "9780441172719", TotalCopies: 2,
	})
	requireCode(t, err, CodeConflict)
}

func TestCreateBook_NegativeCopies(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", TotalCopies: -1,
	})
	requireCode(t, err, CodeInvalidArgument)
}

func TestGetBook_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.GetBook(context.Background(), 42)
	requireCode(t, err, CodeNotFound)
}

func TestUpdateBook_CopyAdjustment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", TotalCopies: 3,
	})
	require.NoError(t, err)

	// two copies out on loan
	store.activeLoans[created.BookID] = 2
	store.books[created.BookID].AvailableCopies = 1

	// cannot shrink below the on-loan count
	_, err = svc.UpdateBook(context.Background(), created.BookID, UpdateBookRequest{
		Title: "Dune", Author: "Frank Herbert", TotalCopies: 1, AvailableCopies: 0,
	})
	requireCode(t, err, CodeInvalidCopyAdjustment)

	// available may not exceed total
	_, err = svc.UpdateBook(context.Background(), created.BookID, UpdateBookRequest{
		Title: "Dune", Author: "Frank Herbert", TotalCopies: 3, AvailableCopies: 4,
	})
	requireCode(t, err, CodeInvalidCopyAdjustment)

	// shrinking to exactly the on-loan count is allowed
	res, err := svc.UpdateBook(context.Background(), created.BookID, UpdateBookRequest{
		Title: "Dune", Author: "Frank Herbert", TotalCopies: 2, AvailableCopies: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCopies)
	assert.Equal(t, created.ISBN, res.ISBN, "ISBN survives the edit unchanged")
}

func TestUpdateBook_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.UpdateBook(context.Background(), 42, UpdateBookRequest{
		Title: "Dune", Author: "Frank Herbert",
	})
	requireCode(t, err, CodeNotFound)
}

func TestDeleteBook(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", TotalCopies: 1,
	})
	require.NoError(t, err)

	store.activeLoans[created.BookID] = 1
	err = svc.DeleteBook(context.Background(), created.BookID)
	requireCode(t, err, CodeHasActiveLoans)

	store.activeLoans[created.BookID] = 0
	require.NoError(t, svc.DeleteBook(context.Background(), created.BookID))

	err = svc.DeleteBook(context.Background(), created.BookID)
	requireCode(t, err, CodeNotFound)
}

func TestDeleteBook_ReturnedLoansDoNotBlock(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", TotalCopies: 1,
	})
	require.NoError(t, err)

	// a loan was issued and returned; the history row must not block deletion
	store.returnedLoans[created.BookID] = 1
	require.NoError(t, svc.DeleteBook(context.Background(), created.BookID))
}

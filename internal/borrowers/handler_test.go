package borrowers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestService(store))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// failingStore errors on every read to drive the 500 path.
type failingStore struct{ fakeStore }

func (f *failingStore) List(context.Context) ([]Borrower, error) {
	return nil, errors.New("connection reset by peer")
}

func TestHandler_InternalErrorsAreMasked(t *testing.T) {
	r := newTestRouter(&failingStore{})

	w := doJSON(t, r, http.MethodGet, "/borrowers", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
	assert.NotContains(t, w.Body.String(), "connection reset", "driver detail must not leak to the client")
}

func TestHandler_ClientErrorsPassThrough(t *testing.T) {
	r := newTestRouter(newFakeStore())

	w := doJSON(t, r, http.MethodGet, "/borrowers/42", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")

	w = doJSON(t, r, http.MethodPost, "/borrowers", `{"name":"Alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

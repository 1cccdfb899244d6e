package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

// ===== in-memory fake user store =====

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*User)}
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Create(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.UserID = f.nextID
	cp := *u
	f.users[u.Username] = &cp
	return nil
}

func newTestService() *Service {
	return &Service{store: newFakeUserStore(), secret: testSecret}
}

// ===== service tests =====

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "hunter22"))

	token, expiresAt, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), expiresAt, 5*time.Second)
}

func TestRegister_Duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "hunter22"))
	err := svc.Register(ctx, "alice", "other-pass")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice", "hunter22"))

	_, _, err := svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// unknown user reads the same as a wrong password
	_, _, err = svc.Login(ctx, "mallory", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ===== middleware tests =====

func newGateRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc)
	protected := r.Group("", RequireAuth(testSecret))
	protected.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username": c.GetString(CtxUsernameKey),
			"user_id":  c.GetInt64(CtxUserIDKey),
		})
	})
	return r
}

func TestRequireAuth_RoundTrip(t *testing.T) {
	svc := newTestService()
	r := newGateRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"alice","password":"hunter22"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	token, _, err := svc.Login(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestRequireAuth_Rejections(t *testing.T) {
	r := newGateRouter(newTestService())

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	other := &Service{store: newFakeUserStore(), secret: []byte("a-different-secret")}
	require.NoError(t, other.Register(context.Background(), "alice", "hunter22"))
	token, _, err := other.Login(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	r := newGateRouter(newTestService())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	r := newGateRouter(newTestService())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

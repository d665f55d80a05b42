package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shinyyama/fleamarket-backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, tok string) (*auth.Token, error) {
	if tok != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "alice", Claims: map[string]interface{}{"name": "Alice"}}, nil
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, session.Session) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var got session.Session
	h := mw(func(c echo.Context) error {
		got = SessionFrom(c)
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, h(c))
	return rec, got
}

func TestFirebaseAuth(t *testing.T) {
	m := NewFirebaseAuth(fakeVerifier{})
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		uid    string
	}{
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"bad", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
		{"good", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusNoContent, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec, sess := run(t, m.RequireAuth, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.uid, sess.UID)
		})
	}
}

func TestFirebaseAuthWebsocketQueryToken(t *testing.T) {
	m := NewFirebaseAuth(fakeVerifier{})
	req := httptest.NewRequest(http.MethodGet, "/?token=good", nil)
	req.Header.Set("Upgrade", "websocket")
	rec, sess := run(t, m.RequireAuth, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Alice", sess.DisplayName)

	plain := httptest.NewRequest(http.MethodGet, "/?token=good", nil)
	rec, _ = run(t, m.RequireAuth, plain)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHeaderAuth(t *testing.T) {
	m := NewHeaderAuth()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "bob")
	rec, sess := run(t, m.RequireAuth, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bob", sess.UID)

	rec, sess = run(t, m.OptionalAuth, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, sess.Valid())
}

func TestRequestContext(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(RequestContext)
	var rid string
	e.GET("/", func(c echo.Context) error {
		rid = reqctx.RID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "rid-1", rid)
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/fleamarket-backend/internal/session"
)

const sessionKey = "session"

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	header   bool
}

// NewFirebaseAuth verifies Firebase ID tokens from the Authorization header.
func NewFirebaseAuth(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// NewHeaderAuth trusts X-User-ID. For development and tests only.
func NewHeaderAuth() *AuthMiddleware {
	return &AuthMiddleware{header: true}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok, err := m.resolve(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorBody("invalid_token", "invalid token"))
		}
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "missing credentials"))
		}
		c.Set(sessionKey, sess)
		return next(c)
	}
}

// OptionalAuth attaches a session when credentials are present and valid.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if sess, ok, err := m.resolve(c); err == nil && ok {
			c.Set(sessionKey, sess)
		}
		return next(c)
	}
}

func (m *AuthMiddleware) resolve(c echo.Context) (session.Session, bool, error) {
	req := c.Request()
	if m.header {
		uid := strings.TrimSpace(req.Header.Get("X-User-ID"))
		if uid == "" {
			uid = strings.TrimSpace(c.QueryParam("uid"))
		}
		if uid == "" {
			return session.Session{}, false, nil
		}
		return session.Session{
			UID:         uid,
			DisplayName: strings.TrimSpace(req.Header.Get("X-User-Name")),
		}, true, nil
	}

	tokenStr := ""
	if authz := req.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		tokenStr = strings.TrimPrefix(authz, "Bearer ")
	} else if websocketUpgrade(req) {
		// browsers cannot set headers on websocket handshakes
		tokenStr = c.QueryParam("token")
	}
	if tokenStr == "" {
		return session.Session{}, false, nil
	}
	token, err := m.verifier.VerifyIDToken(req.Context(), tokenStr)
	if err != nil {
		return session.Session{}, false, err
	}
	sess := session.Session{UID: token.UID}
	if name, ok := token.Claims["name"].(string); ok {
		sess.DisplayName = name
	}
	if pic, ok := token.Claims["picture"].(string); ok {
		sess.PhotoURL = pic
	}
	return sess, true, nil
}

// SessionFrom returns the session attached by the auth middleware.
func SessionFrom(c echo.Context) session.Session {
	sess, _ := c.Get(sessionKey).(session.Session)
	return sess
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func errorBody(code, message string) map[string]map[string]string {
	return map[string]map[string]string{"error": {"code": code, "message": message}}
}

// Package auth guards the dashboard behind a single root login.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CookieName is the cookie carrying the session token.
const CookieName = "session"

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{"/login", "/health", "/assets"}

// Credentials is the root login.
type Credentials struct {
	Username string
	Password string
}

// Check compares in constant time.
func (c Credentials) Check(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password))
	return u&p == 1
}

// Sessions is an in-memory set of session tokens.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]time.Time
	now    func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Create starts a session and returns its token and expiry.
func (s *Sessions) Create() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	expires := s.now().Add(s.ttl)
	s.tokens[token] = expires
	s.prune()
	return token, expires
}

// Valid reports whether token belongs to a live session.
func (s *Sessions) Valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.tokens[token]
	if !ok {
		return false
	}
	if !s.now().Before(expires) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Revoke ends a session.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// prune drops expired sessions. Callers hold mu.
func (s *Sessions) prune() {
	now := s.now()
	for token, expires := range s.tokens {
		if !now.Before(expires) {
			delete(s.tokens, token)
		}
	}
}

// Cookie returns the cookie that carries token until expires.
func Cookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that removes the session cookie.
func ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware rejects requests without a live session. Pages redirect to the
// login form, API calls get 401.
func Middleware(sessions *Sessions) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper:   isPublic,
		KeyLookup: "cookie:" + CookieName,
		Validator: func(key string, c echo.Context) (bool, error) {
			return sessions.Valid(key), nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			path := c.Request().URL.Path
			if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/admin/") {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"success": false,
					"message": "authentication required",
				})
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		},
	})
}

func isPublic(c echo.Context) bool {
	path := c.Request().URL.Path
	for _, p := range publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

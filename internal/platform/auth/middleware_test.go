package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	err := mw(okHandler)(c)

	if err == nil {
		t.Fatal("expected error for missing header")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", httpErr.Code)
	}
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := mw(okHandler)(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %v", err)
			}
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{RoleDoctor},
	}
	tokenStr := createTestToken(t, claims, testSigningKey)

	var gotCtx context.Context
	inner := func(c echo.Context) error {
		gotCtx = c.Request().Context()
		return c.String(http.StatusOK, "ok")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	if err := mw(inner)(c); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if got := UserIDFromContext(gotCtx); got != "doc-1" {
		t.Errorf("user id = %q, want doc-1", got)
	}
	if !HasRole(gotCtx, RoleDoctor) {
		t.Error("expected doctor role on context")
	}
	if got := store.BearerFromContext(gotCtx); got != tokenStr {
		t.Error("expected raw token forwarded for outbound store calls")
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Roles: []string{RoleDoctor},
	}
	tokenStr := createTestToken(t, claims, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	err := mw(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %v", err)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenStr := createTestToken(t, claims, []byte("some-other-key-entirely-here!!"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})
	err := mw(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for mismatched key, got %v", err)
	}
}

func TestDevAuthMiddleware_Defaults(t *testing.T) {
	var gotCtx context.Context
	inner := func(c echo.Context) error {
		gotCtx = c.Request().Context()
		return c.String(http.StatusOK, "ok")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := DevAuthMiddleware()(inner)(c); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got := UserIDFromContext(gotCtx); got != "dev-user" {
		t.Errorf("user id = %q, want dev-user", got)
	}
	if !HasRole(gotCtx, RoleDoctor) {
		t.Error("default admin identity must satisfy every role check")
	}
}

func TestDevAuthMiddleware_Headers(t *testing.T) {
	var gotCtx context.Context
	inner := func(c echo.Context) error {
		gotCtx = c.Request().Context()
		return c.String(http.StatusOK, "ok")
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-User", "pat-7")
	req.Header.Set("X-Dev-Roles", "patient")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := DevAuthMiddleware()(inner)(c); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got := UserIDFromContext(gotCtx); got != "pat-7" {
		t.Errorf("user id = %q, want pat-7", got)
	}
	if HasRole(gotCtx, RoleDoctor) {
		t.Error("patient identity must not satisfy a doctor check")
	}
	if !HasRole(gotCtx, RolePatient) {
		t.Error("expected patient role on context")
	}
}

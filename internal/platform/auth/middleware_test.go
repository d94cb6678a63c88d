package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func contextWithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, RolesKey, roles)
}

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(testKey)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func doRequest(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, DoctorIDFromContext(c.Request().Context()))
	})
	return rec, handler(c)
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	_, err := doRequest(mw, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
}

func TestJWTMiddlewareMalformedHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	_, err := doRequest(mw, "Token abc")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doc-17",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Dr. Lan",
		Roles: []string{"physician"},
	}
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	rec, err := doRequest(mw, "Bearer "+signToken(t, claims))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "doc-17" {
		t.Errorf("doctor id = %q, want doc-17", rec.Body.String())
	}
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doc-17",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	_, err := doRequest(mw, "Bearer "+signToken(t, claims))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		userRoles []string
		required  []string
		wantPass  bool
	}{
		{"exact match", []string{"physician"}, []string{"physician"}, true},
		{"admin passes anything", []string{"admin"}, []string{"registrar"}, true},
		{"no match", []string{"registrar"}, []string{"physician"}, false},
		{"no roles", nil, []string{"physician"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			mw := func(next echo.HandlerFunc) echo.HandlerFunc {
				return func(c echo.Context) error {
					ctx := c.Request().Context()
					ctx = contextWithRoles(ctx, tt.userRoles)
					c.SetRequest(c.Request().WithContext(ctx))
					return next(c)
				}
			}

			handler := mw(RequireRole(tt.required...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}))
			err := handler(c)

			if tt.wantPass && err != nil {
				t.Errorf("expected pass, got %v", err)
			}
			if !tt.wantPass {
				httpErr, ok := err.(*echo.HTTPError)
				if !ok || httpErr.Code != http.StatusForbidden {
					t.Errorf("got %v, want 403", err)
				}
			}
		})
	}
}

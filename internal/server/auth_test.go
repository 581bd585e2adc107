package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedRequest(authorization string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

// TestAuthMiddleware_Disabled verifies that an empty API key disables auth
// entirely, so requests without credentials still reach the handler.
func TestAuthMiddleware_Disabled(t *testing.T) {
	t.Parallel()

	h := authMiddleware("", okHandler)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, authedRequest(""))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when auth disabled, got %d", w.Code)
	}
}

// TestAuthMiddleware_Enforced exercises the middleware with a configured key
// across the interesting header shapes.
func TestAuthMiddleware_Enforced(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		authorization string
		wantCode      int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer not-the-key", http.StatusUnauthorized},
		{"basic auth scheme", "Basic ZGVzazpwYXNz", http.StatusUnauthorized},
		{"correct token", "Bearer desk-key", http.StatusOK},
		{"lowercase scheme", "bearer desk-key", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := authMiddleware("desk-key", okHandler)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, authedRequest(tc.authorization))

			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, w.Code)
			}
			if tc.wantCode == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate challenge on 401")
			}
		})
	}
}

// TestBearerToken verifies extraction of the token from the Authorization
// header, including malformed values.
func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
	}{
		{"Bearer desk-key", "desk-key"},
		{"bearer desk-key", "desk-key"},
		{"BEARER desk-key", "desk-key"},
		{"Bearer  padded ", "padded"},
		{"Basic ZGVzazpwYXNz", ""},
		{"", ""},
		{"Bearer", ""},
		{"desk-key", ""},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(req); got != tc.want {
			t.Errorf("header=%q: expected %q, got %q", tc.header, tc.want, got)
		}
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"medication-adherence-tracker/internal/ports/auth"
)

type fakeVerifier struct {
	claims auth.Claims
	err    error
	seen   string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	f.seen = token
	return f.claims, f.err
}

func claimsProbe(t *testing.T, got *auth.Claims, found *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		*got, *found = c, ok
	})
}

func TestAuthContextDevModeUsesDebugHeader(t *testing.T) {
	var got auth.Claims
	var found bool
	h := AuthContext(nil)(claimsProbe(t, &got, &found))

	req := httptest.NewRequest(http.MethodGet, "/medications", nil)
	req.Header.Set(DebugUserHeader, "user-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !found || got.UserID != "user-9" {
		t.Fatalf("claims = %+v found=%v, want user-9", got, found)
	}
}

func TestAuthContextVerifierSetsClaims(t *testing.T) {
	v := &fakeVerifier{claims: auth.Claims{UserID: "user-1", Email: "a@b.c"}}

	var got auth.Claims
	var found bool
	h := AuthContext(v)(claimsProbe(t, &got, &found))

	req := httptest.NewRequest(http.MethodGet, "/medications", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if v.seen != "tok-123" {
		t.Fatalf("verifier saw %q, want tok-123", v.seen)
	}
	if !found || got.UserID != "user-1" {
		t.Fatalf("claims = %+v found=%v", got, found)
	}
}

func TestAuthContextInvalidTokenLeavesRequestAnonymous(t *testing.T) {
	v := &fakeVerifier{err: errors.New("expired")}

	var got auth.Claims
	var found bool
	h := AuthContext(v)(claimsProbe(t, &got, &found))

	req := httptest.NewRequest(http.MethodGet, "/medications", nil)
	req.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Fatalf("expected no claims for an invalid token, got %+v", got)
	}
}

func TestAuthContextDebugHeaderIgnoredWithVerifier(t *testing.T) {
	v := &fakeVerifier{err: errors.New("no token")}

	var got auth.Claims
	var found bool
	h := AuthContext(v)(claimsProbe(t, &got, &found))

	req := httptest.NewRequest(http.MethodGet, "/medications", nil)
	req.Header.Set(DebugUserHeader, "user-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Fatal("debug header must not grant identity when a verifier is configured")
	}
}

func TestUserIDShortcut(t *testing.T) {
	ctx := context.WithValue(context.Background(), claimsKey, auth.Claims{UserID: "user-1"})
	if uid, ok := UserID(ctx); !ok || uid != "user-1" {
		t.Fatalf("UserID = %q ok=%v", uid, ok)
	}
	if _, ok := UserID(context.Background()); ok {
		t.Fatal("expected no user on an empty context")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := bearerToken(c.header); got != c.want {
			t.Errorf("bearerToken(%q) = %q, want %q", c.header, got, c.want)
		}
	}
}

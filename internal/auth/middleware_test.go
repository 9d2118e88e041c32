package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Nestorservice/vente-voiture/internal/account"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireLoginRedirectsAnonymous(t *testing.T) {
	r := httptest.NewRequest("GET", "/favorites", nil)
	w := httptest.NewRecorder()
	RequireLogin(okHandler()).ServeHTTP(w, r)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if w.Header().Get("Location") != "/login" {
		t.Errorf("location = %q, want /login", w.Header().Get("Location"))
	}
}

func TestRequireStaff(t *testing.T) {
	tests := []struct {
		name string
		acct *account.Account
		want int
	}{
		{"anonymous", nil, http.StatusSeeOther},
		{"customer", &account.Account{ID: 2}, http.StatusForbidden},
		{"staff", &account.Account{ID: 1, IsStaff: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/panel", nil)
			r = r.WithContext(WithSession(r.Context(), &Session{}, tt.acct))
			w := httptest.NewRecorder()
			RequireStaff(okHandler()).ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusForbidden {
				if ct := w.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("content type = %q, want application/json", ct)
				}
				var body map[string]string
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] != "forbidden" {
					t.Errorf("body = %v (%v), want error forbidden", body, err)
				}
			}
		})
	}
}

func TestLoadSessionAttachesAccount(t *testing.T) {
	store, accountID := testSessionStore(t)
	accounts := account.NewRepository(store.db)

	w := httptest.NewRecorder()
	if _, err := store.Create(context.Background(), w, &accountID, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	var seen *account.Account
	var seenSession *Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = AccountFrom(r.Context())
		seenSession = SessionFrom(r.Context())
	})

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(t, w))
	LoadSession(store, accounts)(inner).ServeHTTP(httptest.NewRecorder(), r)

	if seen == nil || seen.ID != accountID || seen.Username != "alice" {
		t.Errorf("account = %+v, want alice", seen)
	}
	if seenSession == nil {
		t.Error("expected session in context")
	}
	if id := AccountID(r.WithContext(WithSession(r.Context(), seenSession, seen))); id == nil || *id != accountID {
		t.Errorf("AccountID = %v", id)
	}
}

func TestLoadSessionAnonymous(t *testing.T) {
	store, _ := testSessionStore(t)
	accounts := account.NewRepository(store.db)

	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if AccountFrom(r.Context()) != nil || SessionFrom(r.Context()) != nil {
			t.Error("expected anonymous context")
		}
	})
	LoadSession(store, accounts)(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("handler not called")
	}
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter()
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for i := 0; i < loginMaxFail; i++ {
		if l.Blocked("1.2.3.4") {
			t.Fatalf("blocked after %d failures", i)
		}
		l.Fail("1.2.3.4")
	}
	if !l.Blocked("1.2.3.4") {
		t.Error("expected block after max failures")
	}
	if l.Blocked("5.6.7.8") {
		t.Error("other ip should not be blocked")
	}

	clock = clock.Add(loginWindow + time.Second)
	if l.Blocked("1.2.3.4") {
		t.Error("block should lift after the window")
	}

	l.Fail("1.2.3.4")
	l.Reset("1.2.3.4")
	if len(l.attempts) != 0 {
		t.Errorf("attempts = %v, want empty after reset", l.attempts)
	}
}

func TestLoginLimiterCompaction(t *testing.T) {
	l := NewLoginLimiter()
	l.compactAbove = 4
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		l.Fail(ip)
	}
	if l.Len() != 3 {
		t.Fatalf("len = %d, want 3", l.Len())
	}

	clock = clock.Add(loginWindow + time.Second)
	l.Fail("10.0.0.4")
	if l.Len() != 4 {
		t.Fatalf("len = %d, want 4 before threshold is crossed", l.Len())
	}

	l.Fail("10.0.0.5")
	if l.Len() != 2 {
		t.Errorf("len after compaction = %d, want 2 (only the fresh failures)", l.Len())
	}
}

func TestRemoteHost(t *testing.T) {
	tests := []struct {
		remote string
		xff    string
		want   string
	}{
		{"198.51.100.7:41000", "", "198.51.100.7"},
		{"198.51.100.7:41000", "10.0.0.1", "198.51.100.7"},
		{"[2001:db8::1]:443", "", "2001:db8::1"},
		{"unix-socket", "", "unix-socket"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/login", nil)
		r.RemoteAddr = tt.remote
		if tt.xff != "" {
			r.Header.Set("X-Forwarded-For", tt.xff)
		}
		if got := RemoteHost(r); got != tt.want {
			t.Errorf("RemoteHost(%q, xff %q) = %q, want %q", tt.remote, tt.xff, got, tt.want)
		}
	}
}

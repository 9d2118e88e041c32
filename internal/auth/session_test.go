package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/account"
	"github.com/Nestorservice/vente-voiture/internal/db"
)

func TestSessionCreateAndLoad(t *testing.T) {
	store, accountID := testSessionStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	created, err := store.Create(ctx, w, &accountID, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cookie := sessionCookie(t, w)
	if cookie.Value != created.ID || !cookie.HttpOnly {
		t.Errorf("cookie = %+v", cookie)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)
	sess, err := store.Load(ctx, r)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.AccountID == nil || *sess.AccountID != accountID {
		t.Errorf("account = %v, want %d", sess.AccountID, accountID)
	}
}

func TestSessionLoadNoCookie(t *testing.T) {
	store, _ := testSessionStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	if _, err := store.Load(context.Background(), r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	r.AddCookie(&http.Cookie{Name: cookieName, Value: "bogus-session-id"})
	if _, err := store.Load(context.Background(), r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession for unknown id", err)
	}
}

func TestSessionExpired(t *testing.T) {
	store, accountID := testSessionStore(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }
	w := httptest.NewRecorder()
	if _, err := store.Create(ctx, w, &accountID, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	store.now = func() time.Time { return start.Add(store.ttl + time.Second) }
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(t, w))
	if _, err := store.Load(ctx, r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionDataRoundTrip(t *testing.T) {
	store, _ := testSessionStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	sess, err := store.Create(ctx, w, nil, nil)
	if err != nil {
		t.Fatalf("create anonymous: %v", err)
	}
	if err := sess.Set("greeting", "bonjour"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(t, w))
	loaded, err := store.Load(ctx, r)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AccountID != nil {
		t.Errorf("anonymous session has account %d", *loaded.AccountID)
	}

	var got string
	ok, err := loaded.Get("greeting", &got)
	if err != nil || !ok || got != "bonjour" {
		t.Errorf("get = %q %v %v", got, ok, err)
	}
	if ok, _ := loaded.Get("missing", &got); ok {
		t.Error("missing key reported present")
	}
}

func TestSessionCreateCopiesPrevious(t *testing.T) {
	store, accountID := testSessionStore(t)
	ctx := context.Background()

	anon, err := store.Create(ctx, httptest.NewRecorder(), nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := anon.SetCompare(&CompareList{IDs: []int64{4}}); err != nil {
		t.Fatalf("set compare: %v", err)
	}

	logged, err := store.Create(ctx, httptest.NewRecorder(), &accountID, anon)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if logged.ID == anon.ID {
		t.Error("login should issue a new session id")
	}
	c, err := logged.Compare()
	if err != nil || len(c.IDs) != 1 || c.IDs[0] != 4 {
		t.Errorf("compare = %+v %v, want carried over", c, err)
	}

	var n int
	if err := store.db.Get(&n, "SELECT COUNT(*) FROM sessions WHERE id = ?", anon.ID); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("previous session row should be deleted")
	}
}

func TestSessionDestroyAndCleanup(t *testing.T) {
	store, accountID := testSessionStore(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	if _, err := store.Create(ctx, w, &accountID, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	cookie := sessionCookie(t, w)

	r := httptest.NewRequest("POST", "/logout", nil)
	r.AddCookie(cookie)
	w2 := httptest.NewRecorder()
	if err := store.Destroy(ctx, w2, r); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if c := sessionCookie(t, w2); c.MaxAge >= 0 {
		t.Errorf("cookie max-age = %d, want cleared", c.MaxAge)
	}
	if _, err := store.Load(ctx, r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("load after destroy = %v, want ErrNoSession", err)
	}

	store.now = func() time.Time { return time.Now().Add(-2 * store.ttl) }
	if _, err := store.Create(ctx, httptest.NewRecorder(), &accountID, nil); err != nil {
		t.Fatalf("create old: %v", err)
	}
	store.now = time.Now
	n, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("cleanup removed %d, want 1", n)
	}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("expected cookie named %q", cookieName)
	return nil
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}

func testSessionStore(t *testing.T) (*SessionStore, int64) {
	t.Helper()
	d := openTestDB(t)
	a, err := account.NewRepository(d).Create(context.Background(), "alice", "", "password123", false)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return NewSessionStore(d, 24*time.Hour, false), a.ID
}

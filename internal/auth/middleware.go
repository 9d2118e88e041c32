package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Nestorservice/vente-voiture/internal/account"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	accountKey
)

// Accounts resolves the account a session belongs to.
type Accounts interface {
	GetByID(ctx context.Context, id int64) (*account.Account, error)
}

// WithSession returns a copy of ctx carrying sess and its account.
func WithSession(ctx context.Context, sess *Session, acct *account.Account) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	if acct != nil {
		ctx = context.WithValue(ctx, accountKey, acct)
	}
	return ctx
}

// SessionFrom returns the request's session, or nil.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// AccountFrom returns the signed-in account, or nil for anonymous visitors.
func AccountFrom(ctx context.Context) *account.Account {
	a, _ := ctx.Value(accountKey).(*account.Account)
	return a
}

// AccountID returns the signed-in account's ID, or nil.
func AccountID(r *http.Request) *int64 {
	if a := AccountFrom(r.Context()); a != nil {
		id := a.ID
		return &id
	}
	return nil
}

// LoadSession is middleware that attaches the cookie session and its
// account to the request context. Requests without a usable session
// continue anonymously.
func LoadSession(sessions *SessionStore, accounts Accounts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					slog.Warn("loading session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			var acct *account.Account
			if sess.AccountID != nil {
				acct, err = accounts.GetByID(r.Context(), *sess.AccountID)
				if err != nil {
					slog.Warn("loading session account", "error", err, "account", *sess.AccountID)
					acct = nil
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess, acct)))
		})
	}
}

// RequireLogin redirects anonymous visitors to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AccountFrom(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff redirects anonymous visitors to the login page and answers
// 403 to signed-in accounts without the staff flag.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct := AccountFrom(r.Context())
		if acct == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !acct.IsStaff {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			if err := json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"}); err != nil {
				slog.Error("encoding response", "error", err)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RemoteHost returns the host part of the connection's remote address.
// Unlike a forwarded-for header, the client cannot choose it.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter tracks failed login attempts per IP.
type LoginLimiter struct {
	mu           sync.Mutex
	attempts     map[string][]time.Time
	window       time.Duration
	maxFail      int
	compactAbove int
	now          func() time.Time
}

const (
	loginWindow       = 1 * time.Minute
	loginMaxFail      = 10
	loginCompactAbove = 1000
)

// NewLoginLimiter allows ten failures per IP per minute.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		attempts:     make(map[string][]time.Time),
		window:       loginWindow,
		maxFail:      loginMaxFail,
		compactAbove: loginCompactAbove,
		now:          time.Now,
	}
}

// Blocked reports whether ip has used up its failures for the window.
func (l *LoginLimiter) Blocked(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip)) >= l.maxFail
}

// Fail records a failed attempt from ip.
func (l *LoginLimiter) Fail(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts[ip] = append(l.prune(ip), l.now())

	if len(l.attempts) > l.compactAbove {
		for k := range l.attempts {
			l.prune(k)
		}
	}
}

// Reset forgets the failures of ip after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, ip)
}

// Len returns the number of IPs with failures on record.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

// prune drops attempts outside the window. Caller holds l.mu.
func (l *LoginLimiter) prune(ip string) []time.Time {
	cutoff := l.now().Add(-l.window)
	valid := l.attempts[ip][:0]
	for _, t := range l.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(l.attempts, ip)
		return nil
	}
	l.attempts[ip] = valid
	return valid
}

package visit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Nestorservice/vente-voiture/internal/logging"
)

// Store persists visit records.
type Store interface {
	Insert(ctx context.Context, rec *Record) error
}

const writeTimeout = 2 * time.Second

// Logger is middleware that records successful page loads.
type Logger struct {
	store   Store
	limiter Limiter
	policy  Policy
	now     func() time.Time

	// Identify returns the signed-in account for a request, if any.
	Identify func(r *http.Request) *int64
}

// NewLogger creates a visit logger writing to store, throttled by limiter,
// with the excluded paths of policy.
func NewLogger(store Store, limiter Limiter, policy Policy) *Logger {
	return &Logger{store: store, limiter: limiter, policy: policy, now: time.Now}
}

// Middleware records a visit after next has served a GET with status 200.
// Logging never changes the response.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := logging.NewStatusWriter(w)
		next.ServeHTTP(sw, r)
		l.record(r, sw.Status)
	})
}

func (l *Logger) record(r *http.Request, status int) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("visit logging panicked", "panic", p, "path", r.URL.Path)
		}
	}()

	if r.Method != http.MethodGet || status != http.StatusOK {
		return
	}
	path := r.URL.Path
	if l.policy.Excludes(path) || isProgrammatic(r) {
		return
	}

	ip := ClientIP(r)
	now := l.now()
	if !l.limiter.ShouldLog(ip+"|"+path, now) {
		return
	}

	rec := &Record{
		IPAddress: ip,
		Page:      path,
		UserAgent: r.UserAgent(),
		CreatedAt: now,
	}
	if l.Identify != nil {
		rec.AccountID = l.Identify(r)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), writeTimeout)
	defer cancel()
	if err := l.store.Insert(ctx, rec); err != nil {
		slog.Debug("visit not recorded", "error", err, "path", path)
	}
}

// ClientIP returns the first X-Forwarded-For entry, or the host part of
// the connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isProgrammatic(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" || r.Header.Get("HX-Request") == "true" {
		return true
	}
	for _, h := range []string{"Sec-Purpose", "Purpose"} {
		if strings.HasPrefix(strings.ToLower(r.Header.Get(h)), "prefetch") {
			return true
		}
	}
	return false
}

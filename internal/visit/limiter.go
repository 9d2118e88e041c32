package visit

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Limiter decides whether a visit under key should be written at now.
type Limiter interface {
	ShouldLog(key string, now time.Time) bool
}

// Policy configures throttling and which paths are never logged.
type Policy struct {
	Name         string
	Window       time.Duration // one record per key per window
	CompactAbove int           // compact once the table holds more keys than this
	Retain       time.Duration // compaction keeps keys seen within this long
	Excluded     []string      // path prefixes that are never logged
}

// Permissive logs a key at most once a minute and skips only static assets.
var Permissive = Policy{
	Name:         "permissive",
	Window:       60 * time.Second,
	CompactAbove: 500,
	Retain:       120 * time.Second,
	Excluded:     []string{"/static/", "/media/", "/favicon.ico"},
}

// Strict logs a key at most once every five minutes and also skips the
// staff panel and health checks.
var Strict = Policy{
	Name:         "strict",
	Window:       300 * time.Second,
	CompactAbove: 300,
	Retain:       600 * time.Second,
	Excluded:     []string{"/static/", "/media/", "/favicon.ico", "/panel/", "/admin/", "/health"},
}

// PolicyByName returns the preset called name.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Permissive.Name:
		return Permissive, nil
	case Strict.Name:
		return Strict, nil
	default:
		return Policy{}, fmt.Errorf("unknown visit policy %q (want %s or %s)", name, Permissive.Name, Strict.Name)
	}
}

// Excludes reports whether path falls under one of the excluded prefixes.
// A prefix ending in "/" also covers the bare directory path, so "/panel/"
// excludes "/panel" but not "/panelist".
func (p Policy) Excludes(path string) bool {
	for _, prefix := range p.Excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
		if dir, ok := strings.CutSuffix(prefix, "/"); ok && path == dir {
			return true
		}
	}
	return false
}

// MemoryLimiter is a process-local Limiter. It is safe for concurrent use.
type MemoryLimiter struct {
	mu           sync.Mutex
	window       time.Duration
	compactAbove int
	retain       time.Duration
	seen         map[string]time.Time
}

// NewMemoryLimiter creates a limiter with the window and compaction
// settings of p.
func NewMemoryLimiter(p Policy) *MemoryLimiter {
	return &MemoryLimiter{
		window:       p.Window,
		compactAbove: p.CompactAbove,
		retain:       p.Retain,
		seen:         make(map[string]time.Time),
	}
}

// ShouldLog reports whether key was not logged within the window before now,
// and if so records now as its last log time.
func (l *MemoryLimiter) ShouldLog(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.seen[key]; ok && now.Sub(last) < l.window {
		return false
	}
	l.seen[key] = now

	if len(l.seen) > l.compactAbove {
		cutoff := now.Add(-l.retain)
		for k, t := range l.seen {
			if !t.After(cutoff) {
				delete(l.seen, k)
			}
		}
	}
	return true
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Package visit records page views for the staff activity log, throttled
// per client IP and path.
package visit

import "time"

// maxFieldLen caps the stored page and user agent.
const maxFieldLen = 500

// Record is one logged page view.
type Record struct {
	ID        int64     `db:"id" json:"id"`
	AccountID *int64    `db:"account_id" json:"account_id,omitempty"`
	Username  string    `db:"username" json:"username,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	Page      string    `db:"page" json:"page"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}

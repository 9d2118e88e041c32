package visit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/db"
)

// Repository provides data access for visit records.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a visit repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a visit record. Page and user agent are truncated to 500 bytes.
func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO site_visits (account_id, ip_address, page, user_agent, created_at) VALUES (?, ?, ?, ?, ?)",
		rec.AccountID, rec.IPAddress, truncate(rec.Page, maxFieldLen), truncate(rec.UserAgent, maxFieldLen), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting visit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// List returns visits newest first, at most limit of them. q matches the
// IP address, page or username.
func (r *Repository) List(ctx context.Context, q string, limit int) ([]*Record, error) {
	query := `SELECT v.id, v.account_id, COALESCE(a.username, '') AS username,
		v.ip_address, v.page, v.user_agent, v.created_at
		FROM site_visits v
		LEFT JOIN accounts a ON a.id = v.account_id`
	var args []interface{}

	if q = strings.TrimSpace(q); q != "" {
		p := db.ContainsPattern(q)
		query += " WHERE " + db.Contains("v.ip_address") + " OR " + db.Contains("v.page") + " OR " + db.Contains("a.username")
		args = append(args, p, p, p)
	}
	query += " ORDER BY v.created_at DESC, v.id DESC LIMIT ?"
	args = append(args, limit)

	var records []*Record
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	return records, nil
}

// UniqueIPsBetween counts distinct IP addresses seen in [from, to).
func (r *Repository) UniqueIPsBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(DISTINCT ip_address) FROM site_visits WHERE created_at >= ? AND created_at < ?",
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("counting unique ips: %w", err)
	}
	return n, nil
}

// CountBetween counts visits in [from, to).
func (r *Repository) CountBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM site_visits WHERE created_at >= ? AND created_at < ?",
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("counting visits: %w", err)
	}
	return n, nil
}

// CountSince counts visits at or after since.
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM site_visits WHERE created_at >= ?", since.UTC(),
	); err != nil {
		return 0, fmt.Errorf("counting visits: %w", err)
	}
	return n, nil
}

// UniqueIPsSince counts distinct IP addresses seen at or after since.
func (r *Repository) UniqueIPsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(DISTINCT ip_address) FROM site_visits WHERE created_at >= ?", since.UTC(),
	); err != nil {
		return 0, fmt.Errorf("counting unique ips: %w", err)
	}
	return n, nil
}

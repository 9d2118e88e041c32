package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
	"github.com/Nestorservice/vente-voiture/internal/db"
)

// Repository provides data access for appointments.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates an appointment repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

const selectDetail = `SELECT a.id, a.account_id, a.listing_id, a.phone, a.email, a.requested_at,
	a.note, a.created_at, u.username, l.brand, l.model
	FROM appointments a
	JOIN accounts u ON u.id = a.account_id
	JOIN listings l ON l.id = a.listing_id`

// Create validates req and stores an appointment for the listing.
// The listing must exist.
func (r *Repository) Create(ctx context.Context, accountID, listingID int64, req Request) (*Appointment, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	verr := &apperr.ValidationError{}
	if req.Phone == "" {
		verr.Add("phone", "is required")
	}
	if req.Email == "" {
		verr.Add("email", "is required")
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		verr.Add("email", "is not a valid address")
	}
	if req.RequestedAt.IsZero() {
		verr.Add("requested_at", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT COUNT(*) FROM listings WHERE id = ?", listingID); err != nil {
		return nil, fmt.Errorf("checking listing: %w", err)
	}
	if exists == 0 {
		return nil, apperr.NotFound("listing", listingID)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO appointments (account_id, listing_id, phone, email, requested_at, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, listingID, req.Phone, req.Email, req.RequestedAt.UTC(), strings.TrimSpace(req.Note), r.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns an appointment by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	var a Appointment
	err := r.db.GetContext(ctx, &a,
		"SELECT id, account_id, listing_id, phone, email, requested_at, note, created_at FROM appointments WHERE id = ?", id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("appointment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment %d: %w", id, err)
	}
	return &a, nil
}

// List returns appointments newest first. q matches username, listing brand
// or model, phone or email; when is Upcoming, Past or empty for both.
func (r *Repository) List(ctx context.Context, q string, when When, now time.Time) ([]*Detail, error) {
	var conds []string
	var args []interface{}

	if q = strings.TrimSpace(q); q != "" {
		p := db.ContainsPattern(q)
		var matches []string
		for _, col := range []string{"u.username", "l.brand", "l.model", "a.phone", "a.email"} {
			matches = append(matches, db.Contains(col))
		}
		conds = append(conds, "("+strings.Join(matches, " OR ")+")")
		args = append(args, p, p, p, p, p)
	}
	switch when {
	case Upcoming:
		conds = append(conds, "a.requested_at >= ?")
		args = append(args, now.UTC())
	case Past:
		conds = append(conds, "a.requested_at < ?")
		args = append(args, now.UTC())
	case "":
	default:
		return nil, apperr.Invalid("status", "must be upcoming or past")
	}

	query := selectDetail
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	var out []*Detail
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	return out, nil
}

// Recent returns the limit most recently created appointments.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*Detail, error) {
	var out []*Detail
	if err := r.db.SelectContext(ctx, &out,
		selectDetail+" ORDER BY a.created_at DESC, a.id DESC LIMIT ?", limit,
	); err != nil {
		return nil, fmt.Errorf("listing recent appointments: %w", err)
	}
	return out, nil
}

// Stats counts appointments relative to now. ThisWeek counts appointments
// created in the last seven days.
func (r *Repository) Stats(ctx context.Context, now time.Time) (Stats, error) {
	now = now.UTC()
	var s Stats
	err := r.db.GetContext(ctx, &s.Total, "SELECT COUNT(*) FROM appointments")
	if err != nil {
		return Stats{}, fmt.Errorf("counting appointments: %w", err)
	}
	err = r.db.GetContext(ctx, &s.Upcoming, "SELECT COUNT(*) FROM appointments WHERE requested_at >= ?", now)
	if err != nil {
		return Stats{}, fmt.Errorf("counting upcoming appointments: %w", err)
	}
	err = r.db.GetContext(ctx, &s.Past, "SELECT COUNT(*) FROM appointments WHERE requested_at < ?", now)
	if err != nil {
		return Stats{}, fmt.Errorf("counting past appointments: %w", err)
	}
	err = r.db.GetContext(ctx, &s.ThisWeek, "SELECT COUNT(*) FROM appointments WHERE created_at >= ?", now.AddDate(0, 0, -7))
	if err != nil {
		return Stats{}, fmt.Errorf("counting this week's appointments: %w", err)
	}
	return s, nil
}

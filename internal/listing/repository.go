package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
)

// Repository provides CRUD and query operations for listings.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates a listing repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

const selectColumns = `id, brand, model, price, year, mileage, fuel, transmission, city, status, description, image, created_at`

// Insert validates and stores a new listing, filling defaults for fuel,
// transmission, city and status, and returns it with its generated ID.
func (r *Repository) Insert(ctx context.Context, l *Listing) (*Listing, error) {
	if l.Fuel == "" {
		l.Fuel = FuelPetrol
	}
	if l.Transmission == "" {
		l.Transmission = TransmissionManual
	}
	if strings.TrimSpace(l.City) == "" {
		l.City = DefaultCity
	}
	if l.Status == "" {
		l.Status = StatusPending
	}
	if err := validate(l, r.now()); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO listings
		(brand, model, price, year, mileage, fuel, transmission, city, status, description, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(l.Brand), strings.TrimSpace(l.Model), l.Price, l.Year, l.Mileage,
		string(l.Fuel), string(l.Transmission), strings.TrimSpace(l.City), string(l.Status),
		l.Description, l.Image, r.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func validate(l *Listing, now time.Time) error {
	verr := &apperr.ValidationError{}
	if strings.TrimSpace(l.Brand) == "" {
		verr.Add("brand", "is required")
	}
	if strings.TrimSpace(l.Model) == "" {
		verr.Add("model", "is required")
	}
	if l.Price < 0 {
		verr.Add("price", "must not be negative")
	}
	if l.Year < 1900 || l.Year > now.Year()+1 {
		verr.Add("year", fmt.Sprintf("must be between 1900 and %d", now.Year()+1))
	}
	if l.Mileage < 0 {
		verr.Add("mileage", "must not be negative")
	}
	if !l.Fuel.IsValid() {
		verr.Add("fuel", "unknown fuel type")
	}
	if !l.Transmission.IsValid() {
		verr.Add("transmission", "unknown transmission")
	}
	if !l.Status.IsValid() {
		verr.Add("status", "unknown status")
	}
	return verr.OrNil()
}

// GetByID returns a listing by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Listing, error) {
	var l Listing
	err := r.db.GetContext(ctx, &l, "SELECT "+selectColumns+" FROM listings WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("listing", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %d: %w", id, err)
	}
	return &l, nil
}

// GetMany returns the listings with the given IDs in the order of ids.
// Unknown IDs are skipped.
func (r *Repository) GetMany(ctx context.Context, ids []int64) ([]*Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In("SELECT "+selectColumns+" FROM listings WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("building listing query: %w", err)
	}

	var found []*Listing
	if err := r.db.SelectContext(ctx, &found, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing by ids: %w", err)
	}

	byID := make(map[int64]*Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	ordered := make([]*Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			ordered = append(ordered, l)
		}
	}
	return ordered, nil
}

// Browse returns available listings matching every criterion of f, newest first.
func (r *Repository) Browse(ctx context.Context, f Filter) ([]*Listing, error) {
	conds, args := f.conditions()
	conds = append([]string{"status = ?"}, conds...)
	args = append([]interface{}{string(StatusAvailable)}, args...)

	query := "SELECT " + selectColumns + " FROM listings WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY created_at DESC, id DESC"

	return r.selectListings(ctx, query, args...)
}

// AdminList returns listings of any status, newest first. q matches brand,
// model or city; an empty status means all statuses.
func (r *Repository) AdminList(ctx context.Context, q string, status Status) ([]*Listing, error) {
	if status != "" && !status.IsValid() {
		return nil, apperr.Invalid("status", "unknown status")
	}

	conds, args := Filter{Query: strings.TrimSpace(q)}.conditions()
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(status))
	}

	query := "SELECT " + selectColumns + " FROM listings"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	return r.selectListings(ctx, query, args...)
}

// Similar returns up to limit other available listings of the same brand.
func (r *Repository) Similar(ctx context.Context, l *Listing, limit int) ([]*Listing, error) {
	return r.selectListings(ctx,
		"SELECT "+selectColumns+" FROM listings WHERE brand = ? AND status = ? AND id != ? ORDER BY created_at DESC, id DESC LIMIT ?",
		l.Brand, string(StatusAvailable), l.ID, limit,
	)
}

// Premium returns available listings priced at or above PremiumPrice, most expensive first.
func (r *Repository) Premium(ctx context.Context) ([]*Listing, error) {
	return r.selectListings(ctx,
		"SELECT "+selectColumns+" FROM listings WHERE price >= ? AND status = ? ORDER BY price DESC, id DESC",
		PremiumPrice, string(StatusAvailable),
	)
}

// Recent returns the limit most recently created listings of any status.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*Listing, error) {
	return r.selectListings(ctx,
		"SELECT "+selectColumns+" FROM listings ORDER BY created_at DESC, id DESC LIMIT ?", limit,
	)
}

// Cities returns the distinct cities of available listings, sorted.
func (r *Repository) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	err := r.db.SelectContext(ctx, &cities,
		"SELECT DISTINCT city FROM listings WHERE status = ? ORDER BY city", string(StatusAvailable),
	)
	if err != nil {
		return nil, fmt.Errorf("listing cities: %w", err)
	}
	return cities, nil
}

// SetStatus moves a listing to status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) error {
	if !status.IsValid() {
		return apperr.Invalid("status", "unknown status")
	}

	result, err := r.db.ExecContext(ctx, "UPDATE listings SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("updating listing status: %w", err)
	}
	return requireRow(result, id)
}

// ToggleStatus applies Status.Next to a listing and returns the new status.
func (r *Repository) ToggleStatus(ctx context.Context, id int64) (Status, error) {
	l, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	next := l.Status.Next()
	if err := r.SetStatus(ctx, id, next); err != nil {
		return "", err
	}
	return next, nil
}

// Delete removes a listing. Appointments and favorites cascade; messages
// keep their text but lose the listing reference.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	return requireRow(result, id)
}

func (r *Repository) selectListings(ctx context.Context, query string, args ...interface{}) ([]*Listing, error) {
	var listings []*Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	return listings, nil
}

func requireRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("listing", id)
	}
	return nil
}

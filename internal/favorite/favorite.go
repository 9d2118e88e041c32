// Package favorite stores the account-to-listing "saved" edges.
package favorite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/listing"
)

// Repository provides data access for favorites.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates a favorite repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Toggle adds the (account, listing) edge if it is absent and removes it
// otherwise. It reports whether the listing is a favorite afterwards.
func (r *Repository) Toggle(ctx context.Context, accountID, listingID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"DELETE FROM favorites WHERE account_id = ? AND listing_id = ?", accountID, listingID,
	)
	if err != nil {
		return false, fmt.Errorf("removing favorite: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}

	if removed == 0 {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO favorites (account_id, listing_id, created_at) VALUES (?, ?, ?)",
			accountID, listingID, r.now().UTC(),
		)
		if err != nil {
			return false, fmt.Errorf("adding favorite: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing favorite toggle: %w", err)
	}
	return removed == 0, nil
}

// ListByAccount returns the favorite listings of an account, most recently saved first.
func (r *Repository) ListByAccount(ctx context.Context, accountID int64) ([]*listing.Listing, error) {
	var listings []*listing.Listing
	err := r.db.SelectContext(ctx, &listings,
		`SELECT l.id, l.brand, l.model, l.price, l.year, l.mileage, l.fuel, l.transmission,
			l.city, l.status, l.description, l.image, l.created_at
		FROM favorites f
		JOIN listings l ON l.id = f.listing_id
		WHERE f.account_id = ?
		ORDER BY f.created_at DESC, f.id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return listings, nil
}

// IDsByAccount returns the set of listing IDs an account has saved.
func (r *Repository) IDsByAccount(ctx context.Context, accountID int64) (map[int64]bool, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids,
		"SELECT listing_id FROM favorites WHERE account_id = ?", accountID,
	); err != nil {
		return nil, fmt.Errorf("listing favorite ids: %w", err)
	}

	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Count returns how many edges exist for the pair; it is never more than one.
func (r *Repository) Count(ctx context.Context, accountID, listingID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM favorites WHERE account_id = ? AND listing_id = ?", accountID, listingID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting favorites: %w", err)
	}
	return n, nil
}

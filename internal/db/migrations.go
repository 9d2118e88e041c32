package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations is an ordered list of SQL statements to run.
// Timestamps are written by the application in UTC; there are no
// CURRENT_TIMESTAMP defaults so every row uses the same text format.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT     NOT NULL UNIQUE,
		email         TEXT     NOT NULL DEFAULT '',
		password_hash TEXT     NOT NULL,
		is_staff      BOOLEAN  NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		brand        TEXT     NOT NULL,
		model        TEXT     NOT NULL,
		price        INTEGER  NOT NULL CHECK (price >= 0),
		year         INTEGER  NOT NULL,
		mileage      INTEGER  NOT NULL DEFAULT 0,
		fuel         TEXT     NOT NULL DEFAULT 'Essence',
		transmission TEXT     NOT NULL DEFAULT 'Manuelle',
		city         TEXT     NOT NULL DEFAULT 'Yaoundé',
		status       TEXT     NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'available', 'sold')),
		description  TEXT     NOT NULL DEFAULT '',
		image        TEXT,
		created_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_brand ON listings (brand)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings (price)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_year ON listings (year)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_fuel ON listings (fuel)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings (city)`,
	`CREATE INDEX IF NOT EXISTS idx_status_price ON listings (status, price)`,
	`CREATE INDEX IF NOT EXISTS idx_status_created ON listings (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id   INTEGER  NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		listing_id   INTEGER  NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		phone        TEXT     NOT NULL,
		email        TEXT     NOT NULL,
		requested_at DATETIME NOT NULL,
		note         TEXT     NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER  NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		listing_id INTEGER  NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		UNIQUE (account_id, listing_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id   INTEGER  NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		receiver_id INTEGER  NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		listing_id  INTEGER  REFERENCES listings(id) ON DELETE SET NULL,
		content     TEXT     NOT NULL,
		is_read     BOOLEAN  NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_msg_receiver_read ON messages (receiver_id, is_read)`,
	`CREATE TABLE IF NOT EXISTS site_visits (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER  REFERENCES accounts(id) ON DELETE SET NULL,
		ip_address TEXT     NOT NULL DEFAULT '',
		page       TEXT     NOT NULL DEFAULT '',
		user_agent TEXT     NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visit_created ON site_visits (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		account_id INTEGER  REFERENCES accounts(id) ON DELETE CASCADE,
		data       TEXT     NOT NULL DEFAULT '{}',
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sqlx.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"accounts", "last_login_at", "DATETIME"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sqlx.DB, table, column, definition string) error {
	var count int
	err := db.Get(&count,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	)
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

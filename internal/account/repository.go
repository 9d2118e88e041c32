package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
	"github.com/Nestorservice/vente-voiture/internal/db"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

const minPasswordLen = 8

const selectColumns = `id, username, email, is_staff, created_at, last_login_at`

// Repository provides data access for accounts.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates an account repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create registers a new account with a bcrypt-hashed password.
func (r *Repository) Create(ctx context.Context, username, email, password string, staff bool) (*Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	verr := &apperr.ValidationError{}
	if username == "" {
		verr.Add("username", "is required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			verr.Add("email", "is not a valid address")
		}
	}
	if len(password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (username, email, password_hash, is_staff, created_at) VALUES (?, ?, ?, ?, ?)",
		username, email, string(hash), staff, r.now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, apperr.Invalid("username", "is already taken")
		}
		return nil, fmt.Errorf("inserting account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Authenticate checks a username/password pair and records the login time.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	var row struct {
		ID   int64  `db:"id"`
		Hash string `db:"password_hash"`
	}
	err := r.db.GetContext(ctx, &row,
		"SELECT id, password_hash FROM accounts WHERE username = ?", strings.TrimSpace(username),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.Hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET last_login_at = ? WHERE id = ?", r.now().UTC(), row.ID,
	); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}

	return r.GetByID(ctx, row.ID)
}

// GetByID returns an account by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Account, error) {
	var a Account
	err := r.db.GetContext(ctx, &a, "SELECT "+selectColumns+" FROM accounts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %d: %w", id, err)
	}
	return &a, nil
}

// FirstStaff returns the oldest staff account, the default recipient of
// customer messages.
func (r *Repository) FirstStaff(ctx context.Context) (*Account, error) {
	var a Account
	err := r.db.GetContext(ctx, &a,
		"SELECT "+selectColumns+" FROM accounts WHERE is_staff = 1 ORDER BY id LIMIT 1",
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no staff account: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying staff account: %w", err)
	}
	return &a, nil
}

// CountCustomers returns the number of non-staff accounts.
func (r *Repository) CountCustomers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM accounts WHERE is_staff = 0"); err != nil {
		return 0, fmt.Errorf("counting customers: %w", err)
	}
	return n, nil
}

// ListCustomers returns non-staff accounts with favorite and sent-message
// counts, newest first. q filters on username or email, case-insensitively.
func (r *Repository) ListCustomers(ctx context.Context, q string) ([]*Customer, error) {
	query := `SELECT a.id, a.username, a.email, a.is_staff, a.created_at, a.last_login_at,
		(SELECT COUNT(*) FROM favorites f WHERE f.account_id = a.id) AS fav_count,
		(SELECT COUNT(*) FROM messages m WHERE m.sender_id = a.id) AS msg_count
		FROM accounts a WHERE a.is_staff = 0`
	var args []interface{}

	if q = strings.TrimSpace(q); q != "" {
		pattern := db.ContainsPattern(q)
		query += " AND (" + db.Contains("a.username") + " OR " + db.Contains("a.email") + ")"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	var customers []*Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return customers, nil
}

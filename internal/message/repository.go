package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
)

// Repository provides data access for messages.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates a message repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

const selectMessages = `SELECT m.id, m.sender_id, m.receiver_id, m.listing_id, m.content, m.is_read, m.created_at,
	s.username AS sender_name, s.is_staff AS sender_staff,
	r.username AS receiver_name, r.is_staff AS receiver_staff,
	COALESCE(l.brand || ' ' || l.model, '') AS listing_title
	FROM messages m
	JOIN accounts s ON s.id = m.sender_id
	JOIN accounts r ON r.id = m.receiver_id
	LEFT JOIN listings l ON l.id = m.listing_id`

const chronological = " ORDER BY m.created_at ASC, m.id ASC"

// Insert stores a new message from senderID to receiverID and returns it.
func (r *Repository) Insert(ctx context.Context, senderID, receiverID int64, listingID *int64, content string) (*Message, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, listing_id, content, is_read, created_at) VALUES (?, ?, ?, ?, 0, ?)",
		senderID, receiverID, listingID, content, r.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a message by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Message, error) {
	var m Message
	err := r.db.GetContext(ctx, &m, selectMessages+" WHERE m.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("message", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying message %d: %w", id, err)
	}
	return &m, nil
}

// ListForAccount returns every message the account sent or received, oldest first.
func (r *Repository) ListForAccount(ctx context.Context, accountID int64) ([]*Message, error) {
	return r.selectMessages(ctx,
		selectMessages+" WHERE m.sender_id = ? OR m.receiver_id = ?"+chronological,
		accountID, accountID,
	)
}

// ListStaffInbox returns every message with a staff account on either side, oldest first.
func (r *Repository) ListStaffInbox(ctx context.Context) ([]*Message, error) {
	return r.selectMessages(ctx,
		selectMessages+" WHERE s.is_staff = 1 OR r.is_staff = 1"+chronological,
	)
}

// Thread returns the messages exchanged between two accounts, oldest first.
func (r *Repository) Thread(ctx context.Context, a, b int64) ([]*Message, error) {
	return r.selectMessages(ctx,
		selectMessages+` WHERE (m.sender_id = ? AND m.receiver_id = ?)
			OR (m.sender_id = ? AND m.receiver_id = ?)`+chronological,
		a, b, b, a,
	)
}

// StaffThread returns the messages between a customer and any staff account, oldest first.
func (r *Repository) StaffThread(ctx context.Context, clientID int64) ([]*Message, error) {
	return r.selectMessages(ctx,
		selectMessages+` WHERE (m.sender_id = ? AND r.is_staff = 1)
			OR (s.is_staff = 1 AND m.receiver_id = ?)`+chronological,
		clientID, clientID,
	)
}

// MarkRead flags every unread message from senderID to receiverID as read
// in one statement and returns how many changed.
func (r *Repository) MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE messages SET is_read = 1 WHERE receiver_id = ? AND sender_id = ? AND is_read = 0",
		receiverID, senderID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// RecentToStaff returns the limit newest messages received by staff.
func (r *Repository) RecentToStaff(ctx context.Context, limit int) ([]*Message, error) {
	return r.selectMessages(ctx,
		selectMessages+" WHERE r.is_staff = 1 ORDER BY m.created_at DESC, m.id DESC LIMIT ?", limit,
	)
}

// Count returns the total number of messages.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM messages")
}

// CountUnread returns the unread messages addressed to receiverID.
func (r *Repository) CountUnread(ctx context.Context, receiverID int64) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND is_read = 0", receiverID)
}

// CountUnreadToStaff returns the unread messages addressed to any staff account.
func (r *Repository) CountUnreadToStaff(ctx context.Context) (int, error) {
	return r.count(ctx,
		"SELECT COUNT(*) FROM messages m JOIN accounts r ON r.id = m.receiver_id WHERE r.is_staff = 1 AND m.is_read = 0",
	)
}

func (r *Repository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

func (r *Repository) selectMessages(ctx context.Context, query string, args ...interface{}) ([]*Message, error) {
	var msgs []*Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

// Package message stores buyer and staff messages and groups them into
// conversations.
package message

import "time"

// Party is one side of a message.
type Party struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

// Message is a single direct message, optionally about a listing.
type Message struct {
	ID            int64     `db:"id" json:"id"`
	SenderID      int64     `db:"sender_id" json:"sender_id"`
	ReceiverID    int64     `db:"receiver_id" json:"receiver_id"`
	ListingID     *int64    `db:"listing_id" json:"listing_id,omitempty"`
	Content       string    `db:"content" json:"content"`
	IsRead        bool      `db:"is_read" json:"is_read"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	SenderName    string    `db:"sender_name" json:"sender_name"`
	SenderStaff   bool      `db:"sender_staff" json:"-"`
	ReceiverName  string    `db:"receiver_name" json:"receiver_name"`
	ReceiverStaff bool      `db:"receiver_staff" json:"-"`
	ListingTitle  string    `db:"listing_title" json:"listing_title,omitempty"`
}

// Sender returns the sending party.
func (m *Message) Sender() Party {
	return Party{ID: m.SenderID, Username: m.SenderName, IsStaff: m.SenderStaff}
}

// Receiver returns the receiving party.
func (m *Message) Receiver() Party {
	return Party{ID: m.ReceiverID, Username: m.ReceiverName, IsStaff: m.ReceiverStaff}
}

// Conversation summarizes the messages exchanged with one counterparty.
type Conversation struct {
	Counterparty Party    `json:"counterparty"`
	ListingID    *int64   `json:"listing_id,omitempty"`
	ListingTitle string   `json:"listing_title,omitempty"`
	Latest       *Message `json:"latest"`
	Unread       int      `json:"unread"`
	Total        int      `json:"total"`
}

// Thread is the full exchange between a viewer and one counterparty,
// oldest first.
type Thread struct {
	Counterparty Party      `json:"counterparty"`
	Messages     []*Message `json:"messages"`
}

package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Nestorservice/vente-voiture/internal/account"
	"github.com/Nestorservice/vente-voiture/internal/apperr"
	"github.com/Nestorservice/vente-voiture/internal/listing"
)

// Accounts resolves message counterparties.
type Accounts interface {
	GetByID(ctx context.Context, id int64) (*account.Account, error)
	FirstStaff(ctx context.Context) (*account.Account, error)
}

// Listings resolves the listing a new message is about.
type Listings interface {
	GetByID(ctx context.Context, id int64) (*listing.Listing, error)
}

// Service implements inbox, thread and reply flows on top of the repository.
type Service struct {
	messages *Repository
	accounts Accounts
	listings Listings
}

// NewService creates a message service.
func NewService(messages *Repository, accounts Accounts, listings Listings) *Service {
	return &Service{messages: messages, accounts: accounts, listings: listings}
}

// Inbox returns the viewer's conversations, most recent first.
func (s *Service) Inbox(ctx context.Context, viewer *account.Account) ([]*Conversation, error) {
	msgs, err := s.messages.ListForAccount(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	convs := Group(msgs, ForAccount(viewer.ID))
	SortByRecent(convs)
	return convs, nil
}

// StaffInbox returns one conversation per customer who talked to staff.
func (s *Service) StaffInbox(ctx context.Context, viewer *account.Account) ([]*Conversation, error) {
	if err := requireStaff(viewer); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListStaffInbox(ctx)
	if err != nil {
		return nil, err
	}
	convs := Group(msgs, ForStaff())
	SortByRecent(convs)
	return convs, nil
}

// OpenThread loads the viewer's thread with counterpartyID and marks the
// messages addressed to the viewer as read.
func (s *Service) OpenThread(ctx context.Context, viewer *account.Account, counterpartyID int64) (*Thread, error) {
	if counterpartyID == viewer.ID {
		return nil, apperr.Invalid("user", "cannot open a conversation with yourself")
	}
	cp, err := s.accounts.GetByID(ctx, counterpartyID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.Thread(ctx, viewer.ID, cp.ID)
	if err != nil {
		return nil, err
	}
	if err := s.markRead(ctx, viewer, cp.ID, msgs); err != nil {
		return nil, err
	}
	return &Thread{Counterparty: partyOf(cp), Messages: msgs}, nil
}

// OpenStaffThread loads a customer's thread with the staff team and marks
// the messages addressed to the viewing staff member as read.
func (s *Service) OpenStaffThread(ctx context.Context, viewer *account.Account, clientID int64) (*Thread, error) {
	if err := requireStaff(viewer); err != nil {
		return nil, err
	}
	client, err := s.accounts.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.IsStaff {
		return nil, apperr.Invalid("user", "is a staff account")
	}
	msgs, err := s.messages.StaffThread(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	if err := s.markRead(ctx, viewer, client.ID, msgs); err != nil {
		return nil, err
	}
	return &Thread{Counterparty: partyOf(client), Messages: msgs}, nil
}

// Reply opens the thread with counterpartyID, then sends content to them,
// inheriting the thread's most recent listing.
func (s *Service) Reply(ctx context.Context, viewer *account.Account, counterpartyID int64, content string) (*Message, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}
	thread, err := s.OpenThread(ctx, viewer, counterpartyID)
	if err != nil {
		return nil, err
	}
	return s.messages.Insert(ctx, viewer.ID, thread.Counterparty.ID, InheritListing(thread.Messages), content)
}

// StaffReply answers a customer on behalf of the staff team.
func (s *Service) StaffReply(ctx context.Context, viewer *account.Account, clientID int64, content string) (*Message, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}
	thread, err := s.OpenStaffThread(ctx, viewer, clientID)
	if err != nil {
		return nil, err
	}
	return s.messages.Insert(ctx, viewer.ID, thread.Counterparty.ID, InheritListing(thread.Messages), content)
}

// SendToStaff sends a message about a listing to the first staff account.
func (s *Service) SendToStaff(ctx context.Context, sender *account.Account, listingID int64, content string) (*Message, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	staff, err := s.accounts.FirstStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding a staff recipient: %w", err)
	}
	id := l.ID
	return s.messages.Insert(ctx, sender.ID, staff.ID, &id, content)
}

// UnreadCount returns the number of unread messages addressed to the viewer.
func (s *Service) UnreadCount(ctx context.Context, viewer *account.Account) (int, error) {
	return s.messages.CountUnread(ctx, viewer.ID)
}

func (s *Service) markRead(ctx context.Context, viewer *account.Account, senderID int64, msgs []*Message) error {
	n, err := s.messages.MarkRead(ctx, viewer.ID, senderID)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Debug("marked messages read", "viewer", viewer.ID, "sender", senderID, "count", n)
	}
	for _, m := range msgs {
		if m.ReceiverID == viewer.ID {
			m.IsRead = true
		}
	}
	return nil
}

func requireStaff(viewer *account.Account) error {
	if viewer == nil || !viewer.IsStaff {
		return fmt.Errorf("staff inbox: %w", apperr.ErrForbidden)
	}
	return nil
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Invalid("content", "is required")
	}
	return content, nil
}

func partyOf(a *account.Account) Party {
	return Party{ID: a.ID, Username: a.Username, IsStaff: a.IsStaff}
}

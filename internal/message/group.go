package message

import "sort"

// Perspective decides, for a viewer, who the other side of a message is
// and whether the message was addressed to the viewer.
type Perspective interface {
	Counterparty(m *Message) Party
	Inbound(m *Message) bool
}

type accountView struct{ viewerID int64 }

// ForAccount views messages as the account viewerID sees them.
func ForAccount(viewerID int64) Perspective { return accountView{viewerID: viewerID} }

func (v accountView) Counterparty(m *Message) Party {
	if m.SenderID == v.viewerID {
		return m.Receiver()
	}
	return m.Sender()
}

func (v accountView) Inbound(m *Message) bool { return m.ReceiverID == v.viewerID }

type staffView struct{}

// ForStaff views messages as the staff team sees them: the counterparty is
// the customer, and anything received by a staff account is inbound.
func ForStaff() Perspective { return staffView{} }

func (staffView) Counterparty(m *Message) Party {
	if !m.SenderStaff {
		return m.Sender()
	}
	return m.Receiver()
}

func (staffView) Inbound(m *Message) bool { return m.ReceiverStaff }

// Group folds chronologically ordered messages into one conversation per
// counterparty, in order of first appearance.
func Group(msgs []*Message, p Perspective) []*Conversation {
	byParty := make(map[int64]*Conversation)
	var order []*Conversation

	for _, m := range msgs {
		cp := p.Counterparty(m)
		c, ok := byParty[cp.ID]
		if !ok {
			c = &Conversation{Counterparty: cp}
			byParty[cp.ID] = c
			order = append(order, c)
		}
		c.Latest = m
		c.Total++
		if m.ListingID != nil {
			c.ListingID = m.ListingID
			c.ListingTitle = m.ListingTitle
		}
		if p.Inbound(m) && !m.IsRead {
			c.Unread++
		}
	}

	return order
}

// SortByRecent orders conversations by their latest message, newest first.
func SortByRecent(convs []*Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		a, b := convs[i].Latest, convs[j].Latest
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// InheritListing returns the listing of the most recent message in thread
// that has one, or nil.
func InheritListing(thread []*Message) *int64 {
	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].ListingID != nil {
			id := *thread[i].ListingID
			return &id
		}
	}
	return nil
}

package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
	"github.com/Nestorservice/vente-voiture/internal/appointment"
	"github.com/Nestorservice/vente-voiture/internal/auth"
	"github.com/Nestorservice/vente-voiture/internal/listing"
)

// handleFavorites lists the signed-in account's saved listings.
func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	listings, err := s.favorites.ListByAccount(r.Context(), currentAccount(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"listings": listings}, http.StatusOK)
}

// handleFavoriteToggle saves or unsaves a listing.
func (s *Server) handleFavoriteToggle(w http.ResponseWriter, r *http.Request) {
	l, ok := s.pathListing(w, r)
	if !ok {
		return
	}
	if _, err := s.favorites.Toggle(r.Context(), currentAccount(r).ID, l.ID); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, localPath(r.FormValue("next"), listingPath(l.ID)))
}

// handleCompare shows the listings in the session's comparison list.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	listings := []*listing.Listing{}
	if c := s.compareList(r); c != nil && len(c.IDs) > 0 {
		found, err := s.listings.GetMany(r.Context(), c.IDs)
		if err != nil {
			writeError(w, r, err)
			return
		}
		listings = found
	}
	apiJSON(w, map[string]interface{}{"listings": listings}, http.StatusOK)
}

// handleCompareAdd pushes a listing onto the comparison list, starting an
// anonymous session if needed.
func (s *Server) handleCompareAdd(w http.ResponseWriter, r *http.Request) {
	l, ok := s.pathListing(w, r)
	if !ok {
		return
	}

	sess := auth.SessionFrom(r.Context())
	if sess == nil {
		var err error
		if sess, err = s.sessions.Create(r.Context(), w, nil, nil); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := s.updateCompare(r, sess, func(c *auth.CompareList) bool { return c.Push(l.ID) }); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, "/compare")
}

// handleCompareRemove drops a listing from the comparison list.
func (s *Server) handleCompareRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sess := auth.SessionFrom(r.Context()); sess != nil {
		if err := s.updateCompare(r, sess, func(c *auth.CompareList) bool { return c.Remove(id) }); err != nil {
			writeError(w, r, err)
			return
		}
	}
	seeOther(w, r, "/compare")
}

func (s *Server) updateCompare(r *http.Request, sess *auth.Session, change func(*auth.CompareList) bool) error {
	c, err := sess.Compare()
	if err != nil {
		return err
	}
	if !change(c) {
		return nil
	}
	if err := sess.SetCompare(c); err != nil {
		return err
	}
	return s.sessions.Save(r.Context(), sess)
}

// compareList returns the request session's comparison list, or nil.
func (s *Server) compareList(r *http.Request) *auth.CompareList {
	sess := auth.SessionFrom(r.Context())
	if sess == nil {
		return nil
	}
	c, err := sess.Compare()
	if err != nil {
		return nil
	}
	return c
}

// handleAppointmentCreate books a viewing of a listing.
func (s *Server) handleAppointmentCreate(w http.ResponseWriter, r *http.Request) {
	l, ok := s.pathListing(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		apiError(w, "bad request", http.StatusBadRequest)
		return
	}

	req := appointment.Request{
		Phone: r.FormValue("phone"),
		Email: r.FormValue("email"),
		Note:  r.FormValue("note"),
	}
	if v := strings.TrimSpace(r.FormValue("requested_at")); v != "" {
		at, err := parseRequestedAt(v)
		if err != nil {
			writeError(w, r, apperr.Invalid("requested_at", "must look like 2006-01-02T15:04"))
			return
		}
		req.RequestedAt = at
	}

	if _, err := s.appointments.Create(r.Context(), currentAccount(r).ID, l.ID, req); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, listingPath(l.ID))
}

// parseRequestedAt accepts RFC 3339 or an HTML datetime-local value, which
// is taken as UTC.
func parseRequestedAt(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", v)
}

// handleSendToStaff sends a question about a listing to the staff team.
func (s *Server) handleSendToStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.messages.SendToStaff(r.Context(), currentAccount(r), id, r.FormValue("content")); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, listingPath(id))
}

// handleInbox lists the signed-in account's conversations.
func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	acct := currentAccount(r)
	convs, err := s.messages.Inbox(r.Context(), acct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	unread, err := s.messages.UnreadCount(r.Context(), acct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"conversations": convs, "unread": unread}, http.StatusOK)
}

// handleThread shows one conversation and marks it read.
func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	thread, err := s.messages.OpenThread(r.Context(), currentAccount(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, thread, http.StatusOK)
}

// handleReply answers within a conversation.
func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.messages.Reply(r.Context(), currentAccount(r), id, r.FormValue("content")); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, fmt.Sprintf("/messages/%d", id))
}

// pathListing loads the listing named by the {id} route variable, writing
// the error response itself when that fails.
func (s *Server) pathListing(w http.ResponseWriter, r *http.Request) (*listing.Listing, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	l, err := s.listings.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return l, true
}

func listingPath(id int64) string {
	return fmt.Sprintf("/listings/%d", id)
}

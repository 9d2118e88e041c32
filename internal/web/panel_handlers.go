package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Nestorservice/vente-voiture/internal/appointment"
	"github.com/Nestorservice/vente-voiture/internal/listing"
)

const activityLimit = 200

// handleDashboard renders the staff dashboard snapshot.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dashboard.Snapshot(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, snap, http.StatusOK)
}

// handlePanelListings lists every listing, filtered by ?q= and ?status=.
func (s *Server) handlePanelListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listings, err := s.listings.AdminList(r.Context(), q.Get("q"), listing.Status(q.Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"listings": listings}, http.StatusOK)
}

func (s *Server) handlePanelToggle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.listings.ToggleStatus(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("listing status changed", "listing", id, "status", status, "by", currentAccount(r).ID)
	seeOther(w, r, "/panel/listings")
}

func (s *Server) handlePanelDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.listings.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("listing deleted", "listing", id, "by", currentAccount(r).ID)
	seeOther(w, r, "/panel/listings")
}

// handlePanelInbox lists one conversation per customer.
func (s *Server) handlePanelInbox(w http.ResponseWriter, r *http.Request) {
	convs, err := s.messages.StaffInbox(r.Context(), currentAccount(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"conversations": convs}, http.StatusOK)
}

func (s *Server) handlePanelThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	thread, err := s.messages.OpenStaffThread(r.Context(), currentAccount(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, thread, http.StatusOK)
}

func (s *Server) handlePanelReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.messages.StaffReply(r.Context(), currentAccount(r), id, r.FormValue("content")); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, fmt.Sprintf("/panel/messages/%d", id))
}

// handlePanelUsers lists customers with their activity counts.
func (s *Server) handlePanelUsers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.accounts.ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"users": customers}, http.StatusOK)
}

// handlePanelActivity lists recent visits and today's unique visitors.
func (s *Server) handlePanelActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visits, err := s.visits.List(ctx, r.URL.Query().Get("q"), activityLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.dashboard.ActivitySummary(ctx, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{
		"visits":           visits,
		"unique_ips_today": summary.UniqueIPsToday,
	}, http.StatusOK)
}

// handlePanelAppointments lists appointments, filtered by ?q= and
// ?status=upcoming|past, with summary counts.
func (s *Server) handlePanelAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()
	q := r.URL.Query()

	list, err := s.appointments.List(ctx, q.Get("q"), appointment.When(q.Get("status")), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.appointments.Stats(ctx, now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"appointments": list, "stats": stats}, http.StatusOK)
}

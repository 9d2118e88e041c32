package web

import (
	"net/http"
	"sort"

	"github.com/Nestorservice/vente-voiture/internal/listing"
)

type homeView struct {
	Listings     []*listing.Listing `json:"listings"`
	Cities       []string           `json:"cities"`
	Filter       listing.Filter     `json:"filter"`
	FavoriteIDs  []int64            `json:"favorite_ids,omitempty"`
	CompareCount int                `json:"compare_count"`
}

type detailView struct {
	Listing    *listing.Listing   `json:"listing"`
	Similar    []*listing.Listing `json:"similar"`
	IsFavorite bool               `json:"is_favorite"`
	InCompare  bool               `json:"in_compare"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleHome lists available listings matching the query-string filter.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := listing.FilterFromValues(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	listings, err := s.listings.Browse(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cities, err := s.listings.Cities(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := homeView{Listings: listings, Cities: cities, Filter: f}
	if acct := currentAccount(r); acct != nil {
		ids, err := s.favorites.IDsByAccount(ctx, acct.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for id := range ids {
			view.FavoriteIDs = append(view.FavoriteIDs, id)
		}
		sort.Slice(view.FavoriteIDs, func(i, j int) bool { return view.FavoriteIDs[i] < view.FavoriteIDs[j] })
	}
	if c := s.compareList(r); c != nil {
		view.CompareCount = len(c.IDs)
	}

	apiJSON(w, view, http.StatusOK)
}

// handleVIP lists the premium selection.
func (s *Server) handleVIP(w http.ResponseWriter, r *http.Request) {
	listings, err := s.listings.Premium(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"listings": listings}, http.StatusOK)
}

// handleDetail shows one listing with up to three others of the same brand.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	similar, err := s.listings.Similar(ctx, l, 3)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := detailView{Listing: l, Similar: similar}
	if acct := currentAccount(r); acct != nil {
		ids, err := s.favorites.IDsByAccount(ctx, acct.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		view.IsFavorite = ids[l.ID]
	}
	if c := s.compareList(r); c != nil {
		view.InCompare = c.Contains(l.ID)
	}

	apiJSON(w, view, http.StatusOK)
}

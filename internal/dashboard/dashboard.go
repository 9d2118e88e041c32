// Package dashboard computes the staff panel's operational metrics.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/account"
	"github.com/Nestorservice/vente-voiture/internal/appointment"
	"github.com/Nestorservice/vente-voiture/internal/listing"
	"github.com/Nestorservice/vente-voiture/internal/message"
	"github.com/Nestorservice/vente-voiture/internal/visit"
)

const (
	recentLimit  = 5
	onlineWindow = 5 * time.Minute

	dayLabel   = "02/01"
	monthLabel = "Jan 2006"
)

// ListingCounts counts listings by status.
type ListingCounts struct {
	Total     int `json:"total" yaml:"total"`
	Available int `json:"available" yaml:"available"`
	Sold      int `json:"sold" yaml:"sold"`
	Pending   int `json:"pending" yaml:"pending"`
}

// AppointmentCounts counts appointment requests.
type AppointmentCounts struct {
	Total    int `json:"total" yaml:"total"`
	LastWeek int `json:"last_week" yaml:"last_week"`
}

// MessageCounts counts messages.
type MessageCounts struct {
	Total         int `json:"total" yaml:"total"`
	UnreadToStaff int `json:"unread_to_staff" yaml:"unread_to_staff"`
}

// VisitCounts counts logged page views.
type VisitCounts struct {
	LastMonth int `json:"last_month" yaml:"last_month"`
	Today     int `json:"today" yaml:"today"`
	Online    int `json:"online" yaml:"online"`
}

// Point is one bucket of a sparse time series. Buckets without
// observations are absent.
type Point struct {
	Start time.Time `json:"start" yaml:"start"`
	Label string    `json:"label" yaml:"label"`
	Count int       `json:"count" yaml:"count"`
}

// Snapshot is the dashboard as of one instant.
type Snapshot struct {
	At                  time.Time             `json:"at" yaml:"at"`
	Listings            ListingCounts         `json:"listings" yaml:"listings"`
	Revenue             int64                 `json:"revenue" yaml:"revenue"`
	Customers           int                   `json:"customers" yaml:"customers"`
	Appointments        AppointmentCounts     `json:"appointments" yaml:"appointments"`
	Messages            MessageCounts         `json:"messages" yaml:"messages"`
	Visits              VisitCounts           `json:"visits" yaml:"visits"`
	DailyVisits         []Point               `json:"daily_visits" yaml:"daily_visits"`
	MonthlyAppointments []Point               `json:"monthly_appointments" yaml:"monthly_appointments"`
	RecentListings      []*listing.Listing    `json:"recent_listings" yaml:"-"`
	RecentAppointments  []*appointment.Detail `json:"recent_appointments" yaml:"-"`
	RecentMessages      []*message.Message    `json:"recent_messages" yaml:"-"`
}

// Activity is the header of the staff activity page.
type Activity struct {
	UniqueIPsToday int `json:"unique_ips_today"`
}

// Aggregator runs the dashboard queries. Each metric is its own query;
// there is no enclosing transaction.
type Aggregator struct {
	db           *sqlx.DB
	accounts     *account.Repository
	listings     *listing.Repository
	appointments *appointment.Repository
	messages     *message.Repository
	visits       *visit.Repository
}

// NewAggregator creates an aggregator over db.
func NewAggregator(db *sqlx.DB) *Aggregator {
	return &Aggregator{
		db:           db,
		accounts:     account.NewRepository(db),
		listings:     listing.NewRepository(db),
		appointments: appointment.NewRepository(db),
		messages:     message.NewRepository(db),
		visits:       visit.NewRepository(db),
	}
}

// Snapshot computes every metric relative to now.
func (a *Aggregator) Snapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	now = now.UTC()
	s := &Snapshot{At: now}
	var err error

	if s.Listings, err = a.listingCounts(ctx); err != nil {
		return nil, err
	}
	if s.Revenue, err = a.revenue(ctx); err != nil {
		return nil, err
	}
	if s.Customers, err = a.accounts.CountCustomers(ctx); err != nil {
		return nil, err
	}

	if err = a.db.GetContext(ctx, &s.Appointments.Total, "SELECT COUNT(*) FROM appointments"); err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}
	if err = a.db.GetContext(ctx, &s.Appointments.LastWeek,
		"SELECT COUNT(*) FROM appointments WHERE created_at >= ?", now.AddDate(0, 0, -7),
	); err != nil {
		return nil, fmt.Errorf("counting recent appointments: %w", err)
	}

	if s.Messages.Total, err = a.messages.Count(ctx); err != nil {
		return nil, err
	}
	if s.Messages.UnreadToStaff, err = a.messages.CountUnreadToStaff(ctx); err != nil {
		return nil, err
	}

	day := startOfDay(now)
	if s.Visits.LastMonth, err = a.visits.CountSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		return nil, err
	}
	if s.Visits.Today, err = a.visits.CountBetween(ctx, day, day.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}
	if s.Visits.Online, err = a.visits.UniqueIPsSince(ctx, now.Add(-onlineWindow)); err != nil {
		return nil, err
	}

	if s.DailyVisits, err = a.series(ctx,
		"SELECT date(created_at) AS bucket, COUNT(*) AS n FROM site_visits WHERE created_at >= ? GROUP BY bucket ORDER BY bucket",
		now.AddDate(0, 0, -7), dayLabel,
	); err != nil {
		return nil, fmt.Errorf("daily visits: %w", err)
	}
	if s.MonthlyAppointments, err = a.series(ctx,
		"SELECT strftime('%Y-%m-01', created_at) AS bucket, COUNT(*) AS n FROM appointments WHERE created_at >= ? GROUP BY bucket ORDER BY bucket",
		now.AddDate(0, 0, -180), monthLabel,
	); err != nil {
		return nil, fmt.Errorf("monthly appointments: %w", err)
	}

	if s.RecentListings, err = a.listings.Recent(ctx, recentLimit); err != nil {
		return nil, err
	}
	if s.RecentAppointments, err = a.appointments.Recent(ctx, recentLimit); err != nil {
		return nil, err
	}
	if s.RecentMessages, err = a.messages.RecentToStaff(ctx, recentLimit); err != nil {
		return nil, err
	}

	return s, nil
}

// ActivitySummary counts the distinct visitor IPs of now's calendar day.
func (a *Aggregator) ActivitySummary(ctx context.Context, now time.Time) (*Activity, error) {
	day := startOfDay(now.UTC())
	n, err := a.visits.UniqueIPsBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return &Activity{UniqueIPsToday: n}, nil
}

func (a *Aggregator) listingCounts(ctx context.Context) (ListingCounts, error) {
	var rows []struct {
		Status listing.Status `db:"status"`
		N      int            `db:"n"`
	}
	if err := a.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS n FROM listings GROUP BY status",
	); err != nil {
		return ListingCounts{}, fmt.Errorf("counting listings: %w", err)
	}

	var c ListingCounts
	for _, r := range rows {
		c.Total += r.N
		switch r.Status {
		case listing.StatusAvailable:
			c.Available = r.N
		case listing.StatusSold:
			c.Sold = r.N
		case listing.StatusPending:
			c.Pending = r.N
		}
	}
	return c, nil
}

func (a *Aggregator) revenue(ctx context.Context) (int64, error) {
	var total int64
	if err := a.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(price), 0) FROM listings WHERE status = ?", string(listing.StatusSold),
	); err != nil {
		return 0, fmt.Errorf("summing revenue: %w", err)
	}
	return total, nil
}

func (a *Aggregator) series(ctx context.Context, query string, since time.Time, layout string) ([]Point, error) {
	var rows []struct {
		Bucket string `db:"bucket"`
		N      int    `db:"n"`
	}
	if err := a.db.SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		start, err := time.Parse(time.DateOnly, r.Bucket)
		if err != nil {
			return nil, fmt.Errorf("parsing bucket %q: %w", r.Bucket, err)
		}
		points = append(points, Point{Start: start, Label: start.Format(layout), Count: r.N})
	}
	return points, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

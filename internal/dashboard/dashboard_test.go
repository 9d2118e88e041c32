package dashboard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nestorservice/vente-voiture/internal/account"
	"github.com/Nestorservice/vente-voiture/internal/db"
	"github.com/Nestorservice/vente-voiture/internal/listing"
	"github.com/Nestorservice/vente-voiture/internal/message"
	"github.com/Nestorservice/vente-voiture/internal/visit"
)

var now = time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)

func TestSnapshotEmpty(t *testing.T) {
	agg, _ := testSetup(t)

	s, err := agg.Snapshot(context.Background(), now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Revenue != 0 {
		t.Errorf("revenue = %d, want 0", s.Revenue)
	}
	if s.Listings != (ListingCounts{}) || s.Visits != (VisitCounts{}) {
		t.Errorf("counts = %+v %+v, want zero", s.Listings, s.Visits)
	}
	if len(s.DailyVisits) != 0 || len(s.MonthlyAppointments) != 0 {
		t.Errorf("series = %v %v, want empty", s.DailyVisits, s.MonthlyAppointments)
	}
	if !s.At.Equal(now) {
		t.Errorf("at = %v, want %v", s.At, now)
	}
}

func TestSnapshotListingsAndRevenue(t *testing.T) {
	agg, d := testSetup(t)
	ctx := context.Background()
	listings := listing.NewRepository(d)

	for _, l := range []listing.Listing{
		{Brand: "A", Model: "1", Year: 2020, Price: 1_000_000, Status: listing.StatusSold},
		{Brand: "B", Model: "2", Year: 2020, Price: 2_500_000, Status: listing.StatusSold},
		{Brand: "C", Model: "3", Year: 2020, Price: 9_000_000, Status: listing.StatusAvailable},
		{Brand: "D", Model: "4", Year: 2020, Price: 4_000_000},
	} {
		if _, err := listings.Insert(ctx, &l); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	s, err := agg.Snapshot(ctx, now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := ListingCounts{Total: 4, Available: 1, Sold: 2, Pending: 1}
	if s.Listings != want {
		t.Errorf("listings = %+v, want %+v", s.Listings, want)
	}
	if s.Revenue != 3_500_000 {
		t.Errorf("revenue = %d, want 3500000", s.Revenue)
	}
	if len(s.RecentListings) != 4 {
		t.Errorf("recent listings = %d, want 4", len(s.RecentListings))
	}
	if s.Customers != 1 {
		t.Errorf("customers = %d, want 1", s.Customers)
	}
}

func TestDailyVisitsAreSparse(t *testing.T) {
	agg, d := testSetup(t)
	ctx := context.Background()
	visits := visit.NewRepository(d)

	d1 := time.Date(2025, 7, 5, 9, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 7, 7, 18, 0, 0, 0, time.UTC)
	at := []time.Time{
		d1, d1.Add(time.Hour), d1.Add(5 * time.Hour),
		d3,
		now.AddDate(0, 0, -9), // outside the window
	}
	for i, ts := range at {
		if err := visits.Insert(ctx, &visit.Record{IPAddress: "10.0.0.1", Page: "/", CreatedAt: ts}); err != nil {
			t.Fatalf("insert visit %d: %v", i, err)
		}
	}

	s, err := agg.Snapshot(ctx, now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(s.DailyVisits) != 2 {
		t.Fatalf("daily points = %+v, want 2", s.DailyVisits)
	}
	first, second := s.DailyVisits[0], s.DailyVisits[1]
	if first.Label != "05/07" || first.Count != 3 || !first.Start.Equal(time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first point = %+v", first)
	}
	if second.Label != "07/07" || second.Count != 1 {
		t.Errorf("second point = %+v", second)
	}
	if s.Visits.LastMonth != 5 {
		t.Errorf("last month = %d, want 5", s.Visits.LastMonth)
	}
}

func TestVisitsTodayAndOnline(t *testing.T) {
	agg, d := testSetup(t)
	ctx := context.Background()
	visits := visit.NewRepository(d)

	records := []visit.Record{
		{IPAddress: "1.1.1.1", CreatedAt: now.Add(-time.Minute)},
		{IPAddress: "1.1.1.1", CreatedAt: now.Add(-2 * time.Minute)},
		{IPAddress: "2.2.2.2", CreatedAt: now.Add(-4 * time.Minute)},
		{IPAddress: "3.3.3.3", CreatedAt: now.Add(-10 * time.Minute)},
		{IPAddress: "4.4.4.4", CreatedAt: time.Date(2025, 7, 9, 23, 59, 0, 0, time.UTC)},
	}
	for i := range records {
		if err := visits.Insert(ctx, &records[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	s, err := agg.Snapshot(ctx, now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Visits.Today != 4 {
		t.Errorf("today = %d, want 4 (calendar day, not rolling 24h)", s.Visits.Today)
	}
	if s.Visits.Online != 2 {
		t.Errorf("online = %d, want 2 distinct ips in 5 minutes", s.Visits.Online)
	}

	act, err := agg.ActivitySummary(ctx, now)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if act.UniqueIPsToday != 3 {
		t.Errorf("unique ips today = %d, want 3", act.UniqueIPsToday)
	}
}

func TestMonthlyAppointments(t *testing.T) {
	agg, d := testSetup(t)
	ctx := context.Background()

	l, err := listing.NewRepository(d).Insert(ctx, &listing.Listing{Brand: "Kia", Model: "Sportage", Year: 2021})
	if err != nil {
		t.Fatalf("insert listing: %v", err)
	}
	created := []time.Time{
		time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 8, 10, 0, 0, 0, time.UTC),
		now.AddDate(0, 0, -200),
	}
	for _, c := range created {
		if _, err := d.Exec(
			`INSERT INTO appointments (account_id, listing_id, phone, email, requested_at, note, created_at)
			VALUES (1, ?, '600', 'a@b.cm', ?, '', ?)`, l.ID, c, c,
		); err != nil {
			t.Fatalf("insert appointment: %v", err)
		}
	}

	s, err := agg.Snapshot(ctx, now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(s.MonthlyAppointments) != 2 {
		t.Fatalf("monthly = %+v, want 2 points", s.MonthlyAppointments)
	}
	if p := s.MonthlyAppointments[0]; p.Label != "May 2025" || p.Count != 2 {
		t.Errorf("first month = %+v", p)
	}
	if p := s.MonthlyAppointments[1]; p.Label != "Jul 2025" || p.Count != 1 {
		t.Errorf("second month = %+v", p)
	}
	if s.Appointments.Total != 4 || s.Appointments.LastWeek != 1 {
		t.Errorf("appointments = %+v, want total 4, last week 1", s.Appointments)
	}
	if len(s.RecentAppointments) != 4 {
		t.Errorf("recent appointments = %d, want 4", len(s.RecentAppointments))
	}
}

func TestSnapshotMessages(t *testing.T) {
	agg, d := testSetup(t)
	ctx := context.Background()
	accounts := account.NewRepository(d)
	messages := message.NewRepository(d)

	staff, err := accounts.Create(ctx, "staff", "", "password123", true)
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if _, err := messages.Insert(ctx, 1, staff.ID, nil, "hello"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := messages.Insert(ctx, staff.ID, 1, nil, "hi"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	s, err := agg.Snapshot(ctx, now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Messages.Total != 2 || s.Messages.UnreadToStaff != 1 {
		t.Errorf("messages = %+v, want total 2 unread 1", s.Messages)
	}
	if len(s.RecentMessages) != 1 || s.RecentMessages[0].Content != "hello" {
		t.Errorf("recent messages = %+v", s.RecentMessages)
	}
	if s.Customers != 1 {
		t.Errorf("customers = %d, want 1 (staff excluded)", s.Customers)
	}
}

// testSetup opens a database with one customer account (ID 1).
func testSetup(t *testing.T) (*Aggregator, *sqlx.DB) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if _, err := account.NewRepository(d).Create(context.Background(), "customer", "", "password123", false); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return NewAggregator(d), d
}

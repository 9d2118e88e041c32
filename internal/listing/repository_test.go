package listing

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
	"github.com/Nestorservice/vente-voiture/internal/db"
)

func TestInsertDefaults(t *testing.T) {
	repo := testSetup(t)

	l, err := repo.Insert(context.Background(), &Listing{Brand: "Toyota", Model: "Corolla", Price: 4_500_000, Year: 2015})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if l.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if l.Fuel != FuelPetrol || l.Transmission != TransmissionManual {
		t.Errorf("fuel/transmission = %s/%s, want defaults", l.Fuel, l.Transmission)
	}
	if l.City != DefaultCity {
		t.Errorf("city = %q, want %q", l.City, DefaultCity)
	}
	if l.Status != StatusPending {
		t.Errorf("status = %s, want pending", l.Status)
	}
	if l.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestInsertValidation(t *testing.T) {
	repo := testSetup(t)

	tests := []struct {
		name    string
		listing Listing
	}{
		{"missing brand", Listing{Model: "X5", Year: 2018}},
		{"negative price", Listing{Brand: "BMW", Model: "X5", Price: -1, Year: 2018}},
		{"year too old", Listing{Brand: "BMW", Model: "X5", Year: 1850}},
		{"bad fuel", Listing{Brand: "BMW", Model: "X5", Year: 2018, Fuel: "Steam"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.listing
			if _, err := repo.Insert(context.Background(), &l); !apperr.IsValidation(err) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testSetup(t)
	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBrowseCompositeFilter(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()

	match := seed(t, repo, Listing{Brand: "Peugeot", Model: "308", Price: 30000, Year: 2016, Fuel: FuelDiesel, Status: StatusAvailable})
	seed(t, repo, Listing{Brand: "Peugeot", Model: "508", Price: 30000, Year: 2016, Fuel: FuelDiesel, Status: StatusSold})
	seed(t, repo, Listing{Brand: "Renault", Model: "Clio", Price: 30000, Year: 2016, Fuel: FuelPetrol, Status: StatusAvailable})
	seed(t, repo, Listing{Brand: "Toyota", Model: "Hilux", Price: 60000, Year: 2016, Fuel: FuelDiesel, Status: StatusAvailable})
	seed(t, repo, Listing{Brand: "Kia", Model: "Rio", Price: 9999, Year: 2016, Fuel: FuelDiesel, Status: StatusAvailable})
	edge := seed(t, repo, Listing{Brand: "Ford", Model: "Focus", Price: 50000, Year: 2016, Fuel: FuelDiesel, Status: StatusAvailable})

	f, err := FilterFromValues(url.Values{
		"price_min": {"10000"},
		"price_max": {"50000"},
		"fuel":      {"Diesel"},
		"q":         {""},
		"city":      {""},
	})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	got, err := repo.Browse(ctx, f)
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	ids := map[int64]bool{}
	for _, l := range got {
		ids[l.ID] = true
		if l.Status != StatusAvailable || l.Fuel != FuelDiesel || l.Price < 10000 || l.Price > 50000 {
			t.Errorf("listing %d (%s) violates filter", l.ID, l.Title())
		}
	}
	if len(got) != 2 || !ids[match.ID] || !ids[edge.ID] {
		t.Errorf("browse returned %d listings, want the 308 and the Focus", len(got))
	}
}

func TestBrowseFoldsNonASCIICase(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()

	want := seed(t, repo, Listing{Brand: "Škoda", Model: "Octavia", Year: 2019, City: "Yaoundé", Status: StatusAvailable})
	seed(t, repo, Listing{Brand: "Toyota", Model: "Yaris", Year: 2019, City: "Douala", Status: StatusAvailable})

	for _, f := range []Filter{
		{City: "YAOUNDÉ"},
		{City: "yaoundé"},
		{City: "Yaoundé"},
		{Query: "YAOUNDÉ"},
		{Query: "ŠKODA"},
	} {
		got, err := repo.Browse(ctx, f)
		if err != nil {
			t.Fatalf("browse %+v: %v", f, err)
		}
		if len(got) != 1 || got[0].ID != want.ID {
			t.Errorf("browse %+v = %v, want [Škoda Octavia]", f, titles(got))
		}
	}

	got, err := repo.Browse(ctx, Filter{Query: "_"})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("query _ = %v, want no listings", titles(got))
	}
}

func TestBrowseTextAndCity(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()

	seed(t, repo, Listing{Brand: "Mercedes", Model: "C200", Year: 2019, City: "Douala", Status: StatusAvailable})
	seed(t, repo, Listing{Brand: "Toyota", Model: "RAV4", Year: 2019, City: "Yaoundé", Status: StatusAvailable})
	seed(t, repo, Listing{Brand: "Nissan", Model: "Patrol", Year: 2019, City: "Douala", Status: StatusPending})

	got, err := repo.Browse(ctx, Filter{Query: "DOUALA"})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(got) != 1 || got[0].Brand != "Mercedes" {
		t.Errorf("query douala = %d listings, want only the available Mercedes", len(got))
	}

	got, err = repo.Browse(ctx, Filter{City: "oual"})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("city substring = %d listings, want 1", len(got))
	}

	all, err := repo.Browse(ctx, Filter{})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("empty filter = %d listings, want 2 available", len(all))
	}
}

func TestBrowseNewestFirst(t *testing.T) {
	repo := testSetup(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, model := range []string{"first", "second", "third"} {
		repo.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		seed(t, repo, Listing{Brand: "Honda", Model: model, Year: 2020, Status: StatusAvailable})
	}

	got, err := repo.Browse(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(got) != 3 || got[0].Model != "third" || got[2].Model != "first" {
		t.Errorf("order = %v, want newest first", titles(got))
	}
}

func TestSimilarAndPremium(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()

	self := seed(t, repo, Listing{Brand: "Toyota", Model: "Prado", Price: 35_000_000, Year: 2021, Status: StatusAvailable})
	for _, m := range []string{"Yaris", "Camry", "Hilux", "Corolla"} {
		seed(t, repo, Listing{Brand: "Toyota", Model: m, Price: 8_000_000, Year: 2018, Status: StatusAvailable})
	}
	seed(t, repo, Listing{Brand: "Toyota", Model: "Supra", Price: 25_000_000, Year: 2020, Status: StatusSold})
	seed(t, repo, Listing{Brand: "Lexus", Model: "LX", Price: 60_000_000, Year: 2022, Status: StatusAvailable})

	similar, err := repo.Similar(ctx, self, 3)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(similar) != 3 {
		t.Fatalf("similar = %d, want 3", len(similar))
	}
	for _, l := range similar {
		if l.ID == self.ID || l.Brand != "Toyota" || l.Status != StatusAvailable {
			t.Errorf("unexpected similar listing %s (%s)", l.Title(), l.Status)
		}
	}

	premium, err := repo.Premium(ctx)
	if err != nil {
		t.Fatalf("premium: %v", err)
	}
	if got := titles(premium); len(got) != 2 || got[0] != "Lexus LX" || got[1] != "Toyota Prado" {
		t.Errorf("premium = %v, want [Lexus LX, Toyota Prado]", got)
	}
}

func TestToggleStatusCycle(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()
	l := seed(t, repo, Listing{Brand: "Suzuki", Model: "Swift", Year: 2017})

	want := []Status{StatusAvailable, StatusSold, StatusAvailable}
	for i, w := range want {
		got, err := repo.ToggleStatus(ctx, l.ID)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if got != w {
			t.Errorf("toggle %d = %s, want %s", i, got, w)
		}
	}

	if _, err := repo.ToggleStatus(ctx, 12345); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("toggle missing = %v, want ErrNotFound", err)
	}
}

func TestAdminListAndCities(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()

	seed(t, repo, Listing{Brand: "Audi", Model: "A4", Year: 2015, City: "Douala", Status: StatusSold})
	seed(t, repo, Listing{Brand: "Audi", Model: "Q5", Year: 2016, City: "Kribi", Status: StatusAvailable})
	seed(t, repo, Listing{Brand: "Opel", Model: "Astra", Year: 2012, City: "Bafoussam", Status: StatusAvailable})

	all, err := repo.AdminList(ctx, "", "")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("admin list = %d, want 3", len(all))
	}

	sold, err := repo.AdminList(ctx, "audi", StatusSold)
	if err != nil {
		t.Fatalf("admin list sold: %v", err)
	}
	if len(sold) != 1 || sold[0].Model != "A4" {
		t.Errorf("sold audi = %v, want [Audi A4]", titles(sold))
	}

	if _, err := repo.AdminList(ctx, "", "archived"); !apperr.IsValidation(err) {
		t.Errorf("unknown status err = %v, want validation", err)
	}

	cities, err := repo.Cities(ctx)
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	if len(cities) != 2 || cities[0] != "Bafoussam" || cities[1] != "Kribi" {
		t.Errorf("cities = %v, want [Bafoussam Kribi]", cities)
	}
}

func TestGetManyKeepsOrder(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()

	a := seed(t, repo, Listing{Brand: "A", Model: "1", Year: 2020})
	b := seed(t, repo, Listing{Brand: "B", Model: "2", Year: 2020})

	got, err := repo.GetMany(ctx, []int64{b.ID, 999, a.ID})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("get many = %v, want [B 2, A 1]", titles(got))
	}

	none, err := repo.GetMany(ctx, nil)
	if err != nil || none != nil {
		t.Errorf("get many empty = %v, %v", none, err)
	}
}

func TestDelete(t *testing.T) {
	repo := testSetup(t)
	ctx := context.Background()
	l := seed(t, repo, Listing{Brand: "Fiat", Model: "Panda", Year: 2011})

	if err := repo.Delete(ctx, l.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, l.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, l.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func seed(t *testing.T, repo *Repository, l Listing) *Listing {
	t.Helper()
	created, err := repo.Insert(context.Background(), &l)
	if err != nil {
		t.Fatalf("seed %s: %v", l.Title(), err)
	}
	return created
}

func titles(ls []*Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Title()
	}
	return out
}

func testSetup(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Nestorservice/vente-voiture/internal/account"
	"github.com/Nestorservice/vente-voiture/internal/dashboard"
	"github.com/Nestorservice/vente-voiture/internal/listing"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML marshals v as YAML and writes it to stdout.
func printYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// printStructured writes v in the --format encoding. It reports false for
// text, which each command renders itself.
func printStructured(v interface{}) (bool, error) {
	switch flagFormat {
	case "json":
		return true, printJSON(v)
	case "yaml":
		return true, printYAML(v)
	default:
		return false, nil
	}
}

// printListingSummary prints a single listing in text format.
func printListingSummary(l *listing.Listing) {
	fmt.Printf("Listing #%d\n", l.ID)
	fmt.Printf("  Vehicle:  %s (%d)\n", l.Title(), l.Year)
	fmt.Printf("  Price:    %s FCFA\n", formatPrice(l.Price))
	fmt.Printf("  Mileage:  %s km\n", formatPrice(int64(l.Mileage)))
	fmt.Printf("  Engine:   %s, %s\n", l.Fuel, l.Transmission)
	fmt.Printf("  City:     %s\n", l.City)
	fmt.Printf("  Status:   %s\n", l.Status)
}

// printAccountSummary prints a single account in text format.
func printAccountSummary(a *account.Account) {
	role := "customer"
	if a.IsStaff {
		role = "staff"
	}
	fmt.Printf("Account #%d\n", a.ID)
	fmt.Printf("  Username: %s\n", a.Username)
	if a.Email != "" {
		fmt.Printf("  Email:    %s\n", a.Email)
	}
	fmt.Printf("  Role:     %s\n", role)
}

// writeSnapshot renders a dashboard snapshot as text.
func writeSnapshot(out io.Writer, s *dashboard.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	lines := []string{
		fmt.Sprintf("Snapshot at\t%s", s.At.Format("2006-01-02 15:04 MST")),
		fmt.Sprintf("Listings\t%d (%d available, %d sold, %d pending)",
			s.Listings.Total, s.Listings.Available, s.Listings.Sold, s.Listings.Pending),
		fmt.Sprintf("Revenue\t%s FCFA", formatPrice(s.Revenue)),
		fmt.Sprintf("Customers\t%d", s.Customers),
		fmt.Sprintf("Appointments\t%d (%d in the last 7 days)", s.Appointments.Total, s.Appointments.LastWeek),
		fmt.Sprintf("Messages\t%d (%d unread by staff)", s.Messages.Total, s.Messages.UnreadToStaff),
		fmt.Sprintf("Visits\t%d last 30 days, %d today, %d online", s.Visits.LastMonth, s.Visits.Today, s.Visits.Online),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	if err := writeSeries(out, "Daily visits", s.DailyVisits); err != nil {
		return err
	}
	return writeSeries(out, "Monthly appointments", s.MonthlyAppointments)
}

func writeSeries(out io.Writer, title string, points []dashboard.Point) error {
	if _, err := fmt.Fprintf(out, "\n%s:\n", title); err != nil {
		return fmt.Errorf("writing series: %w", err)
	}
	if len(points) == 0 {
		_, err := fmt.Fprintln(out, "  (none)")
		return err
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(out, "  %-9s %d\n", p.Label, p.Count); err != nil {
			return fmt.Errorf("writing series: %w", err)
		}
	}
	return nil
}

// formatPrice formats an amount with thousands separators.
func formatPrice(amount int64) string {
	if amount < 0 {
		return "-" + formatPrice(-amount)
	}
	s := fmt.Sprintf("%d", amount)

	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nestorservice/vente-voiture/internal/listing"
)

func newListingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Manage vehicle listings",
	}
	cmd.AddCommand(newListingAddCmd())
	return cmd
}

func newListingAddCmd() *cobra.Command {
	var (
		l      listing.Listing
		fuel   string
		gear   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vehicle listing",
		Long:  "Add a vehicle listing. Fuel defaults to Essence, transmission to Manuelle, city to Yaoundé and status to pending.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l.Fuel = listing.Fuel(fuel)
			l.Transmission = listing.Transmission(gear)
			l.Status = listing.Status(status)
			return runListingAdd(cmd.Context(), &l)
		},
	}

	f := cmd.Flags()
	f.StringVar(&l.Brand, "brand", "", "manufacturer, e.g. Toyota")
	f.StringVar(&l.Model, "model", "", "model, e.g. Corolla")
	f.Int64Var(&l.Price, "price", 0, "asking price in FCFA")
	f.IntVar(&l.Year, "year", 0, "model year")
	f.IntVar(&l.Mileage, "mileage", 0, "mileage in km")
	f.StringVar(&fuel, "fuel", "", "Essence, Diesel, Hybride or Electrique")
	f.StringVar(&gear, "transmission", "", "Manuelle or Automatique")
	f.StringVar(&l.City, "city", "", "city where the vehicle can be seen")
	f.StringVar(&status, "status", "", "pending, available or sold")
	f.StringVar(&l.Description, "description", "", "free-text description")
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

func runListingAdd(ctx context.Context, l *listing.Listing) error {
	if err := checkFormat(); err != nil {
		return err
	}

	database, err := setupDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	created, err := listing.NewRepository(database).Insert(ctx, l)
	if err != nil {
		return fmt.Errorf("adding listing: %w", err)
	}

	if done, err := printStructured(created); done {
		return err
	}
	fmt.Println("Listing added.")
	printListingSummary(created)
	return nil
}

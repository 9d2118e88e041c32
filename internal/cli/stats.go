package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nestorservice/vente-voiture/internal/dashboard"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the staff dashboard",
		Long:  "Compute the staff dashboard snapshot (listing, revenue, appointment, message and visit counts) from the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}
}

func runStats(ctx context.Context) error {
	if err := checkFormat(); err != nil {
		return err
	}

	database, err := setupDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	snap, err := dashboard.NewAggregator(database).Snapshot(ctx, time.Now())
	if err != nil {
		return err
	}

	if done, err := printStructured(snap); done {
		return err
	}
	return writeSnapshot(os.Stdout, snap)
}

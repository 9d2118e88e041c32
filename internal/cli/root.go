// Package cli defines the cobra command tree for vente-voiture.
package cli

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/Nestorservice/vente-voiture/internal/config"
	"github.com/Nestorservice/vente-voiture/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vv",
		Short:         "Run and manage the vente-voiture marketplace",
		Long:          "A used-vehicle marketplace: serve the web application, create accounts and listings, and print dashboard statistics.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json|yaml)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: db.path or ~/.vente-voiture/vv.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./vv.yaml or ~/.vente-voiture/vv.yaml)")

	root.AddCommand(
		newServeCmd(),
		newStatsCmd(),
		newAccountCmd(),
		newListingCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves configuration from the --config flag and environment.
func loadConfig() (config.Config, error) {
	return config.Load(flagConfig)
}

// openDB opens the SQLite database named by the --db flag, falling back to
// the configured path and then the default path.
func openDB(cfg config.Config) (*sqlx.DB, error) {
	path := flagDB
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// setupDB loads configuration and opens the database in one step.
func setupDB() (*sqlx.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openDB(cfg)
}

// checkFormat validates the --format flag.
func checkFormat() error {
	switch flagFormat {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", flagFormat)
	}
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sqlx.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

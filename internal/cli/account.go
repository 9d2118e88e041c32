package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nestorservice/vente-voiture/internal/account"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountCreateCmd())
	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		staff    bool
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account",
		Long:  "Create a customer account, or a staff account with --staff. Staff accounts can open the /panel pages and receive customer messages.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountCreate(cmd.Context(), args[0], email, password, staff)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 8 characters)")
	cmd.Flags().BoolVar(&staff, "staff", false, "grant access to the staff panel")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runAccountCreate(ctx context.Context, username, email, password string, staff bool) error {
	if err := checkFormat(); err != nil {
		return err
	}

	database, err := setupDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	a, err := account.NewRepository(database).Create(ctx, username, email, password, staff)
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	if done, err := printStructured(a); done {
		return err
	}
	fmt.Println("Account created.")
	printAccountSummary(a)
	return nil
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/internal/app"
	"github.com/Satish-Das/food-donate-application/internal/store"
	"github.com/spf13/cobra"
)

var reconcileUserID string

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Data repair and index management",
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild user donation references from the donations collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := config.NewLogger(cfg)

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if reconcileUserID != "" {
			n, err := application.Linkage.Reconcile(cmd.Context(), reconcileUserID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s now references %d donations\n", reconcileUserID, n)
			return nil
		}

		n, err := application.Linkage.ReconcileAll(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "reconciled %d users\n", n)
		return err
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create MongoDB indexes and drop the legacy unique email index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.Database.Driver != config.DriverMongo {
			return errors.New("indexes only apply to the mongo driver")
		}
		logger := config.NewLogger(cfg)

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		dropped, err := store.DropLegacyDonationEmailIndex(cmd.Context(), application.Mongo)
		if err != nil {
			return err
		}
		if dropped {
			logger.Info("dropped legacy unique email index on donations")
		}
		if err := store.EnsureIndexes(cmd.Context(), application.Mongo); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "indexes are up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maintenanceCmd)
	maintenanceCmd.AddCommand(reconcileCmd, indexesCmd)
	reconcileCmd.Flags().StringVar(&reconcileUserID, "user", "", "reconcile a single user by id")
}

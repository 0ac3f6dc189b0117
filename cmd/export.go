package cmd

import (
	"encoding/json"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/internal/app"
	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/spf13/cobra"
)

var exportQuery services.DonationQuery

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON snapshot of donations to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := config.NewLogger(cfg)

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.Exports.ExportDonations(cmd.Context(), exportQuery)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()
	flags.StringVar(&exportQuery.Status, "status", "", "only export donations with this status")
	flags.StringVar(&exportQuery.FoodType, "food-type", "", "only export donations of this food type")
	flags.StringVar(&exportQuery.StartDate, "start-date", "", "earliest donation date (YYYY-MM-DD)")
	flags.StringVar(&exportQuery.EndDate, "end-date", "", "latest donation date (YYYY-MM-DD)")
}

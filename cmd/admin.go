package cmd

import (
	"fmt"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/internal/app"
	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/spf13/cobra"
)

var adminUpsertInput services.AdminUpsert

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create an administrator or reset an existing one's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := config.NewLogger(cfg)

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		admin, created, err := application.Admins.Upsert(cmd.Context(), adminUpsertInput)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Email, admin.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "updated password for admin %s (%s)\n", admin.Email, admin.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUpsertCmd)

	flags := adminUpsertCmd.Flags()
	flags.StringVar(&adminUpsertInput.Email, "email", "", "administrator email")
	flags.StringVar(&adminUpsertInput.Password, "password", "", "administrator password")
	flags.StringVar(&adminUpsertInput.FullName, "name", "Administrator", "full name")
	flags.StringVar(&adminUpsertInput.Phone, "phone", "", "10 digit phone number")
	flags.StringVar(&adminUpsertInput.City, "city", "", "city")
	flags.StringVar(&adminUpsertInput.Pincode, "pincode", "", "pincode")
	flags.StringVar(&adminUpsertInput.Address, "address", "", "postal address")
	_ = adminUpsertCmd.MarkFlagRequired("email")
	_ = adminUpsertCmd.MarkFlagRequired("password")
}

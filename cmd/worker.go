package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/internal/mailer"
	"github.com/Satish-Das/food-donate-application/internal/mq"
	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume donation events and send donor notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := config.NewLogger(cfg)

		if cfg.MQ.Backend == "" {
			return errors.New("MQ_BACKEND is required for the worker")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := mq.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer bus.Close()

		var sender services.Mailer
		if cfg.SMTP.Enabled() {
			m, err := mailer.New(cfg.SMTP)
			if err != nil {
				return err
			}
			sender = m
		} else {
			logger.Warn("SMTP is not configured, notifications will only be logged")
		}

		notifications := services.NewNotificationService(sender, logger)
		logger.Info("worker started", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)

		err = bus.SubscribeDonationEvents(ctx, notifications.HandleDonationEvent)
		if err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

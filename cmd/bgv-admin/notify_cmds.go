package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/username/bgv-admin/internal/daemon"
	"go.uber.org/zap"
)

func notifyCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send the TAT delay notification once",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			manager, err := c.delayManager(dryRun)
			if err != nil {
				return err
			}

			if dryRun {
				report, err := manager.BuildReport(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				printf("%s [DRY RUN] %d application(s) out of TAT\n", getIcon(true), report.ApplicationCount())
				return printJSON(manager.Message(report))
			}

			result, err := manager.Run(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			if result.Skipped {
				printf("Skipped slot %s: %s\n", result.Slot, result.Reason)
				return nil
			}
			printf("%s Notified %d application(s) across %d customer(s), delivery %s\n",
				getIcon(false), result.Applications, result.Customers, result.DeliveryID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the report without delivering it")

	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled TAT delay notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			manager, err := c.delayManager(false)
			if err != nil {
				return err
			}

			d, err := daemon.New(manager, daemon.Config{
				Schedule:   c.cfg.Notifications.Schedule,
				Location:   c.cfg.Calendar.MustLocation(),
				RunOnStart: c.cfg.Notifications.RunOnStart,
			}, logger)
			if err != nil {
				return err
			}

			logger.Info("Starting daemon",
				zap.String("schedule", c.cfg.Notifications.Schedule),
				zap.String("notifier", c.cfg.Notifications.Notifier))

			return d.Start(cmd.Context())
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/username/bgv-admin/internal/store"
	"github.com/username/bgv-admin/internal/tracker"
)

func trackerCmd() *cobra.Command {
	var branchID int64
	var filter store.ApplicationFilter
	var todayStr string
	var summary bool

	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Print the client master tracker listing of a branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			loc := c.cfg.Calendar.MustLocation()
			today, err := todayIn(todayStr, loc)
			if err != nil {
				return fmt.Errorf("invalid --today: %w", err)
			}

			svc := tracker.NewService(c.source, c.store, loc, logger)

			if summary {
				s, err := svc.Summary(cmd.Context(), branchID, today)
				if err != nil {
					return err
				}
				return printJSON(s)
			}

			views, err := svc.ListBranchApplications(cmd.Context(), branchID, filter, today)
			if err != nil {
				return err
			}
			return printJSON(views)
		},
	}

	cmd.Flags().Int64Var(&branchID, "branch", 0, "Branch ID")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Status filter, e.g. pending_application_count")
	cmd.Flags().StringVar(&filter.Month, "month", "", "Creation month filter (YYYY-MM)")
	cmd.Flags().StringVar(&todayStr, "today", "", "Evaluate progress as of this date (default: today)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print early/on-time/exceed counts of open applications instead")
	_ = cmd.MarkFlagRequired("branch")

	return cmd
}

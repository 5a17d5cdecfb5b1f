package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/bgv-admin/internal/calendar"
	"github.com/username/bgv-admin/pkg/dateutil"
	"go.uber.org/zap"
)

// dueOutput is what the due command prints
type dueOutput struct {
	Start              string            `json:"start"`
	Today              string            `json:"today"`
	TatDays            int               `json:"tat_days"`
	DueDate            string            `json:"due_date"`
	ActualCalendarDays int               `json:"actual_calendar_days"`
	Progress           calendar.Progress `json:"progress"`
}

func dueCmd() *cobra.Command {
	var startStr, tatStr, todayStr string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Compute due date and TAT standing for a start date",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			loc := c.cfg.Calendar.MustLocation()

			start, err := dateutil.ParseDateIn(startStr, loc)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}

			today, err := todayIn(todayStr, loc)
			if err != nil {
				return fmt.Errorf("invalid --today: %w", err)
			}

			cal, err := calendar.Load(cmd.Context(), c.source)
			if err != nil {
				return err
			}

			tat := calendar.ParseTatDays(tatStr)
			result := cal.Evaluate(start, tat, today)

			logger.Debug("Due date computed",
				zap.Time("start", start),
				zap.Int("tat_days", tat),
				zap.Time("due_date", result.DueDate))

			return printJSON(dueOutput{
				Start:              dateutil.FormatDate(start),
				Today:              dateutil.FormatDate(today),
				TatDays:            tat,
				DueDate:            dateutil.FormatDate(result.DueDate),
				ActualCalendarDays: result.ActualCalendarDays,
				Progress:           result.Progress,
			})
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tatStr, "tat", "0", "TAT in working days")
	cmd.Flags().StringVar(&todayStr, "today", "", "Evaluate progress as of this date (default: today)")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func holidaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Manage organisation holidays",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List holidays",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			holidays, err := c.source.Holidays(cmd.Context())
			if err != nil {
				return err
			}

			if len(holidays) == 0 {
				printLine("No holidays configured")
				return nil
			}
			for _, h := range holidays {
				printf("%4d  %s  %s\n", h.ID, dateutil.FormatDate(h.Date), h.Title)
			}
			return nil
		},
	})

	var title string
	addCmd := &cobra.Command{
		Use:   "add YYYY-MM-DD",
		Short: "Add a holiday (an existing date is retitled)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateutil.ParseDate(args[0])
			if err != nil {
				return err
			}

			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := c.store.AddHoliday(cmd.Context(), title, date)
			if err != nil {
				return err
			}

			logger.Info("Holiday added", zap.Int64("id", id), zap.String("date", dateutil.FormatDate(date)))
			printf("%s Holiday %d: %s %s\n", getIcon(false), id, dateutil.FormatDate(date), title)
			return nil
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "Holiday title")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a holiday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid holiday id %q", args[0])
			}

			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.store.DeleteHoliday(cmd.Context(), id); err != nil {
				return err
			}

			logger.Info("Holiday deleted", zap.Int64("id", id))
			printf("%s Holiday %d deleted\n", getIcon(false), id)
			return nil
		},
	})

	return cmd
}

func weekendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekends",
		Short: "Show or set weekly non-working days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showWeekends(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [DAY...]",
		Short: "Replace the weekend days (no days clears them)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := initializeComponents()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.store.SetWeekends(cmd.Context(), args); err != nil {
				return err
			}

			logger.Info("Weekends updated", zap.Strings("weekends", args))
			return showWeekends(cmd.Context())
		},
	})

	return cmd
}

func showWeekends(ctx context.Context) error {
	c, err := initializeComponents()
	if err != nil {
		return err
	}
	defer c.Close()

	weekends, err := c.source.Weekends(ctx)
	if err != nil {
		return err
	}

	// Normalised through the calendar: unknown names are dropped
	cal := calendar.New(weekends, nil)
	if len(cal.Weekends()) == 0 {
		printLine("Weekends: none")
		return nil
	}
	printf("Weekends: %s\n", strings.Join(cal.Weekends(), ", "))
	return nil
}

// todayIn returns the start of today in loc, or the parsed override
func todayIn(override string, loc *time.Location) (time.Time, error) {
	if override == "" {
		return dateutil.Today(loc), nil
	}
	return dateutil.ParseDateIn(override, loc)
}

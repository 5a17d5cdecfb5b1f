package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/username/bgv-admin/internal/calendar"
	"github.com/username/bgv-admin/internal/config"
	"github.com/username/bgv-admin/internal/delay"
	"github.com/username/bgv-admin/internal/store"
	"go.uber.org/zap"
)

var (
	configPath string
	logger     *zap.Logger
	out        io.Writer = os.Stdout
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bgv-admin",
		Short: "BGV admin TAT engine",
		Long:  "Working-day due dates, client tracker listings and TAT delay notifications for background verification",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			switch {
			case err != nil:
				logger = newConsoleLogger("info")
			case cfg.Log.File != "":
				logger = newFileLogger(cfg.Log)
			default:
				logger = newConsoleLogger(cfg.Log.Level)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")

	rootCmd.AddCommand(dueCmd())
	rootCmd.AddCommand(trackerCmd())
	rootCmd.AddCommand(holidaysCmd())
	rootCmd.AddCommand(weekendsCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// components bundles everything a command needs from the configuration
type components struct {
	cfg    *config.Config
	store  *store.Store
	source calendar.Source
}

func (c *components) Close() {
	if err := c.store.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}

func initializeComponents() (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(store.Config{
		Path:     cfg.Database.Path,
		Location: cfg.Calendar.MustLocation(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var source calendar.Source = st
	if cfg.Calendar.FallbackFile != "" {
		logger.Info("Using holiday file as calendar fallback", zap.String("file", cfg.Calendar.FallbackFile))
		composite := calendar.NewCompositeSource(st, calendar.NewFileSource(cfg.Calendar.FallbackFile, logger), logger)
		if err := composite.LoadFallback(); err != nil {
			logger.Warn("Failed to load fallback calendar", zap.Error(err))
		}
		source = composite
	}

	return &components{cfg: cfg, store: st, source: source}, nil
}

func (c *components) delayManager(dryRun bool) (*delay.Manager, error) {
	nc := c.cfg.Notifications

	var notifier delay.Notifier
	switch {
	case dryRun || nc.Notifier == "" || nc.Notifier == "log":
		notifier = delay.NewLogNotifier(logger)
	case nc.Notifier == "outbox":
		notifier = delay.NewOutboxNotifier(nc.OutboxDir, logger)
	default:
		return nil, fmt.Errorf("unknown notifier %q", nc.Notifier)
	}

	state := delay.NewSlotStateManager(nc.StateFile, logger)
	if err := state.Load(); err != nil {
		return nil, fmt.Errorf("failed to load notification state: %w", err)
	}

	return delay.NewManager(c.source, c.store, notifier, state, delay.Config{
		Location: c.cfg.Calendar.MustLocation(),
		To:       recipients(nc.To),
		CC:       recipients(nc.CC),
	}, logger), nil
}

func recipients(list []config.Recipient) []delay.Recipient {
	result := make([]delay.Recipient, 0, len(list))
	for _, r := range list {
		result = append(result, delay.Recipient{Name: r.Name, Email: r.Email})
	}
	return result
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printf(format string, a ...interface{}) {
	fmt.Fprintf(out, format, a...)
}

func printLine(a ...interface{}) {
	fmt.Fprintln(out, a...)
}

func getIcon(dryRun bool) string {
	if dryRun {
		return "📋"
	}
	return "✅"
}

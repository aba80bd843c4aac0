package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pvbess-model/internal/config"
	"pvbess-model/internal/data"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/model"
)

var (
	cfgPath      string
	timelinePath string
	limitHours   int
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:           "pvbess",
	Short:         "PV+BESS hourly dispatch, lifetime and project finance model",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&timelinePath, "timeline", "", "hourly timeline CSV/JSON (overrides timeline.file)")
	rootCmd.PersistentFlags().IntVarP(&limitHours, "limit", "n", 0, "limit to the first N hours (0 = all)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides logging.level)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// inputs is the loaded configuration and timeline shared by every command.
type inputs struct {
	cfg      *config.Config
	timeline []model.HourlySample
	logger   logging.Logger
}

func loadInputs(component string) (*inputs, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger := logging.NewWithOptions(component, logging.Options{Level: level, Format: cfg.Logging.Format, Out: os.Stderr})

	path := cfg.Timeline.File
	if timelinePath != "" {
		path = timelinePath
	}
	if path == "" {
		return nil, fmt.Errorf("no timeline: set timeline.file in %s or pass --timeline", cfgPath)
	}
	timeline, err := data.LoadTimeline(path)
	if err != nil {
		return nil, fmt.Errorf("load timeline %s: %w", path, err)
	}
	if limitHours > 0 && limitHours < len(timeline) {
		timeline = timeline[:limitHours]
	}
	logger.Debugf("loaded %d hours from %s", len(timeline), path)
	return &inputs{cfg: cfg, timeline: timeline, logger: logger}, nil
}

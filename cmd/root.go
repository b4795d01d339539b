package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vod-hit-finder/infrastructure/config"
	"vod-hit-finder/infrastructure/logging"

	"github.com/spf13/cobra"
)

// DefaultConfigPath is used when --config is not given
const DefaultConfigPath = "config/config.yaml"

var (
	cfgFile   string
	cfg       *config.Config
	cfgErr    error
	logLevel  string
	logFormat string
)

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

var rootCmd = &cobra.Command{
	Use:   "hitfinder",
	Short: "Find hit events in recorded gameplay VODs",
	Long: `hitfinder scans recorded gameplay videos for the moment the on-screen
health bar turns from the damaged color to the full color, records every hit
in a JSON file and cuts a short clip around each one:

  - Scan a directory of VODs concurrently, resuming interrupted scans
  - List the recorded hits
  - Download or cut clips around each hit
  - Optionally upload the clips to Google Drive

Example:
  hitfinder scan --dir Vods --workers 6
  hitfinder clip --method twitch`,
	SilenceUsage: true,
}

// Execute runs the root command; SIGINT and SIGTERM cancel the command context
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+DefaultConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log.format (console, json)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = DefaultConfigPath
	}

	// A missing file means defaults; setup and help work without one
	cfg, cfgErr = config.Load(cfgFile, config.AllowMissing(), config.WithDotEnv(".env"))
	if cfgErr != nil {
		cfg = nil
	}
}

// GetConfig returns the loaded configuration, or the reason it could not be loaded
func GetConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("failed to load %s: %w", cfgFile, cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded; run 'hitfinder setup' first")
	}
	return cfg, nil
}

// newLogger builds the process logger from the config and the --log-* flags
func newLogger(c *config.Config, w io.Writer) (*slog.Logger, error) {
	level := c.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	format := c.Log.Format
	if logFormat != "" {
		format = logFormat
	}

	return logging.New(w, logging.Options{
		Level:   level,
		Format:  format,
		NoColor: os.Getenv("NO_COLOR") != "",
	})
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"vod-hit-finder/application/scan"
	"vod-hit-finder/domain/video"
	"vod-hit-finder/infrastructure/config"
	"vod-hit-finder/infrastructure/filesystem"
	"vod-hit-finder/infrastructure/metrics"
	"vod-hit-finder/infrastructure/opencv"
	"vod-hit-finder/infrastructure/resultstore"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	scanDir         string
	scanResults     string
	scanWorkers     int
	scanFrameStep   int
	scanNoResume    bool
	scanClear       bool
	scanMetricsAddr string
)

var scanCmd = &cobra.Command{
	Use:   "scan [video...]",
	Short: "Scan VODs for hits and record them",
	Long: `Scan every video in the VOD directory (or only the named files) for the
damaged-to-full health bar transition and record each hit in the results file.

Each hit is written to disk as soon as it is found. When resume is enabled an
interrupted scan continues one second after the last recorded hit.

Example:
  hitfinder scan
  hitfinder scan --dir /data/vods --workers 4
  hitfinder scan --no-resume "[st=120]2093846127.mp4"
  hitfinder scan --metrics-addr :9100`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanDir, "dir", "", "VOD directory (overrides paths.vod_directory)")
	scanCmd.Flags().StringVar(&scanResults, "results", "", "results file (overrides paths.results_file)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "videos scanned at once (overrides scan.max_workers)")
	scanCmd.Flags().IntVar(&scanFrameStep, "frame-step", 0, "frames between samples (overrides scan.frame_step)")
	scanCmd.Flags().BoolVar(&scanNoResume, "no-resume", false, "rescan videos from the start")
	scanCmd.Flags().BoolVar(&scanClear, "clear", false, "discard the existing results file")
	scanCmd.Flags().StringVar(&scanMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.address)")
}

// ScanOptions are the resolved scan settings
type ScanOptions struct {
	VodDirectory string
	ResultsFile  string
	Workers      int
	Resume       bool
	Clear        bool
	MetricsAddr  string
	// Videos limits the scan to these file names; empty scans the directory
	Videos []string
}

func runScan(cmd *cobra.Command, args []string) error {
	c, err := GetConfig()
	if err != nil {
		return err
	}

	opts, settings, err := resolveScanOptions(c, args)
	if err != nil {
		return err
	}

	logger, err := newLogger(c, os.Stderr)
	if err != nil {
		return err
	}

	if !opencv.Available() {
		return fmt.Errorf("frame decoding not available: rebuild with '-tags=detection' and install OpenCV/GoCV")
	}

	return RunScanWithDependencies(
		cmd.Context(),
		opencv.NewSource(opts.VodDirectory),
		filesystem.NewChecker(c.Paths.Extensions...),
		settings,
		opts,
		logger,
		os.Stdout,
	)
}

// resolveScanOptions layers the command line flags over the config
func resolveScanOptions(c *config.Config, args []string) (ScanOptions, scan.Settings, error) {
	opts := ScanOptions{
		VodDirectory: c.Paths.VodDirectory,
		ResultsFile:  c.Paths.ResultsFile,
		Workers:      c.Scan.MaxWorkers,
		Resume:       c.Scan.Resume && !scanNoResume,
		Clear:        c.Scan.ClearExisting || scanClear,
		MetricsAddr:  c.Metrics.Address,
		Videos:       args,
	}
	if scanDir != "" {
		opts.VodDirectory = scanDir
	}
	if scanResults != "" {
		opts.ResultsFile = scanResults
	}
	if scanWorkers != 0 {
		opts.Workers = scanWorkers
	}
	if scanMetricsAddr != "" {
		opts.MetricsAddr = scanMetricsAddr
	}

	region, err := c.RegionRect()
	if err != nil {
		return opts, scan.Settings{}, err
	}
	params, err := c.DetectionParams()
	if err != nil {
		return opts, scan.Settings{}, err
	}

	settings := scan.Settings{
		FrameStep: c.Scan.FrameStep,
		Region:    region,
		Params:    params,
	}
	if scanFrameStep != 0 {
		settings.FrameStep = scanFrameStep
	}

	return opts, settings, nil
}

// RunScanWithDependencies runs the scan command with injected dependencies (for testing)
func RunScanWithDependencies(
	ctx context.Context,
	source video.FrameSource,
	lister video.Lister,
	settings scan.Settings,
	opts ScanOptions,
	logger *slog.Logger,
	output OutputWriter,
) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	videos := opts.Videos
	if len(videos) == 0 {
		var err error
		videos, err = lister.List(opts.VodDirectory)
		if err != nil {
			return fmt.Errorf("failed to list videos: %w", err)
		}
	}
	if len(videos) == 0 {
		fmt.Fprintf(output, "No videos found in %s\n", opts.VodDirectory)
		return nil
	}

	logger = logger.With("run_id", uuid.NewString())

	store, err := resultstore.Open(opts.ResultsFile,
		resultstore.WithResume(opts.Resume),
		resultstore.WithClearExisting(opts.Clear),
		resultstore.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	if opts.MetricsAddr != "" {
		if _, err := recorder.Serve(ctx, opts.MetricsAddr, logger); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	scanner := scan.NewScanner(source, store, settings, logger, scan.WithMetrics(recorder))
	scheduler, err := scan.NewScheduler(scanner, opts.Workers, logger)
	if err != nil {
		return err
	}

	report, err := scheduler.Run(ctx, videos)
	if report != nil {
		printScanReport(output, report, store.Path())
	}
	return err
}

func printScanReport(output OutputWriter, report *scan.BatchReport, resultsFile string) {
	fmt.Fprintf(output, "Scanned %d videos, %d hits recorded in %s\n",
		len(report.Completed)+len(report.Failed), report.TotalHits(), resultsFile)

	for _, id := range report.FailedIDs() {
		fmt.Fprintf(output, "  FAILED %s: %v\n", id, report.Failed[id])
	}
}

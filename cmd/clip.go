package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	appclip "vod-hit-finder/application/clip"
	appdist "vod-hit-finder/application/distribution"
	"vod-hit-finder/domain/clip"
	"vod-hit-finder/domain/distribution"
	"vod-hit-finder/domain/results"
	"vod-hit-finder/infrastructure/config"
	"vod-hit-finder/infrastructure/drive"
	"vod-hit-finder/infrastructure/ffmpeg"
	"vod-hit-finder/infrastructure/filesystem"
	"vod-hit-finder/infrastructure/metrics"
	"vod-hit-finder/infrastructure/resultstore"
	"vod-hit-finder/infrastructure/twitchdl"

	"github.com/spf13/cobra"
)

var (
	clipMethod  string
	clipUpload  bool
	clipVideo   string
	clipOutput  string
	clipResults string
)

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Cut a clip around every recorded hit",
	Long: `Cut a short clip around every hit in the results file.

With --method twitch the clip is downloaded from the original Twitch VOD with
TwitchDownloaderCLI. The VOD id is taken from the file name and a "[st=N]"
tag shifts every hit by N seconds. With --method ffmpeg the clip is cut from
the local file.

The clips of one VOD are fetched concurrently; VODs are processed one after
another.

Example:
  hitfinder clip
  hitfinder clip --method ffmpeg --video "[st=120]2093846127.mp4"
  hitfinder clip --upload`,
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)
	clipCmd.Flags().StringVar(&clipMethod, "method", "", "twitch or ffmpeg (overrides clip.method)")
	clipCmd.Flags().BoolVar(&clipUpload, "upload", false, "upload every clip to the configured Drive folder")
	clipCmd.Flags().StringVar(&clipVideo, "video", "", "only clip this video")
	clipCmd.Flags().StringVar(&clipOutput, "output", "", "clip directory (overrides paths.clip_directory)")
	clipCmd.Flags().StringVar(&clipResults, "results", "", "results file (overrides paths.results_file)")
}

// ClipOptions are the resolved clip settings
type ClipOptions struct {
	OutputDir     string
	Window        clip.Window
	MaxConcurrent int
	SkipExisting  bool
	// Video limits clipping to one video; empty clips every video
	Video string
}

func runClip(cmd *cobra.Command, args []string) error {
	c, err := GetConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(c, os.Stderr)
	if err != nil {
		return err
	}

	method := c.Clip.Method
	if clipMethod != "" {
		method = clipMethod
	}
	extractor, err := newExtractor(c, method)
	if err != nil {
		return err
	}

	resultsFile := c.Paths.ResultsFile
	if clipResults != "" {
		resultsFile = clipResults
	}
	store, err := resultstore.Open(resultsFile, resultstore.WithLogger(logger))
	if err != nil {
		return err
	}

	opts := ClipOptions{
		OutputDir:     c.Paths.ClipDirectory,
		Window:        c.ClipWindow(),
		MaxConcurrent: c.Clip.MaxConcurrent,
		SkipExisting:  c.Clip.SkipExisting,
		Video:         clipVideo,
	}
	if clipOutput != "" {
		opts.OutputDir = clipOutput
	}

	ctx := cmd.Context()

	var uploader appclip.Uploader
	if clipUpload || c.Clip.UploadToDrive {
		if c.Drive.FolderID == "" {
			return &config.ValidationError{
				Field:      "drive.folder_id",
				Message:    "is required to upload clips",
				Suggestion: config.SuggestSetCommand("drive.folder_id", "<folder id>"),
			}
		}
		client, err := newDriveClient(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to create Google Drive client: %w", err)
		}
		uploader = appdist.NewUploadService(client, c.Drive.FolderID, logger)
	}

	recorder := metrics.New()
	if c.Metrics.Address != "" {
		if _, err := recorder.Serve(ctx, c.Metrics.Address, logger); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	return RunClipWithDependencies(ctx, extractor, uploader, recorder, store.Snapshot(), opts, logger, os.Stdout)
}

func newExtractor(c *config.Config, method string) (clip.Extractor, error) {
	switch method {
	case config.MethodTwitch:
		return twitchdl.NewDownloader(twitchdl.WithCLIPath(c.Clip.TwitchCLIPath)), nil
	case config.MethodFFmpeg:
		return ffmpeg.NewCutter(c.Paths.VodDirectory, ffmpeg.WithFFmpegPath(c.Clip.FFmpegPath)), nil
	default:
		return nil, &config.ValidationError{
			Field:      "clip.method",
			Message:    fmt.Sprintf("must be %q or %q, got %q", config.MethodTwitch, config.MethodFFmpeg, method),
			Suggestion: config.SuggestSetCommand("clip.method", config.MethodTwitch),
		}
	}
}

func newDriveClient(ctx context.Context, c *config.Config) (distribution.DriveClient, error) {
	if c.Drive.Auth == config.AuthServiceAccount {
		return drive.NewClient(ctx, c.Drive.CredentialsFile)
	}
	return drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
		CredentialsFile: c.Drive.CredentialsFile,
		TokenFile:       c.Drive.TokenFile,
		Output:          os.Stdout,
	})
}

// RunClipWithDependencies runs the clip command with injected dependencies (for testing).
// uploader and m may be nil.
func RunClipWithDependencies(
	ctx context.Context,
	extractor clip.Extractor,
	uploader appclip.Uploader,
	m appclip.Metrics,
	hits results.Hits,
	opts ClipOptions,
	logger *slog.Logger,
	output OutputWriter,
) error {
	// Verify the external tool is available if the extractor supports it
	if verifiable, ok := extractor.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("clip tool verification failed: %w", err)
		}
	}

	if opts.Video != "" {
		ts, ok := hits[opts.Video]
		if !ok {
			return fmt.Errorf("no hits recorded for %q", opts.Video)
		}
		hits = results.Hits{opts.Video: ts}
	}
	if len(hits) == 0 {
		fmt.Fprintln(output, "No hits recorded; run 'hitfinder scan' first")
		return nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create clip directory: %w", err)
	}

	svcOpts := []appclip.Option{appclip.WithMaxConcurrent(opts.MaxConcurrent)}
	if opts.SkipExisting {
		svcOpts = append(svcOpts, appclip.WithSkipExisting(filesystem.NewChecker()))
	}
	if uploader != nil {
		svcOpts = append(svcOpts, appclip.WithUploader(uploader))
	}
	if m != nil {
		svcOpts = append(svcOpts, appclip.WithMetrics(m))
	}

	service := appclip.NewService(extractor, opts.Window, opts.OutputDir, logger, svcOpts...)
	report, err := service.ClipAll(ctx, hits)
	if report != nil {
		printClipReport(output, report)
	}
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d clips failed", len(report.Failed))
	}
	return nil
}

func printClipReport(output OutputWriter, report *appclip.Report) {
	fmt.Fprintf(output, "Clips: %d extracted, %d skipped, %d failed\n",
		len(report.Extracted), len(report.Skipped), len(report.Failed))

	failed := make([]string, 0, len(report.Failed))
	for path := range report.Failed {
		failed = append(failed, path)
	}
	sort.Strings(failed)
	for _, path := range failed {
		fmt.Fprintf(output, "  FAILED %s: %v\n", path, report.Failed[path])
	}

	for _, u := range report.Uploaded {
		fmt.Fprintf(output, "  %s: %s\n", u.FileName, u.ShareableURL)
	}
}

package twitchdl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"vod-hit-finder/domain/clip"
	"vod-hit-finder/infrastructure/command"
)

// Downloader implements clip.Extractor by fetching the clip range of the
// remote VOD with TwitchDownloaderCLI
type Downloader struct {
	cliPath string
	runner  command.Runner
}

// DownloaderOption is a functional option for configuring Downloader
type DownloaderOption func(*Downloader)

// WithCLIPath sets a custom TwitchDownloaderCLI executable path
func WithCLIPath(path string) DownloaderOption {
	return func(d *Downloader) {
		d.cliPath = path
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner command.Runner) DownloaderOption {
	return func(d *Downloader) {
		d.runner = runner
	}
}

// NewDownloader creates a new TwitchDownloaderCLI-based extractor
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		cliPath: "TwitchDownloaderCLI",
		runner:  &command.ExecRunner{},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Extract implements clip.Extractor
func (d *Downloader) Extract(ctx context.Context, req clip.Request) error {
	if req.Vod.ID == "" {
		return fmt.Errorf("no VOD id in %q", req.VideoID)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create clip directory: %w", err)
	}

	args := []string{
		"videodownload",
		"--id", req.Vod.ID,
		"-b", strconv.Itoa(req.Begin),
		"-e", strconv.Itoa(req.End),
		"-o", req.OutputPath,
	}

	if err := d.runner.Run(ctx, d.cliPath, args...); err != nil {
		return fmt.Errorf("download of %s failed: %w", req, err)
	}

	return nil
}

// UsesOffset implements clip.Extractor; the remote VOD includes the part
// before the local recording started
func (d *Downloader) UsesOffset() bool {
	return true
}

// VerifyInstalled checks that TwitchDownloaderCLI is available
func (d *Downloader) VerifyInstalled(ctx context.Context) error {
	_, err := d.runner.Output(ctx, d.cliPath, "--version")
	if err != nil {
		return fmt.Errorf("TwitchDownloaderCLI not found or not executable: %w", err)
	}
	return nil
}

// Ensure Downloader implements clip.Extractor
var _ clip.Extractor = (*Downloader)(nil)

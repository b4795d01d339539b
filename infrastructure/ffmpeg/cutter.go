package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"vod-hit-finder/domain/clip"
	"vod-hit-finder/infrastructure/command"
)

// Cutter implements clip.Extractor by stream-copying a range of the local VOD
type Cutter struct {
	ffmpegPath string
	vodDir     string
	runner     command.Runner
}

// CutterOption is a functional option for configuring Cutter
type CutterOption func(*Cutter)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) CutterOption {
	return func(c *Cutter) {
		c.ffmpegPath = path
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner command.Runner) CutterOption {
	return func(c *Cutter) {
		c.runner = runner
	}
}

// NewCutter creates a new FFmpeg-based cutter reading VODs from vodDir
func NewCutter(vodDir string, opts ...CutterOption) *Cutter {
	c := &Cutter{
		ffmpegPath: "ffmpeg",
		vodDir:     vodDir,
		runner:     &command.ExecRunner{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Extract implements clip.Extractor
func (c *Cutter) Extract(ctx context.Context, req clip.Request) error {
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return fmt.Errorf("failed to create clip directory: %w", err)
	}

	args := []string{
		"-ss", strconv.Itoa(req.Begin),
		"-to", strconv.Itoa(req.End),
		"-i", filepath.Join(c.vodDir, req.VideoID),
		"-c", "copy",
		"-y", // Overwrite output file if it exists
		req.OutputPath,
	}

	if err := c.runner.Run(ctx, c.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg cut of %s failed: %w", req, err)
	}

	return nil
}

// UsesOffset implements clip.Extractor; the local file starts at its own zero
func (c *Cutter) UsesOffset() bool {
	return false
}

// VerifyInstalled checks that ffmpeg is available
func (c *Cutter) VerifyInstalled(ctx context.Context) error {
	_, err := c.runner.Output(ctx, c.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// Ensure Cutter implements clip.Extractor
var _ clip.Extractor = (*Cutter)(nil)

package clip

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"vod-hit-finder/domain/clip"
	"vod-hit-finder/domain/distribution"
	"vod-hit-finder/domain/results"
	"vod-hit-finder/domain/video"
)

// Clip outcomes reported to Metrics
const (
	OutcomeExtracted = "extracted"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Uploader publishes a finished clip
type Uploader interface {
	UploadClip(ctx context.Context, clipPath string) (*distribution.UploadResult, error)
}

// Metrics receives clip instrumentation
type Metrics interface {
	ClipFinished(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ClipFinished(string) {}

// Report summarises a ClipAll run
type Report struct {
	Extracted []string
	Skipped   []string
	Failed    map[string]error
	Uploaded  []distribution.UploadResult
}

// Service cuts a clip around every stored hit
type Service struct {
	extractor     clip.Extractor
	window        clip.Window
	outputDir     string
	maxConcurrent int
	skipExisting  bool
	checker       video.FileChecker
	uploader      Uploader
	metrics       Metrics
	logger        *slog.Logger
}

// Option is a functional option for configuring Service
type Option func(*Service)

// WithMaxConcurrent bounds the clips extracted at once for one VOD; 0 is unbounded
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		s.maxConcurrent = n
	}
}

// WithSkipExisting leaves clips that already exist on disk untouched
func WithSkipExisting(checker video.FileChecker) Option {
	return func(s *Service) {
		s.skipExisting = true
		s.checker = checker
	}
}

// WithUploader publishes every extracted clip
func WithUploader(u Uploader) Option {
	return func(s *Service) {
		s.uploader = u
	}
}

// WithMetrics sets the instrumentation sink
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new clip service
func NewService(extractor clip.Extractor, window clip.Window, outputDir string, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		extractor: extractor,
		window:    window,
		outputDir: outputDir,
		metrics:   nopMetrics{},
		logger:    logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ClipAll extracts the clips of every VOD in hits. VODs are processed one at
// a time in name order; the clips of one VOD run concurrently. A failed clip
// is reported but does not stop the others.
func (s *Service) ClipAll(ctx context.Context, hits results.Hits) (*Report, error) {
	report := &Report{Failed: make(map[string]error)}
	var mu sync.Mutex

	for _, videoID := range hits.VideoIDs() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		reqs := clip.NewRequests(videoID, hits[videoID], s.window, s.outputDir, s.extractor.UsesOffset())
		if len(reqs) == 0 {
			continue
		}
		s.logger.Info("starting downloads", "video", videoID, "clips", len(reqs))

		var g errgroup.Group
		if s.maxConcurrent > 0 {
			g.SetLimit(s.maxConcurrent)
		}

		for _, req := range reqs {
			g.Go(func() error {
				outcome, upload, err := s.extract(ctx, req)
				s.metrics.ClipFinished(outcome)

				mu.Lock()
				defer mu.Unlock()
				switch outcome {
				case OutcomeSkipped:
					report.Skipped = append(report.Skipped, req.OutputPath)
				case OutcomeExtracted:
					report.Extracted = append(report.Extracted, req.OutputPath)
				default:
					report.Failed[req.OutputPath] = err
				}
				if upload != nil {
					report.Uploaded = append(report.Uploaded, *upload)
				}
				return nil
			})
		}
		g.Wait()

		s.logger.Info("finished downloading clips", "video", videoID)
	}

	return report, ctx.Err()
}

func (s *Service) extract(ctx context.Context, req clip.Request) (string, *distribution.UploadResult, error) {
	logger := s.logger.With("clip", req.OutputPath)

	if s.skipExisting && s.checker.Exists(req.OutputPath) {
		logger.Debug("clip exists, skipping")
		return OutcomeSkipped, nil, nil
	}

	if err := s.extractor.Extract(ctx, req); err != nil {
		logger.Warn("clip failed", "error", err)
		return OutcomeFailed, nil, err
	}
	logger.Debug("clip extracted", "begin", req.Begin, "end", req.End)

	if s.uploader == nil {
		return OutcomeExtracted, nil, nil
	}

	result, err := s.uploader.UploadClip(ctx, req.OutputPath)
	if err != nil {
		logger.Warn("clip upload failed", "error", err)
		return OutcomeFailed, nil, err
	}
	return OutcomeExtracted, result, nil
}

package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/results"
	"vod-hit-finder/domain/video"
)

// Scan outcomes reported to Metrics
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Settings are the static knobs of a scan
type Settings struct {
	FrameStep int
	Region    detection.NormalizedRect
	Params    detection.Params
}

// Validate checks the settings before any video is opened
func (s Settings) Validate() error {
	if s.FrameStep < 1 {
		return fmt.Errorf("%w: frame step must be at least 1, got %d", detection.ErrConfiguration, s.FrameStep)
	}
	if err := s.Region.Validate(); err != nil {
		return err
	}
	return s.Params.Validate()
}

// Metrics receives scan instrumentation
type Metrics interface {
	SampleAnalysed()
	HitConfirmed()
	CandidateSuppressed()
	ScanStarted()
	ScanFinished(outcome string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) SampleAnalysed()                    {}
func (nopMetrics) HitConfirmed()                      {}
func (nopMetrics) CandidateSuppressed()               {}
func (nopMetrics) ScanStarted()                       {}
func (nopMetrics) ScanFinished(string, time.Duration) {}

// VideoScanner scans one video and returns its definitive hit list
type VideoScanner interface {
	ScanVideo(ctx context.Context, videoID string) ([]float64, error)
}

// Scanner drives sampler, detector and store for one video at a time.
// It holds no per-video state and is safe for concurrent use.
type Scanner struct {
	source   video.FrameSource
	store    results.Store
	settings Settings
	logger   *slog.Logger
	metrics  Metrics
}

// Option is a functional option for configuring Scanner
type Option func(*Scanner)

// WithMetrics sets the instrumentation sink
func WithMetrics(m Metrics) Option {
	return func(s *Scanner) {
		s.metrics = m
	}
}

// NewScanner creates a new scanner
func NewScanner(source video.FrameSource, store results.Store, settings Settings, logger *slog.Logger, opts ...Option) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scanner{
		source:   source,
		store:    store,
		settings: settings,
		logger:   logger,
		metrics:  nopMetrics{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScanVideo scans videoID from its resume point and returns the hits stored
// for it afterwards. Every hit is durable before the next frame is analysed.
func (s *Scanner) ScanVideo(ctx context.Context, videoID string) (hits []float64, err error) {
	logger := s.logger.With("video", videoID)
	started := time.Now()
	s.metrics.ScanStarted()
	defer func() {
		s.metrics.ScanFinished(outcome(err), time.Since(started))
	}()

	start := s.store.ResumePoint(videoID)
	lastEvent := -s.settings.Params.MinSpacing
	var prior []float64
	if start > 0 {
		prior = s.store.Hits(videoID)
		if latest, ok := results.Latest(prior); ok {
			lastEvent = latest
		}
		logger.Info("resuming video", "from", video.FromSeconds(start).String(), "prior_hits", len(prior))
	} else {
		logger.Info("processing video")
	}

	stream, err := s.source.Open(ctx, videoID, start)
	if err != nil {
		if !errors.Is(err, detection.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", detection.ErrSourceUnavailable, err)
		}
		return nil, err
	}
	defer stream.Close()

	sampler, err := video.NewSampler(stream, s.settings.FrameStep, s.settings.Region)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", videoID, err)
	}

	// A full rescan replaces what an earlier run found, once the video is readable
	if start == 0 && len(s.store.Hits(videoID)) > 0 {
		if err := s.store.Finalize(videoID, nil); err != nil {
			return nil, err
		}
	}

	detector := detection.NewDetector(videoID, s.settings.Params, lastEvent)
	duration := sampler.DurationSeconds()

	var found []float64
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("scan interrupted", "hits", len(found))
			return append(prior, found...), err
		}

		sample, ok := sampler.Next()
		if !ok {
			break
		}
		s.metrics.SampleAnalysed()

		suppressed := detector.Suppressed()
		event, hit := detector.Observe(sample)
		if detector.Suppressed() > suppressed {
			s.metrics.CandidateSuppressed()
		}

		if hit {
			if err := s.store.RecordEvent(videoID, event.Seconds); err != nil {
				return append(prior, found...), err
			}
			found = append(found, event.Seconds)
			s.metrics.HitConfirmed()
			logger.Info("hit detected", "at", formatHit(event.Seconds))
		}

		if duration > 0 {
			percent := int(math.Round(sample.Seconds / duration * 100))
			if detector.SetProgress(percent) {
				logger.Info("scan progress", "percent", percent)
			}
		}
	}

	final := append(append([]float64{}, prior...), found...)
	if err := s.store.Finalize(videoID, final); err != nil {
		return final, err
	}

	logger.Info("done processing video",
		"hits", len(found),
		"suppressed", detector.Suppressed(),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return final, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// formatHit renders seconds as H:MM:SS for operators scrubbing a VOD
func formatHit(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// Ensure Scanner implements VideoScanner
var _ VideoScanner = (*Scanner)(nil)

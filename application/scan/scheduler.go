package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vod-hit-finder/domain/detection"
)

// BatchReport is the outcome of one batch
type BatchReport struct {
	mu sync.Mutex

	// Completed holds the definitive hits of every video scanned to the end
	Completed map[string][]float64

	// Failed holds the per-video error of every video that could not be scanned
	Failed map[string]error
}

func newBatchReport() *BatchReport {
	return &BatchReport{
		Completed: make(map[string][]float64),
		Failed:    make(map[string]error),
	}
}

func (r *BatchReport) complete(videoID string, hits []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Completed[videoID] = hits
}

func (r *BatchReport) fail(videoID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed[videoID] = err
}

// TotalHits returns the number of hits across completed videos
func (r *BatchReport) TotalHits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, hits := range r.Completed {
		n += len(hits)
	}
	return n
}

// FailedIDs returns the failed video identifiers, sorted
func (r *BatchReport) FailedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Scheduler runs video scans with bounded concurrency
type Scheduler struct {
	scanner    VideoScanner
	maxWorkers int
	logger     *slog.Logger
}

// NewScheduler creates a scheduler running at most maxWorkers scans at once
func NewScheduler(scanner VideoScanner, maxWorkers int, logger *slog.Logger) (*Scheduler, error) {
	if maxWorkers < 1 {
		return nil, fmt.Errorf("%w: max workers must be at least 1, got %d", detection.ErrConfiguration, maxWorkers)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scanner:    scanner,
		maxWorkers: maxWorkers,
		logger:     logger,
	}, nil
}

// Run scans every video once. A video that cannot be opened or whose region
// is unusable is recorded in the report without affecting the others. A
// persistence or configuration failure cancels the batch and is returned.
func (s *Scheduler) Run(ctx context.Context, videoIDs []string) (*BatchReport, error) {
	report := newBatchReport()
	started := time.Now()
	videoIDs = uniqueIDs(videoIDs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	s.logger.Info("batch started", "videos", len(videoIDs), "workers", s.maxWorkers)

	for _, id := range videoIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			hits, err := s.scanner.ScanVideo(gctx, id)
			if err == nil {
				report.complete(id, hits)
				return nil
			}

			report.fail(id, err)
			if isFatal(err) {
				s.logger.Error("scan failed", "video", id, "error", err)
				return err
			}
			s.logger.Warn("scan failed", "video", id, "error", err)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		// The launch loop may have stopped early on an operator interrupt
		err = ctx.Err()
	}

	s.logger.Info("batch finished",
		"completed", len(report.Completed),
		"failed", len(report.Failed),
		"hits", report.TotalHits(),
		"elapsed", time.Since(started).Round(time.Millisecond))

	return report, err
}

// isFatal reports whether err must stop the whole batch
func isFatal(err error) bool {
	if detection.IsPerVideo(err) {
		return false
	}
	return errors.Is(err, detection.ErrPersistence) ||
		errors.Is(err, detection.ErrConfiguration) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// uniqueIDs drops repeated video IDs so one video never has two workers
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

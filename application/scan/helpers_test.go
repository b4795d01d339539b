package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/results"
	"vod-hit-finder/domain/video"
	"vod-hit-finder/domain/video/videotest"
)

// memStore is an in-memory results.Store with failure injection
type memStore struct {
	mu        sync.Mutex
	hits      results.Hits
	resume    bool
	recordErr error
	records   int
}

func newMemStore(resume bool) *memStore {
	return &memStore{hits: make(results.Hits), resume: resume}
}

func (m *memStore) Load() (results.Hits, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits.Clone(), nil
}

func (m *memStore) ResumePoint(videoID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.resume {
		return 0
	}
	latest, ok := m.hits.Latest(videoID)
	if !ok {
		return 0
	}
	return latest + 1
}

func (m *memStore) Hits(videoID string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.hits[videoID]...)
}

func (m *memStore) Snapshot() results.Hits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits.Clone()
}

func (m *memStore) RecordEvent(videoID string, seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records++
	m.hits[videoID] = append(m.hits[videoID], seconds)
	return nil
}

func (m *memStore) Finalize(videoID string, seconds []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[videoID] = append([]float64{}, seconds...)
	return nil
}

var _ results.Store = (*memStore)(nil)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings() Settings {
	damaged, _ := detection.NewColorRange([]int{6, 6, 50}, []int{50, 50, 110})
	full, _ := detection.NewColorRange([]int{10, 90, 100}, []int{50, 160, 190})
	return Settings{
		FrameStep: 1,
		Region:    detection.NormalizedRect{XMin: 0, YMin: 0, XMax: 1, YMax: 1},
		Params: detection.Params{
			Damaged:          damaged,
			Full:             full,
			OverlapThreshold: detection.DefaultOverlapThreshold,
			MinSpacing:       60,
		},
	}
}

// videoWithHits builds a 1 fps video of length seconds with a damaged frame
// just before each transition second
func videoWithHits(length int, transitions ...int) *videotest.Video {
	v := videotest.NewVideo(8, 4, 1).Append(length, videotest.Blank)
	for _, t := range transitions {
		v.Paint(t-1, videotest.Damaged)
		v.Paint(t, videotest.Full)
	}
	return v
}

// countingSource tracks how many streams are open at once
type countingSource struct {
	inner *videotest.Source

	mu      sync.Mutex
	active  int
	maxSeen int
}

func (c *countingSource) Open(ctx context.Context, videoID string, start float64) (video.FrameStream, error) {
	st, err := c.inner.Open(ctx, videoID, start)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
	c.mu.Unlock()
	return &countingStream{FrameStream: st, parent: c}, nil
}

func (c *countingSource) max() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSeen
}

type countingStream struct {
	video.FrameStream
	parent *countingSource
}

func (s *countingStream) Close() error {
	s.parent.mu.Lock()
	s.parent.active--
	s.parent.mu.Unlock()
	return s.FrameStream.Close()
}

// scannerFunc adapts a function to VideoScanner
type scannerFunc func(ctx context.Context, videoID string) ([]float64, error)

func (f scannerFunc) ScanVideo(ctx context.Context, videoID string) ([]float64, error) {
	return f(ctx, videoID)
}

func videoName(i int) string {
	return fmt.Sprintf("[st=%d]%d.mp4", i*100, 1000+i)
}

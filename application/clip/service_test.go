package clip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vod-hit-finder/domain/clip"
	"vod-hit-finder/domain/distribution"
	"vod-hit-finder/domain/results"
)

type fakeExtractor struct {
	mu        sync.Mutex
	offset    bool
	failBegin int
	requests  []clip.Request
	order     []string
}

func (f *fakeExtractor) Extract(ctx context.Context, req clip.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.order = append(f.order, req.VideoID)
	if f.failBegin != 0 && req.Begin == f.failBegin {
		return errors.New("exit status 1")
	}
	return nil
}

func (f *fakeExtractor) UsesOffset() bool { return f.offset }

type existsChecker map[string]bool

func (e existsChecker) Exists(path string) bool { return e[path] }

type fakeUploader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (u *fakeUploader) UploadClip(ctx context.Context, path string) (*distribution.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return nil, u.err
	}
	u.paths = append(u.paths, path)
	return &distribution.UploadResult{FileName: filepath.Base(path)}, nil
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *countingMetrics) ClipFinished(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_ClipAll(t *testing.T) {
	hits := results.Hits{
		"[st=100]22.mp4": {10, 80},
		"[st=5]11.mp4":   {6},
		"33.mp4":         {},
	}

	ex := &fakeExtractor{offset: true}
	m := &countingMetrics{}
	svc := NewService(ex, clip.DefaultWindow, "HitClips", quietLogger(), WithMaxConcurrent(2), WithMetrics(m))

	report, err := svc.ClipAll(context.Background(), hits)
	require.NoError(t, err)
	require.Len(t, report.Extracted, 3)
	require.Empty(t, report.Failed)

	// VODs are handled one after another in name order
	require.Equal(t, []string{"[st=100]22.mp4", "[st=100]22.mp4", "[st=5]11.mp4"}, ex.order)

	var begins []int
	for _, r := range ex.requests {
		begins = append(begins, r.Begin)
	}
	sort.Ints(begins)
	require.Equal(t, []int{8, 107, 177}, begins)
	require.Equal(t, 3, m.outcomes[OutcomeExtracted])
}

func TestService_FailedClipDoesNotStopOthers(t *testing.T) {
	hits := results.Hits{"1.mp4": {10, 100, 200}}
	ex := &fakeExtractor{failBegin: 97}

	report, err := NewService(ex, clip.DefaultWindow, "out", quietLogger()).ClipAll(context.Background(), hits)
	require.NoError(t, err)
	require.Len(t, report.Extracted, 2)
	require.Len(t, report.Failed, 1)
	require.Contains(t, report.Failed, filepath.Join("out", "1_1.mp4"))
}

func TestService_SkipExisting(t *testing.T) {
	hits := results.Hits{"1.mp4": {10, 100}}
	existing := existsChecker{filepath.Join("out", "1_0.mp4"): true}
	ex := &fakeExtractor{}

	m := &countingMetrics{}

	report, err := NewService(ex, clip.DefaultWindow, "out", quietLogger(), WithSkipExisting(existing), WithMetrics(m)).
		ClipAll(context.Background(), hits)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("out", "1_0.mp4")}, report.Skipped)
	require.Len(t, ex.requests, 1)
	require.Equal(t, map[string]int{OutcomeSkipped: 1, OutcomeExtracted: 1}, m.outcomes)
}

func TestService_Upload(t *testing.T) {
	hits := results.Hits{"1.mp4": {10}}

	t.Run("uploads extracted clips", func(t *testing.T) {
		up := &fakeUploader{}
		report, err := NewService(&fakeExtractor{}, clip.DefaultWindow, "out", quietLogger(), WithUploader(up)).
			ClipAll(context.Background(), hits)
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join("out", "1_0.mp4")}, up.paths)
		require.Len(t, report.Uploaded, 1)
	})

	t.Run("upload failure is reported", func(t *testing.T) {
		up := &fakeUploader{err: errors.New("quota")}
		m := &countingMetrics{}
		report, err := NewService(&fakeExtractor{}, clip.DefaultWindow, "out", quietLogger(), WithUploader(up), WithMetrics(m)).
			ClipAll(context.Background(), hits)
		require.NoError(t, err)
		require.Len(t, report.Failed, 1)
		require.Empty(t, report.Uploaded)
		require.Equal(t, map[string]int{OutcomeFailed: 1}, m.outcomes)
	})
}

func TestService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &fakeExtractor{}
	_, err := NewService(ex, clip.DefaultWindow, "out", quietLogger()).ClipAll(ctx, results.Hits{"1.mp4": {10}})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, ex.requests)
}

package scan

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/video/videotest"
	"vod-hit-finder/infrastructure/logging"
)

type recordingMetrics struct {
	samples, hits, suppressed, started int
	outcomes                           []string
}

func (m *recordingMetrics) SampleAnalysed()      { m.samples++ }
func (m *recordingMetrics) HitConfirmed()        { m.hits++ }
func (m *recordingMetrics) CandidateSuppressed() { m.suppressed++ }
func (m *recordingMetrics) ScanStarted()         { m.started++ }
func (m *recordingMetrics) ScanFinished(outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func TestScanner_ScanVideo(t *testing.T) {
	tests := []struct {
		name  string
		video *videotest.Video
		want  []float64
	}{
		{
			name: "damaged then full gives one hit",
			video: videotest.NewVideo(8, 4, 1).
				Append(5, videotest.Blank).
				Append(1, videotest.Damaged).
				Append(1, videotest.Full).
				Append(3, videotest.Blank),
			want: []float64{6},
		},
		{
			name:  "second transition inside spacing is suppressed",
			video: videoWithHits(50, 10, 40),
			want:  []float64{10},
		},
		{
			name:  "transitions far apart both count",
			video: videoWithHits(200, 10, 100, 170),
			want:  []float64{10, 100, 170},
		},
		{
			name:  "no transitions",
			video: videotest.NewVideo(8, 4, 1).Append(30, videotest.Full),
			want:  []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(false)
			source := videotest.NewSource().Add("a.mp4", tt.video)
			scanner := NewScanner(source, store, testSettings(), quietLogger())

			got, err := scanner.ScanVideo(context.Background(), "a.mp4")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.want, append([]float64{}, store.Hits("a.mp4")...))
		})
	}
}

func TestScanner_FrameStep(t *testing.T) {
	// At 10 fps with a step of 10 the samples land on 0.9, 1.9, 2.9 ...
	v := videotest.NewVideo(8, 4, 10).Append(100, videotest.Blank)
	v.Paint(19, videotest.Damaged)
	v.Paint(29, videotest.Full)

	settings := testSettings()
	settings.FrameStep = 10

	store := newMemStore(false)
	scanner := NewScanner(videotest.NewSource().Add("a.mp4", v), store, settings, quietLogger())

	got, err := scanner.ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.InDelta(t, 2.9, got[0], 1e-9)
}

func TestScanner_PersistsEachHitBeforeFinalize(t *testing.T) {
	store := newMemStore(false)
	source := videotest.NewSource().Add("a.mp4", videoWithHits(200, 10, 100))
	scanner := NewScanner(source, store, testSettings(), quietLogger())

	_, err := scanner.ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)
	require.Equal(t, 2, store.records)
}

func TestScanner_ResumeIsIdempotent(t *testing.T) {
	v := videoWithHits(200, 10, 100, 170)

	// Uninterrupted run
	fresh := newMemStore(true)
	want, err := NewScanner(videotest.NewSource().Add("a.mp4", v), fresh, testSettings(), quietLogger()).
		ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)

	// A crashed run left only the first hit behind
	crashed := newMemStore(true)
	require.NoError(t, crashed.RecordEvent("a.mp4", 10))

	source := videotest.NewSource().Add("a.mp4", v)
	got, err := NewScanner(source, crashed, testSettings(), quietLogger()).
		ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)

	require.Equal(t, want, got)
	require.Equal(t, fresh.Snapshot(), crashed.Snapshot())
	require.Equal(t, []float64{11}, source.Opens("a.mp4"))
}

func TestScanner_ResumeRespectsSpacingAcrossRestart(t *testing.T) {
	// The transition at 40 is within 60s of the hit found before the restart
	crashed := newMemStore(true)
	require.NoError(t, crashed.RecordEvent("a.mp4", 10))

	source := videotest.NewSource().Add("a.mp4", videoWithHits(200, 10, 40, 120))
	got, err := NewScanner(source, crashed, testSettings(), quietLogger()).
		ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)
	require.Equal(t, []float64{10, 120}, got)
}

func TestScanner_RescanReplacesPriorHits(t *testing.T) {
	store := newMemStore(false)
	require.NoError(t, store.Finalize("a.mp4", []float64{5, 500}))

	source := videotest.NewSource().Add("a.mp4", videoWithHits(50, 10))
	got, err := NewScanner(source, store, testSettings(), quietLogger()).
		ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)
	require.Equal(t, []float64{10}, got)
	require.Equal(t, []float64{10}, store.Hits("a.mp4"))
	require.Equal(t, []float64{0}, source.Opens("a.mp4"))
}

func TestScanner_RescanKeepsPriorHitsWhenVideoUnreadable(t *testing.T) {
	t.Run("video missing", func(t *testing.T) {
		store := newMemStore(false)
		require.NoError(t, store.Finalize("a.mp4", []float64{5, 500}))

		_, err := NewScanner(videotest.NewSource(), store, testSettings(), quietLogger()).
			ScanVideo(context.Background(), "a.mp4")
		require.ErrorIs(t, err, detection.ErrSourceUnavailable)
		require.Equal(t, []float64{5, 500}, store.Hits("a.mp4"))
	})

	t.Run("region unusable", func(t *testing.T) {
		store := newMemStore(false)
		require.NoError(t, store.Finalize("a.mp4", []float64{5, 500}))

		settings := testSettings()
		settings.Region = detection.NormalizedRect{XMin: 0.1, YMin: 0.1, XMax: 0.12, YMax: 0.12}
		source := videotest.NewSource().Add("a.mp4", videoWithHits(20, 10))

		_, err := NewScanner(source, store, settings, quietLogger()).
			ScanVideo(context.Background(), "a.mp4")
		require.ErrorIs(t, err, detection.ErrInvalidRegion)
		require.Equal(t, []float64{5, 500}, store.Hits("a.mp4"))
	})
}

func TestScanner_ProgressAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Level: "info", Format: logging.FormatJSON})
	require.NoError(t, err)

	source := videotest.NewSource().Add("a.mp4", videoWithHits(200, 10))
	_, err = NewScanner(source, newMemStore(false), testSettings(), logger).
		ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)

	progress := strings.Count(buf.String(), `"msg":"scan progress"`)
	require.Greater(t, progress, 0)
	require.Contains(t, buf.String(), `"percent":50`)
	require.Contains(t, buf.String(), `"video":"a.mp4"`)
}

func TestScanner_Errors(t *testing.T) {
	t.Run("unknown video", func(t *testing.T) {
		store := newMemStore(false)
		scanner := NewScanner(videotest.NewSource(), store, testSettings(), quietLogger())

		_, err := scanner.ScanVideo(context.Background(), "missing.mp4")
		require.ErrorIs(t, err, detection.ErrSourceUnavailable)
		require.Empty(t, store.Snapshot())
	})

	t.Run("region degenerate for tiny frames", func(t *testing.T) {
		settings := testSettings()
		settings.Region = detection.NormalizedRect{XMin: 0.1, YMin: 0.1, XMax: 0.12, YMax: 0.12}

		source := videotest.NewSource().Add("a.mp4", videoWithHits(20, 10))
		scanner := NewScanner(source, newMemStore(false), settings, quietLogger())

		_, err := scanner.ScanVideo(context.Background(), "a.mp4")
		require.ErrorIs(t, err, detection.ErrInvalidRegion)
	})

	t.Run("persistence failure", func(t *testing.T) {
		store := newMemStore(false)
		store.recordErr = detection.ErrPersistence

		source := videotest.NewSource().Add("a.mp4", videoWithHits(20, 10))
		scanner := NewScanner(source, store, testSettings(), quietLogger())

		_, err := scanner.ScanVideo(context.Background(), "a.mp4")
		require.ErrorIs(t, err, detection.ErrPersistence)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		source := videotest.NewSource().Add("a.mp4", videoWithHits(20, 10))
		scanner := NewScanner(source, newMemStore(false), testSettings(), quietLogger())

		_, err := scanner.ScanVideo(ctx, "a.mp4")
		require.True(t, errors.Is(err, context.Canceled))
	})
}

func TestScanner_Metrics(t *testing.T) {
	m := &recordingMetrics{}
	source := videotest.NewSource().Add("a.mp4", videoWithHits(50, 10, 40))
	scanner := NewScanner(source, newMemStore(false), testSettings(), quietLogger(), WithMetrics(m))

	_, err := scanner.ScanVideo(context.Background(), "a.mp4")
	require.NoError(t, err)

	_, err = scanner.ScanVideo(context.Background(), "missing.mp4")
	require.Error(t, err)

	require.Equal(t, 50, m.samples)
	require.Equal(t, 1, m.hits)
	require.Equal(t, 1, m.suppressed)
	require.Equal(t, 2, m.started)
	require.Equal(t, []string{OutcomeCompleted, OutcomeFailed}, m.outcomes)
}

func TestSettings_Validate(t *testing.T) {
	require.NoError(t, testSettings().Validate())

	bad := testSettings()
	bad.FrameStep = 0
	require.ErrorIs(t, bad.Validate(), detection.ErrConfiguration)

	bad = testSettings()
	bad.Region = detection.NormalizedRect{XMin: 0.5, XMax: 0.4, YMax: 1}
	require.ErrorIs(t, bad.Validate(), detection.ErrConfiguration)
}

func TestFormatHit(t *testing.T) {
	require.Equal(t, "0:00:06", formatHit(6.5))
	require.Equal(t, "2:54:03", formatHit(10443))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the hit finder collectors on a dedicated registry
type Recorder struct {
	Registry *prometheus.Registry

	SamplesAnalysedTotal      prometheus.Counter
	HitsConfirmedTotal        prometheus.Counter
	CandidatesSuppressedTotal prometheus.Counter
	ScansTotal                *prometheus.CounterVec
	ScanDuration              prometheus.Histogram
	ActiveScans               prometheus.Gauge
	ClipsTotal                *prometheus.CounterVec
}

// New registers the collectors plus the Go and process collectors
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		Registry: reg,

		SamplesAnalysedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "hitfinder_samples_analysed_total",
			Help: "Total number of sampled frames analysed across all videos",
		}),

		HitsConfirmedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "hitfinder_hits_confirmed_total",
			Help: "Total number of hits confirmed and persisted",
		}),

		CandidatesSuppressedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "hitfinder_candidates_suppressed_total",
			Help: "Total number of hit candidates dropped by the minimum spacing",
		}),

		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hitfinder_scans_total",
			Help: "Total number of video scans, by outcome",
		}, []string{"outcome"}),

		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hitfinder_scan_duration_seconds",
			Help:    "Wall time spent scanning one video",
			Buckets: []float64{10, 30, 60, 300, 600, 1800, 3600, 7200},
		}),

		ActiveScans: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hitfinder_active_scans",
			Help: "Number of videos currently being scanned",
		}),

		ClipsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hitfinder_clips_total",
			Help: "Total number of clips extracted, by outcome",
		}, []string{"outcome"}),
	}
}

// SampleAnalysed counts one analysed frame
func (r *Recorder) SampleAnalysed() {
	r.SamplesAnalysedTotal.Inc()
}

// HitConfirmed counts one persisted hit
func (r *Recorder) HitConfirmed() {
	r.HitsConfirmedTotal.Inc()
}

// CandidateSuppressed counts one debounced candidate
func (r *Recorder) CandidateSuppressed() {
	r.CandidatesSuppressedTotal.Inc()
}

// ScanStarted marks a scan as active
func (r *Recorder) ScanStarted() {
	r.ActiveScans.Inc()
}

// ScanFinished records the outcome and duration of a scan
func (r *Recorder) ScanFinished(outcome string, elapsed time.Duration) {
	r.ActiveScans.Dec()
	r.ScansTotal.WithLabelValues(outcome).Inc()
	r.ScanDuration.Observe(elapsed.Seconds())
}

// ClipFinished records the outcome of one clip extraction
func (r *Recorder) ClipFinished(outcome string) {
	r.ClipsTotal.WithLabelValues(outcome).Inc()
}

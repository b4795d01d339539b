package detection

import (
	"fmt"
	"math"
)

// DefaultOverlapThreshold is the summed mask intensity a transition must
// exceed: ten fully qualifying pixels
const DefaultOverlapThreshold = MaskIntensity * 10

// Classification is the color state of one sampled region
type Classification string

const (
	// ClassNone means no sample has been classified yet
	ClassNone Classification = "none"

	// ClassDamaged means the health indicator shows the damaged color
	ClassDamaged Classification = "damaged"

	// ClassFull means the health indicator shows the full color
	ClassFull Classification = "full"

	// ClassNeither means the region matched neither color range
	ClassNeither Classification = "neither"
)

// FrameSample is one analysed frame: its decode time and the region pixels
type FrameSample struct {
	Seconds float64
	Region  Region
}

// HitEvent is a confirmed damaged-to-full transition in one video
type HitEvent struct {
	VideoID string
	Seconds float64
}

// ScanState is the per-video detector state
type ScanState struct {
	// LastClassification is the classification of the previous sample,
	// filled in by Detector.State
	LastClassification Classification

	// LastEventSeconds is the time of the last confirmed hit
	LastEventSeconds float64

	// ProgressPercent is the rounded share of the video scanned so far
	ProgressPercent int

	// Suppressed counts candidates dropped by the debounce window
	Suppressed int
}

// Params holds the tunable detection knobs
type Params struct {
	Damaged          ColorRange
	Full             ColorRange
	OverlapThreshold float64
	MinSpacing       float64
}

// Validate checks the numeric knobs
func (p Params) Validate() error {
	if !(p.MinSpacing > 0) || math.IsInf(p.MinSpacing, 1) {
		return fmt.Errorf("%w: min spacing must be a positive number, got %v", ErrConfiguration, p.MinSpacing)
	}
	if math.IsNaN(p.OverlapThreshold) || math.IsInf(p.OverlapThreshold, 0) || p.OverlapThreshold < 0 {
		return fmt.Errorf("%w: overlap threshold must be a non-negative number, got %v", ErrConfiguration, p.OverlapThreshold)
	}
	return nil
}

// Detector turns a time-ordered stream of samples from one video into
// debounced hit events
type Detector struct {
	videoID string
	params  Params
	state   ScanState
	prev    *FrameSample
}

// NewDetector creates a detector for one video. lastEventSeconds seeds the
// debounce window: -params.MinSpacing for a fresh scan, or the latest recorded
// hit when resuming.
func NewDetector(videoID string, params Params, lastEventSeconds float64) *Detector {
	return &Detector{
		videoID: videoID,
		params:  params,
		state: ScanState{
			LastEventSeconds: lastEventSeconds,
		},
	}
}

// Observe evaluates the transition from the previous sample to s and returns
// the confirmed event, if any. s always becomes the new previous sample.
func (d *Detector) Observe(s FrameSample) (HitEvent, bool) {
	defer func() { d.prev = &s }()

	if d.prev == nil {
		return HitEvent{}, false
	}

	if !d.IsCandidate(s) {
		return HitEvent{}, false
	}
	if s.Seconds <= d.state.LastEventSeconds+d.params.MinSpacing {
		d.state.Suppressed++
		return HitEvent{}, false
	}

	d.state.LastEventSeconds = s.Seconds
	return HitEvent{VideoID: d.videoID, Seconds: s.Seconds}, true
}

// IsCandidate reports whether s, following the previous sample, shows enough
// damaged-to-full pixels to count as a hit before debouncing
func (d *Detector) IsCandidate(s FrameSample) bool {
	if d.prev == nil {
		return false
	}
	overlap := OverlapCount(d.prev.Region, s.Region, d.params.Damaged, d.params.Full)
	return float64(overlap*MaskIntensity) > d.params.OverlapThreshold
}

// State returns a copy of the current scan state. The previous sample is
// classified here, not on every Observe.
func (d *Detector) State() ScanState {
	state := d.state
	state.LastClassification = ClassNone
	if d.prev != nil {
		state.LastClassification = Classify(d.prev.Region, d.params.Damaged, d.params.Full)
	}
	return state
}

// Suppressed returns how many candidates the debounce window dropped so far
func (d *Detector) Suppressed() int {
	return d.state.Suppressed
}

// SetProgress records the rounded scan progress
func (d *Detector) SetProgress(percent int) bool {
	if percent == d.state.ProgressPercent {
		return false
	}
	d.state.ProgressPercent = percent
	return true
}

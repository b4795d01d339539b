package video

import (
	"fmt"
	"math"
)

// Timestamp represents a position in a video
type Timestamp struct {
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// FromSeconds converts a decode position in seconds to a Timestamp
func FromSeconds(s float64) Timestamp {
	if s < 0 || math.IsNaN(s) {
		s = 0
	}
	total := int64(math.Round(s * 1000))
	return Timestamp{
		Hours:        int(total / 3600000),
		Minutes:      int(total % 3600000 / 60000),
		Seconds:      int(total % 60000 / 1000),
		Milliseconds: int(total % 1000),
	}
}

// String returns the timestamp in HH:MM:SS.mmm format
func (t Timestamp) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hours, t.Minutes, t.Seconds, t.Milliseconds)
}

// TotalSeconds returns the timestamp as seconds
func (t Timestamp) TotalSeconds() float64 {
	return float64(t.Hours*3600+t.Minutes*60+t.Seconds) + float64(t.Milliseconds)/1000
}

package video

import (
	"context"
	"image"

	"vod-hit-finder/domain/detection"
)

// StreamInfo describes an opened video stream
type StreamInfo struct {
	Width      int
	Height     int
	FrameCount float64
	FPS        float64
}

// DurationSeconds returns the stream length, or 0 when it is unknown
func (i StreamInfo) DurationSeconds() float64 {
	if i.FPS <= 0 || i.FrameCount <= 0 {
		return 0
	}
	return i.FrameCount / i.FPS
}

// FrameSource opens decodable frame streams by video identifier.
// This is a port implemented by the OpenCV adapter and by test fakes.
type FrameSource interface {
	// Open returns a stream positioned at startSeconds. Failures wrap
	// detection.ErrSourceUnavailable.
	Open(ctx context.Context, videoID string, startSeconds float64) (FrameStream, error)
}

// FrameStream is an open, positioned decode stream owned by one worker
type FrameStream interface {
	// Info returns the stream dimensions and timing
	Info() StreamInfo

	// Grab decodes and discards the next frame; false once exhausted
	Grab() bool

	// Read decodes the next frame and returns its decode position and the
	// pixels inside rect; ok is false once exhausted
	Read(rect image.Rectangle) (seconds float64, region detection.Region, ok bool)

	// Close releases the decoder
	Close() error
}

package video

import (
	"fmt"
	"image"

	"vod-hit-finder/domain/detection"
)

// Sampler delivers every frameStep-th frame of a stream, cropped to the
// detection region. Skipped frames are still decoded so that sample
// positions stay frame-aligned.
type Sampler struct {
	stream    FrameStream
	frameStep int
	rect      image.Rectangle
	info      StreamInfo
	done      bool
}

// NewSampler computes the pixel region once from the stream dimensions
func NewSampler(stream FrameStream, frameStep int, region detection.NormalizedRect) (*Sampler, error) {
	if frameStep < 1 {
		return nil, fmt.Errorf("%w: frame step must be at least 1, got %d", detection.ErrConfiguration, frameStep)
	}

	info := stream.Info()
	rect, err := region.Scale(info.Width, info.Height)
	if err != nil {
		return nil, err
	}

	return &Sampler{
		stream:    stream,
		frameStep: frameStep,
		rect:      rect,
		info:      info,
	}, nil
}

// Next returns the next sample, or false once the stream is exhausted
func (s *Sampler) Next() (detection.FrameSample, bool) {
	if s.done {
		return detection.FrameSample{}, false
	}

	for i := 1; i < s.frameStep; i++ {
		if !s.stream.Grab() {
			s.done = true
			return detection.FrameSample{}, false
		}
	}

	seconds, region, ok := s.stream.Read(s.rect)
	if !ok {
		s.done = true
		return detection.FrameSample{}, false
	}
	return detection.FrameSample{Seconds: seconds, Region: region}, true
}

// Rect returns the pixel rectangle inspected in each frame
func (s *Sampler) Rect() image.Rectangle {
	return s.rect
}

// DurationSeconds returns the stream length used for progress reporting
func (s *Sampler) DurationSeconds() float64 {
	return s.info.DurationSeconds()
}

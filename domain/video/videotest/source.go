// Package videotest provides an in-memory frame source for tests
package videotest

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/video"
)

// Colors used to paint synthetic frames (BGR)
var (
	Damaged = [3]uint8{20, 20, 80}
	Full    = [3]uint8{30, 120, 150}
	Blank   = [3]uint8{0, 0, 0}
)

// Video is a synthetic decoded video: frame i is shown at i/FPS seconds
type Video struct {
	Width  int
	Height int
	FPS    float64
	Frames []detection.Region
}

// NewVideo creates an empty synthetic video
func NewVideo(width, height int, fps float64) *Video {
	return &Video{Width: width, Height: height, FPS: fps}
}

// Append adds n frames painted entirely with color
func (v *Video) Append(n int, color [3]uint8) *Video {
	for i := 0; i < n; i++ {
		frame := detection.NewRegion(v.Width, v.Height)
		for y := 0; y < v.Height; y++ {
			for x := 0; x < v.Width; x++ {
				frame.Set(x, y, color[0], color[1], color[2])
			}
		}
		v.Frames = append(v.Frames, frame)
	}
	return v
}

// Paint sets frame i to color
func (v *Video) Paint(i int, color [3]uint8) *Video {
	frame := v.Frames[i]
	for y := 0; y < v.Height; y++ {
		for x := 0; x < v.Width; x++ {
			frame.Set(x, y, color[0], color[1], color[2])
		}
	}
	return v
}

// Source is a FrameSource over synthetic videos keyed by identifier
type Source struct {
	mu     sync.Mutex
	videos map[string]*Video
	opened map[string][]float64
}

// NewSource creates an empty source; unknown identifiers fail to open
func NewSource() *Source {
	return &Source{
		videos: make(map[string]*Video),
		opened: make(map[string][]float64),
	}
}

// Add registers a video under id
func (s *Source) Add(id string, v *Video) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[id] = v
	return s
}

// Opens returns the start offsets every Open call for id asked for
func (s *Source) Opens(id string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.opened[id]...)
}

// Open implements video.FrameSource
func (s *Source) Open(ctx context.Context, videoID string, startSeconds float64) (video.FrameStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opened[videoID] = append(s.opened[videoID], startSeconds)
	v, ok := s.videos[videoID]
	if !ok {
		return nil, fmt.Errorf("%w: cannot open %s", detection.ErrSourceUnavailable, videoID)
	}

	next := 0
	if startSeconds > 0 && v.FPS > 0 {
		next = int(math.Ceil(startSeconds * v.FPS))
	}
	return &stream{video: v, next: next}, nil
}

type stream struct {
	video *Video
	next  int
}

func (st *stream) Info() video.StreamInfo {
	return video.StreamInfo{
		Width:      st.video.Width,
		Height:     st.video.Height,
		FrameCount: float64(len(st.video.Frames)),
		FPS:        st.video.FPS,
	}
}

func (st *stream) Grab() bool {
	if st.next >= len(st.video.Frames) {
		return false
	}
	st.next++
	return true
}

func (st *stream) Read(rect image.Rectangle) (float64, detection.Region, bool) {
	if st.next >= len(st.video.Frames) {
		return 0, detection.Region{}, false
	}
	i := st.next
	st.next++

	frame := st.video.Frames[i]
	crop := detection.NewRegion(rect.Dx(), rect.Dy())
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			c0, c1, c2 := frame.At(rect.Min.X+x, rect.Min.Y+y)
			crop.Set(x, y, c0, c1, c2)
		}
	}
	return float64(i) / st.video.FPS, crop, true
}

func (st *stream) Close() error { return nil }

// Ensure Source implements video.FrameSource
var _ video.FrameSource = (*Source)(nil)

//go:build detection

package opencv

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"gocv.io/x/gocv"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/video"
)

// Source opens VODs from a directory with OpenCV's video decoder
type Source struct {
	dir string
}

// NewSource creates a frame source rooted at dir
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Available reports whether frame decoding was compiled in
func Available() bool {
	return true
}

// Open implements video.FrameSource
func (s *Source) Open(ctx context.Context, videoID string, startSeconds float64) (video.FrameStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, videoID)
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", detection.ErrSourceUnavailable, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: could not be opened", detection.ErrSourceUnavailable, path)
	}

	info := video.StreamInfo{
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FrameCount: capture.Get(gocv.VideoCaptureFrameCount),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
	}
	if info.Width <= 0 || info.Height <= 0 {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: no video stream", detection.ErrSourceUnavailable, path)
	}

	if startSeconds > 0 {
		capture.Set(gocv.VideoCapturePosMsec, startSeconds*1000)
	}

	return &stream{
		capture: capture,
		info:    info,
		frame:   gocv.NewMat(),
	}, nil
}

// stream wraps one VideoCapture; it is not safe for concurrent use
type stream struct {
	capture *gocv.VideoCapture
	info    video.StreamInfo
	frame   gocv.Mat
}

func (s *stream) Info() video.StreamInfo {
	return s.info
}

// Grab reads and drops a frame; VideoCapture.Grab cannot report end of stream
func (s *stream) Grab() bool {
	return s.capture.Read(&s.frame) && !s.frame.Empty()
}

func (s *stream) Read(rect image.Rectangle) (float64, detection.Region, bool) {
	if !s.capture.Read(&s.frame) || s.frame.Empty() {
		return 0, detection.Region{}, false
	}
	seconds := s.capture.Get(gocv.VideoCapturePosMsec) / 1000

	return seconds, crop(s.frame, rect), true
}

func (s *stream) Close() error {
	s.frame.Close()
	return s.capture.Close()
}

// crop copies the pixels inside rect as a BGR region. Parts of rect outside
// the frame are dropped; an empty intersection yields an invalid region.
func crop(frame gocv.Mat, rect image.Rectangle) detection.Region {
	rect = rect.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if rect.Empty() {
		return detection.Region{}
	}

	bgr := frame
	switch frame.Channels() {
	case 3:
	case 1, 4:
		converted := gocv.NewMat()
		defer converted.Close()
		code := gocv.ColorGrayToBGR
		if frame.Channels() == 4 {
			code = gocv.ColorBGRAToBGR
		}
		gocv.CvtColor(frame, &converted, code)
		bgr = converted
	default:
		return detection.Region{}
	}

	view := bgr.Region(rect)
	defer view.Close()

	// Region views share the parent's stride, so copy into a continuous Mat
	owned := view.Clone()
	defer owned.Close()

	return detection.Region{
		Width:  rect.Dx(),
		Height: rect.Dy(),
		Pix:    owned.ToBytes(),
	}
}

var _ video.FrameSource = (*Source)(nil)

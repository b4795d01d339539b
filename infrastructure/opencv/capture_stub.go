//go:build !detection

package opencv

import (
	"context"
	"fmt"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/video"
)

// Source is a stub when GoCV/OpenCV is not available
type Source struct {
	dir string
}

// NewSource creates a stub source (requires building with -tags=detection)
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Available reports whether frame decoding was compiled in
func Available() bool {
	return false
}

// Open returns an error indicating decoding is not available
func (s *Source) Open(ctx context.Context, videoID string, startSeconds float64) (video.FrameStream, error) {
	return nil, fmt.Errorf("%w: frame decoding not available: build with '-tags=detection' and install OpenCV/GoCV",
		detection.ErrSourceUnavailable)
}

var _ video.FrameSource = (*Source)(nil)

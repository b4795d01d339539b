package detection

import (
	"fmt"
	"image"
	"math"
)

// NormalizedRect is a rectangle in [0,1] frame coordinates
type NormalizedRect struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Validate checks the rectangle independently of any frame size
func (n NormalizedRect) Validate() error {
	for _, v := range []float64{n.XMin, n.YMin, n.XMax, n.YMax} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: region coordinates must be within [0,1], got %+v", ErrConfiguration, n)
		}
	}
	if n.XMin >= n.XMax || n.YMin >= n.YMax {
		return fmt.Errorf("%w: region min must be below max, got %+v", ErrConfiguration, n)
	}
	return nil
}

// Scale converts the rectangle to pixel coordinates for a width x height frame
func (n NormalizedRect) Scale(width, height int) (image.Rectangle, error) {
	if width <= 0 || height <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: frame dimensions %dx%d", ErrInvalidRegion, width, height)
	}

	w, h := float64(width), float64(height)
	rect := image.Rect(
		int(math.Round(n.XMin*w)),
		int(math.Round(n.YMin*h)),
		int(math.Round(n.XMax*w)),
		int(math.Round(n.YMax*h)),
	)
	// image.Rect canonicalizes, so compare against the frame bounds afterwards
	if rect.Empty() || !rect.In(image.Rect(0, 0, width, height)) {
		return image.Rectangle{}, fmt.Errorf("%w: %+v scales to %v in a %dx%d frame", ErrInvalidRegion, n, rect, width, height)
	}
	return rect, nil
}

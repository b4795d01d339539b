package detection

import "fmt"

// MaskIntensity is the value a qualifying pixel contributes to a binary mask
const MaskIntensity = 255

// Region is a rectangular block of 3-channel pixels.
// Channel order follows the frame source (BGR for OpenCV).
type Region struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRegion allocates a zeroed region of the given size
func NewRegion(width, height int) Region {
	if width < 0 || height < 0 {
		return Region{}
	}
	return Region{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// Valid returns true if the pixel buffer covers the declared dimensions
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0 && len(r.Pix) >= r.Width*r.Height*3
}

// At returns the channel values of the pixel at (x, y)
func (r Region) At(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Width + x) * 3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Set writes the channel values of the pixel at (x, y)
func (r Region) Set(x, y int, c0, c1, c2 uint8) {
	i := (y*r.Width + x) * 3
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = c0, c1, c2
}

// ColorRange is an inclusive per-channel color predicate
type ColorRange struct {
	Lower [3]uint8
	Upper [3]uint8
}

// NewColorRange builds a range from config-style integer triples
func NewColorRange(lower, upper []int) (ColorRange, error) {
	if len(lower) != 3 || len(upper) != 3 {
		return ColorRange{}, fmt.Errorf("%w: color range needs 3 channels, got lower=%v upper=%v", ErrConfiguration, lower, upper)
	}

	var rng ColorRange
	for i := 0; i < 3; i++ {
		if lower[i] < 0 || lower[i] > 255 || upper[i] < 0 || upper[i] > 255 {
			return ColorRange{}, fmt.Errorf("%w: color channel %d out of 0-255 (lower=%d upper=%d)", ErrConfiguration, i, lower[i], upper[i])
		}
		if lower[i] > upper[i] {
			return ColorRange{}, fmt.Errorf("%w: color channel %d lower bound %d exceeds upper bound %d", ErrConfiguration, i, lower[i], upper[i])
		}
		rng.Lower[i] = uint8(lower[i])
		rng.Upper[i] = uint8(upper[i])
	}
	return rng, nil
}

// Contains returns true if all three channels lie within the inclusive bounds
func (c ColorRange) Contains(c0, c1, c2 uint8) bool {
	return c0 >= c.Lower[0] && c0 <= c.Upper[0] &&
		c1 >= c.Lower[1] && c1 <= c.Upper[1] &&
		c2 >= c.Lower[2] && c2 <= c.Upper[2]
}

// CountInRange returns how many pixels of the region fall inside rng.
// A malformed or empty region counts zero.
func CountInRange(region Region, rng ColorRange) int {
	if !region.Valid() {
		return 0
	}
	count := 0
	n := region.Width * region.Height * 3
	for i := 0; i < n; i += 3 {
		if rng.Contains(region.Pix[i], region.Pix[i+1], region.Pix[i+2]) {
			count++
		}
	}
	return count
}

// OverlapCount returns the number of pixel positions that are inside damaged
// in prev and inside full in cur. Regions of different size share no positions.
func OverlapCount(prev, cur Region, damaged, full ColorRange) int {
	if !prev.Valid() || !cur.Valid() {
		return 0
	}
	if prev.Width != cur.Width || prev.Height != cur.Height {
		return 0
	}
	count := 0
	n := cur.Width * cur.Height * 3
	for i := 0; i < n; i += 3 {
		if damaged.Contains(prev.Pix[i], prev.Pix[i+1], prev.Pix[i+2]) &&
			full.Contains(cur.Pix[i], cur.Pix[i+1], cur.Pix[i+2]) {
			count++
		}
	}
	return count
}

// Classify gives the dominant classification of a region
func Classify(region Region, damaged, full ColorRange) Classification {
	if !region.Valid() {
		return ClassNone
	}
	d := CountInRange(region, damaged)
	f := CountInRange(region, full)
	switch {
	case d > 0 && d >= f:
		return ClassDamaged
	case f > 0:
		return ClassFull
	default:
		return ClassNeither
	}
}

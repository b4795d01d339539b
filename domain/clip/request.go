package clip

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"vod-hit-finder/domain/video"
)

// Window is how much footage to keep around each hit, in seconds
type Window struct {
	Pre  float64
	Post float64
}

// DefaultWindow keeps three seconds either side of a hit
var DefaultWindow = Window{Pre: 3, Post: 3}

// Validate checks that the window is non-empty
func (w Window) Validate() error {
	for _, v := range []float64{w.Pre, w.Post} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("clip window must be finite (pre=%v, post=%v)", w.Pre, w.Post)
		}
	}
	if w.Pre < 0 || w.Post < 0 {
		return fmt.Errorf("clip window must not be negative (pre=%v, post=%v)", w.Pre, w.Post)
	}
	if w.Pre+w.Post <= 0 {
		return fmt.Errorf("clip window must cover at least one second")
	}
	return nil
}

// Request describes one clip around one hit
type Request struct {
	// VideoID is the scanned file name, the key in the result store
	VideoID string

	// Vod is the parsed file name
	Vod video.VodName

	// Index numbers the clips of one VOD from 0
	Index int

	// Hit is the hit time relative to the scanned file
	Hit float64

	// Begin and End are whole seconds on the extractor's timeline
	Begin int
	End   int

	// OutputPath is where the clip is written
	OutputPath string
}

// NewRequests builds one request per hit of videoID. With useOffset the
// [st=N] start offset is added so that times refer to the full remote VOD.
func NewRequests(videoID string, hits []float64, window Window, outputDir string, useOffset bool) []Request {
	vod := video.ParseVodName(videoID)

	offset := 0.0
	if useOffset {
		offset = float64(vod.StartOffset)
	}

	reqs := make([]Request, 0, len(hits))
	for i, t := range hits {
		begin := int(math.RoundToEven(offset + t - window.Pre))
		if begin < 0 {
			begin = 0
		}
		end := int(math.RoundToEven(offset + t + window.Post))

		reqs = append(reqs, Request{
			VideoID:    videoID,
			Vod:        vod,
			Index:      i,
			Hit:        t,
			Begin:      begin,
			End:        end,
			OutputPath: filepath.Join(outputDir, vod.Stem+"_"+strconv.Itoa(i)+".mp4"),
		})
	}
	return reqs
}

// Duration returns the clip length in seconds
func (r Request) Duration() int {
	return r.End - r.Begin
}

// String describes the request for logs
func (r Request) String() string {
	return fmt.Sprintf("%s #%d [%s - %s]", r.Vod.Stem, r.Index,
		video.FromSeconds(float64(r.Begin)), video.FromSeconds(float64(r.End)))
}

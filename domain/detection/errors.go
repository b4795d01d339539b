package detection

import "errors"

var (
	// ErrSourceUnavailable means a video could not be opened or decoded.
	// The scan of that video aborts; sibling scans are unaffected.
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrInvalidRegion means the detection rectangle is degenerate for the
	// video's actual frame dimensions.
	ErrInvalidRegion = errors.New("invalid detection region")

	// ErrPersistence means the result store could not be written durably.
	// It is fatal to the whole run.
	ErrPersistence = errors.New("result persistence failure")

	// ErrConfiguration means the static configuration is unusable.
	// Detected at startup, before any scanning begins.
	ErrConfiguration = errors.New("configuration error")
)

// IsPerVideo reports whether err only affects the video it was raised for
func IsPerVideo(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrInvalidRegion)
}

package clip

import "context"

// Extractor produces the clip described by a request
// This is a port implemented by the TwitchDownloaderCLI and ffmpeg adapters
type Extractor interface {
	// Extract writes req.OutputPath
	Extract(ctx context.Context, req Request) error

	// UsesOffset reports whether request times must include the VOD start offset
	UsesOffset() bool
}

package config

import (
	"fmt"
	"strings"

	"vod-hit-finder/domain/clip"
	"vod-hit-finder/domain/detection"
	"vod-hit-finder/infrastructure/logging"
)

// ValidationError contains details about a validation failure with suggestions
type ValidationError struct {
	Field      string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + e.Message
	}
	if e.Suggestion != "" {
		return fmt.Sprintf("%s\n\nTo fix this, run:\n  %s", msg, e.Suggestion)
	}
	return msg
}

// Unwrap makes every validation failure a configuration error
func (e *ValidationError) Unwrap() error {
	return detection.ErrConfiguration
}

// SuggestSetCommand returns the command that changes a config key
func SuggestSetCommand(key, example string) string {
	return fmt.Sprintf("hitfinder config set %s %s", key, example)
}

func invalid(field, example, format string, args ...any) error {
	return &ValidationError{
		Field:      field,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: SuggestSetCommand(field, example),
	}
}

// Validate checks every section; the first problem found is returned
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.VodDirectory) == "" {
		return invalid("paths.vod_directory", "Vods", "must not be empty")
	}
	if strings.TrimSpace(c.Paths.ResultsFile) == "" {
		return invalid("paths.results_file", "HitData.json", "must not be empty")
	}
	if strings.TrimSpace(c.Paths.ClipDirectory) == "" {
		return invalid("paths.clip_directory", "HitClips", "must not be empty")
	}

	if c.Scan.MaxWorkers < 1 {
		return invalid("scan.max_workers", "6", "must be at least 1, got %d", c.Scan.MaxWorkers)
	}
	if c.Scan.FrameStep < 1 {
		return invalid("scan.frame_step", "10", "must be at least 1, got %d", c.Scan.FrameStep)
	}

	if _, err := c.RegionRect(); err != nil {
		return invalid("detection.region", "0.082929,0.045627,0.159724,0.050658", "%v", err)
	}
	if _, err := c.DetectionParams(); err != nil {
		return &ValidationError{Field: "detection", Message: err.Error()}
	}

	if c.Clip.Method != MethodTwitch && c.Clip.Method != MethodFFmpeg {
		return invalid("clip.method", MethodTwitch, "must be %q or %q, got %q", MethodTwitch, MethodFFmpeg, c.Clip.Method)
	}
	if err := c.ClipWindow().Validate(); err != nil {
		return invalid("clip.pre_seconds", "3", "%v", err)
	}
	if c.Clip.MaxConcurrent < 0 {
		return invalid("clip.max_concurrent", "0", "must not be negative, got %d", c.Clip.MaxConcurrent)
	}
	if c.Clip.UploadToDrive && c.Drive.FolderID == "" {
		return invalid("drive.folder_id", "<folder id>", "is required when clip.upload_to_drive is enabled")
	}

	if c.Drive.Auth != AuthOAuth && c.Drive.Auth != AuthServiceAccount {
		return invalid("drive.auth", AuthOAuth, "must be %q or %q, got %q", AuthOAuth, AuthServiceAccount, c.Drive.Auth)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "info", "%v", err)
	}
	if c.Log.Format != logging.FormatConsole && c.Log.Format != logging.FormatJSON {
		return invalid("log.format", logging.FormatConsole, "must be %q or %q, got %q", logging.FormatConsole, logging.FormatJSON, c.Log.Format)
	}

	return nil
}

// RegionRect returns the normalized detection rectangle
func (c *Config) RegionRect() (detection.NormalizedRect, error) {
	r := c.Detection.Region
	if len(r) != 4 {
		return detection.NormalizedRect{}, fmt.Errorf("%w: region needs 4 values [xmin, ymin, xmax, ymax], got %d",
			detection.ErrConfiguration, len(r))
	}
	rect := detection.NormalizedRect{XMin: r[0], YMin: r[1], XMax: r[2], YMax: r[3]}
	return rect, rect.Validate()
}

// DetectionParams builds the detector knobs from the configured ranges
func (c *Config) DetectionParams() (detection.Params, error) {
	d := c.Detection

	damaged, err := detection.NewColorRange(d.DamagedLower, d.DamagedUpper)
	if err != nil {
		return detection.Params{}, fmt.Errorf("damaged range: %w", err)
	}
	full, err := detection.NewColorRange(d.FullLower, d.FullUpper)
	if err != nil {
		return detection.Params{}, fmt.Errorf("full range: %w", err)
	}

	params := detection.Params{
		Damaged:          damaged,
		Full:             full,
		OverlapThreshold: d.OverlapThreshold,
		MinSpacing:       d.MinSpacingSeconds,
	}
	return params, params.Validate()
}

// ClipWindow returns the footage kept around each hit
func (c *Config) ClipWindow() clip.Window {
	return clip.Window{Pre: c.Clip.PreSeconds, Post: c.Clip.PostSeconds}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vod-hit-finder/domain/clip"
	"vod-hit-finder/domain/detection"
)

// EnvPrefix prefixes every environment override, e.g. HITFINDER_SCAN_MAX_WORKERS
const EnvPrefix = "HITFINDER_"

// Clip extraction methods
const (
	MethodTwitch = "twitch"
	MethodFFmpeg = "ffmpeg"
)

// Drive authentication modes
const (
	AuthOAuth          = "oauth"
	AuthServiceAccount = "service_account"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envPrefix:"PATHS_"`
	Scan      ScanConfig      `yaml:"scan" envPrefix:"SCAN_"`
	Detection DetectionConfig `yaml:"detection" envPrefix:"DETECTION_"`
	Clip      ClipConfig      `yaml:"clip" envPrefix:"CLIP_"`
	Drive     DriveConfig     `yaml:"drive" envPrefix:"DRIVE_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
}

// PathsConfig contains the directories and files the tool works with
type PathsConfig struct {
	VodDirectory  string   `yaml:"vod_directory" env:"VOD_DIRECTORY"`
	ResultsFile   string   `yaml:"results_file" env:"RESULTS_FILE"`
	ClipDirectory string   `yaml:"clip_directory" env:"CLIP_DIRECTORY"`
	Extensions    []string `yaml:"extensions" env:"EXTENSIONS"`
}

// ScanConfig contains batch scanning settings
type ScanConfig struct {
	MaxWorkers    int  `yaml:"max_workers" env:"MAX_WORKERS"`
	FrameStep     int  `yaml:"frame_step" env:"FRAME_STEP"`
	Resume        bool `yaml:"resume" env:"RESUME"`
	ClearExisting bool `yaml:"clear_existing" env:"CLEAR_EXISTING"`
}

// DetectionConfig contains the color thresholds and the inspected region
type DetectionConfig struct {
	// Region is [xmin, ymin, xmax, ymax] in normalized frame coordinates
	Region            []float64 `yaml:"region" env:"REGION"`
	DamagedLower      []int     `yaml:"damaged_lower" env:"DAMAGED_LOWER"`
	DamagedUpper      []int     `yaml:"damaged_upper" env:"DAMAGED_UPPER"`
	FullLower         []int     `yaml:"full_lower" env:"FULL_LOWER"`
	FullUpper         []int     `yaml:"full_upper" env:"FULL_UPPER"`
	OverlapThreshold  float64   `yaml:"overlap_threshold" env:"OVERLAP_THRESHOLD"`
	MinSpacingSeconds float64   `yaml:"min_spacing_seconds" env:"MIN_SPACING_SECONDS"`
}

// ClipConfig contains clip extraction settings
type ClipConfig struct {
	Method        string  `yaml:"method" env:"METHOD"`
	TwitchCLIPath string  `yaml:"twitch_cli_path" env:"TWITCH_CLI_PATH"`
	FFmpegPath    string  `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
	PreSeconds    float64 `yaml:"pre_seconds" env:"PRE_SECONDS"`
	PostSeconds   float64 `yaml:"post_seconds" env:"POST_SECONDS"`
	MaxConcurrent int     `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	SkipExisting  bool    `yaml:"skip_existing" env:"SKIP_EXISTING"`
	UploadToDrive bool    `yaml:"upload_to_drive" env:"UPLOAD_TO_DRIVE"`
}

// DriveConfig contains Google Drive settings
type DriveConfig struct {
	Auth            string `yaml:"auth" env:"AUTH"`
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`
	TokenFile       string `yaml:"token_file" env:"TOKEN_FILE"`
	FolderID        string `yaml:"folder_id" env:"FOLDER_ID"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig contains the Prometheus endpoint settings
type MetricsConfig struct {
	// Address is host:port to serve /metrics on; empty disables the endpoint
	Address string `yaml:"address" env:"ADDRESS"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			VodDirectory:  "Vods",
			ResultsFile:   "HitData.json",
			ClipDirectory: "HitClips",
			Extensions:    []string{".mp4", ".mkv", ".flv", ".ts", ".mov"},
		},
		Scan: ScanConfig{
			MaxWorkers: 6,
			FrameStep:  10,
			Resume:     true,
		},
		Detection: DetectionConfig{
			Region:            []float64{0.082929, 0.045627, 0.159724, 0.050658},
			DamagedLower:      []int{6, 6, 50},
			DamagedUpper:      []int{50, 50, 110},
			FullLower:         []int{10, 90, 100},
			FullUpper:         []int{50, 160, 190},
			OverlapThreshold:  detection.DefaultOverlapThreshold,
			MinSpacingSeconds: 60,
		},
		Clip: ClipConfig{
			Method:        MethodTwitch,
			TwitchCLIPath: "TwitchDownloaderCLI",
			FFmpegPath:    "ffmpeg",
			PreSeconds:    clip.DefaultWindow.Pre,
			PostSeconds:   clip.DefaultWindow.Post,
		},
		Drive: DriveConfig{
			Auth:            AuthOAuth,
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

type loadOptions struct {
	dotenvFiles  []string
	environment  map[string]string
	allowMissing bool
}

// LoadOption is a functional option for Load
type LoadOption func(*loadOptions)

// WithDotEnv loads the given .env files into the process environment first;
// missing files are ignored
func WithDotEnv(files ...string) LoadOption {
	return func(o *loadOptions) {
		o.dotenvFiles = files
	}
}

// WithEnvironment replaces the process environment as the override source
func WithEnvironment(environ map[string]string) LoadOption {
	return func(o *loadOptions) {
		o.environment = environ
	}
}

// AllowMissing falls back to defaults when the config file does not exist
func AllowMissing() LoadOption {
	return func(o *loadOptions) {
		o.allowMissing = true
	}
}

// Load reads the YAML file over the defaults, applies environment overrides
// and validates the result
func Load(path string, opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config file: %v", detection.ErrConfiguration, err)
		}
	case errors.Is(err, fs.ErrNotExist) && o.allowMissing:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(o.dotenvFiles) > 0 {
		for _, f := range o.dotenvFiles {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to load %s: %v", detection.ErrConfiguration, f, err)
			}
		}
	}

	envOpts := env.Options{Prefix: EnvPrefix}
	if o.environment != nil {
		envOpts.Environment = o.environment
	}
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, fmt.Errorf("%w: invalid environment override: %v", detection.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

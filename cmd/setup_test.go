package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vod-hit-finder/infrastructure/config"
)

// scriptedPrompter answers by prompt message; unknown messages take the default
type scriptedPrompter struct {
	inputs   map[string]string
	confirms map[string]bool
	selects  map[string]string
	fail     bool
}

func (p *scriptedPrompter) Input(message string, defaultValue string) (string, error) {
	if p.fail {
		return "", errors.New("interrupt")
	}
	if v, ok := p.inputs[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (p *scriptedPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if p.fail {
		return false, errors.New("interrupt")
	}
	if v, ok := p.confirms[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (p *scriptedPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if p.fail {
		return "", errors.New("interrupt")
	}
	if v, ok := p.selects[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func TestRunSetupWithPrompter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.yaml")
	prompter := &scriptedPrompter{
		inputs: map[string]string{
			"Where are the VODs stored?":                 "/data/vods",
			"How many videos should be scanned at once?": "3",
			"Path to ffmpeg?":                            "/usr/bin/ffmpeg",
			"Google Drive folder ID for clips?":          "folder-1",
		},
		confirms: map[string]bool{"Upload clips to Google Drive?": true},
		selects:  map[string]string{"How should clips be made?": config.MethodFFmpeg},
	}

	var out bytes.Buffer
	require.NoError(t, RunSetupWithPrompter(prompter, path, &out))
	require.Contains(t, out.String(), "Configuration saved to "+path)

	cfg, err := config.Load(path, config.WithEnvironment(map[string]string{}))
	require.NoError(t, err)
	require.Equal(t, "/data/vods", cfg.Paths.VodDirectory)
	require.Equal(t, "HitData.json", cfg.Paths.ResultsFile)
	require.Equal(t, 3, cfg.Scan.MaxWorkers)
	require.Equal(t, config.MethodFFmpeg, cfg.Clip.Method)
	require.Equal(t, "/usr/bin/ffmpeg", cfg.Clip.FFmpegPath)
	require.True(t, cfg.Clip.UploadToDrive)
	require.Equal(t, "folder-1", cfg.Drive.FolderID)
	require.Equal(t, config.Default().Detection, cfg.Detection)
}

func TestRunSetupWithPrompter_ExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep: me\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, RunSetupWithPrompter(&scriptedPrompter{}, path, &out))
	require.Equal(t, "Setup cancelled.\n", out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "keep: me\n", string(data))
}

func TestRunSetupWithPrompter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prompter *scriptedPrompter
		wantErr  string
	}{
		{
			name:     "cancelled",
			prompter: &scriptedPrompter{fail: true},
			wantErr:  "prompt cancelled",
		},
		{
			name:     "empty vod directory",
			prompter: &scriptedPrompter{inputs: map[string]string{"Where are the VODs stored?": ""}},
			wantErr:  "VOD directory is required",
		},
		{
			name:     "bad worker count",
			prompter: &scriptedPrompter{inputs: map[string]string{"How many videos should be scanned at once?": "lots"}},
			wantErr:  "worker count must be a positive number",
		},
		{
			name:     "upload without folder",
			prompter: &scriptedPrompter{confirms: map[string]bool{"Upload clips to Google Drive?": true}},
			wantErr:  "folder ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			err := RunSetupWithPrompter(tt.prompter, path, &bytes.Buffer{})
			require.ErrorContains(t, err, tt.wantErr)
			require.NoFileExists(t, path)
		})
	}
}

package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/infrastructure/config"
)

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	require.NoError(t, config.Save(cfg, path))

	var out bytes.Buffer
	require.NoError(t, RunConfigGetWithDependencies(cfg, path, "scan.max_workers", &out))
	require.Equal(t, "6\n", out.String())

	out.Reset()
	require.NoError(t, RunConfigSetWithDependencies(cfg, path, "scan.max_workers", "3", &out))
	require.Equal(t, "Set scan.max_workers = 3 in "+path+"\n", out.String())

	loaded, err := config.Load(path, config.WithEnvironment(map[string]string{}))
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Scan.MaxWorkers)

	out.Reset()
	require.NoError(t, RunConfigListWithDependencies(cfg, path, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.True(t, strings.HasPrefix(lines[0], "KEY"))
	require.Contains(t, out.String(), "detection.region")
	require.Regexp(t, `(?m)^scan\.max_workers\s+3$`, out.String())
}

func TestConfigCommands_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	require.NoError(t, config.Save(cfg, path))

	err := RunConfigGetWithDependencies(cfg, path, "nope", &bytes.Buffer{})
	require.ErrorIs(t, err, config.ErrUnknownKey)

	err = RunConfigSetWithDependencies(cfg, path, "clip.method", "youtube", &bytes.Buffer{})
	require.ErrorIs(t, err, detection.ErrConfiguration)
	require.Contains(t, err.Error(), "To fix this, run:")
}

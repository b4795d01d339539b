package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vod-hit-finder/domain/detection"
)

func newTestManager(t *testing.T) (*ConfigManager, *Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	require.NoError(t, Save(cfg, path))
	return NewConfigManager(cfg, path), cfg, path
}

func TestConfigManager_Get(t *testing.T) {
	m, _, _ := newTestManager(t)

	tests := []struct {
		key  string
		want string
	}{
		{"scan.max_workers", "6"},
		{"scan.resume", "true"},
		{"paths.results_file", "HitData.json"},
		{"detection.damaged_lower", "6,6,50"},
		{"metrics.address", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := m.Get(tt.key)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := m.Get("scan")
	require.ErrorIs(t, err, ErrUnknownKey)
	_, err = m.Get("scan.nope")
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestConfigManager_Set(t *testing.T) {
	m, cfg, path := newTestManager(t)

	require.NoError(t, m.Set("scan.max_workers", "3"))
	require.NoError(t, m.Set("detection.region", "0.1, 0.2, 0.3, 0.4"))
	require.NoError(t, m.Set("metrics.address", ":9100"))
	require.NoError(t, m.Set("drive.folder_id", "12345"))
	require.NoError(t, m.Set("scan.resume", "false"))

	require.Equal(t, 3, cfg.Scan.MaxWorkers)
	require.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, cfg.Detection.Region)
	require.Equal(t, "12345", cfg.Drive.FolderID)
	require.False(t, cfg.Scan.Resume)

	loaded, err := Load(path, WithEnvironment(map[string]string{}))
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestConfigManager_SetRejectsInvalid(t *testing.T) {
	m, cfg, _ := newTestManager(t)

	require.Error(t, m.Set("scan.max_workers", "many"))
	require.ErrorIs(t, m.Set("scan.max_workers", "0"), detection.ErrConfiguration)
	require.ErrorIs(t, m.Set("unknown.key", "1"), ErrUnknownKey)

	require.Equal(t, 6, cfg.Scan.MaxWorkers, "failed sets must not change the config")
}

func TestConfigManager_Keys(t *testing.T) {
	m, _, _ := newTestManager(t)

	keys, err := m.Keys()
	require.NoError(t, err)
	require.Contains(t, keys, "scan.max_workers")
	require.Contains(t, keys, "detection.region")
	require.Contains(t, keys, "metrics.address")
	require.NotContains(t, keys, "scan")
}

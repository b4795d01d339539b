package resultstore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/results"
)

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.Empty(t, store.Snapshot())

	_, err = os.Stat(path)
	require.True(t, errors.Is(err, os.ErrNotExist), "Open must not create the file")
}

func TestOpen_UnparseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestOpen_ReadsOriginalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")
	data := `{
    "[st=10443]2054414193.mp4": [
        6.0,
        130.5
    ],
    "empty.mp4": []
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	store, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, []float64{6, 130.5}, store.Hits("[st=10443]2054414193.mp4"))
	require.Empty(t, store.Hits("empty.mp4"))
}

func TestOpen_ClearExistingIgnoresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a.mp4": [10]}`), 0644))

	store, err := Open(path, WithClearExisting(true), WithResume(true))
	require.NoError(t, err)
	require.Empty(t, store.Snapshot())
	require.Equal(t, 0.0, store.ResumePoint("a.mp4"))

	require.NoError(t, store.RecordEvent("b.mp4", 3))

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, results.Hits{"b.mp4": {3}}, reopened.Snapshot())
}

func TestStore_FinalizeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "HitData.json")

	store, err := Open(path)
	require.NoError(t, err)

	want := results.Hits{
		"a.mp4": {6, 70.5, 1234.25},
		"b.mp4": {},
		"c.mp4": {0.1},
	}
	for _, id := range want.VideoIDs() {
		require.NoError(t, store.Finalize(id, want[id]))
	}

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, want, reopened.Snapshot())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, loaded)
}

func TestStore_FinalizeWritesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Finalize("quiet.mp4", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{\n    \"quiet.mp4\": []\n}", string(data))
}

func TestStore_RecordEventIsDurable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordEvent("a.mp4", 10))
	require.NoError(t, store.RecordEvent("a.mp4", 80))

	// A second process reading the file sees both hits before Finalize
	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, []float64{10, 80}, reopened.Hits("a.mp4"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_ResumePoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a.mp4": [10, 400, 90]}`), 0644))

	tests := []struct {
		name    string
		resume  bool
		videoID string
		want    float64
	}{
		{"resume uses latest hit", true, "a.mp4", 401},
		{"resume without hits starts at zero", true, "b.mp4", 0},
		{"resume disabled", false, "a.mp4", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(path, WithResume(tt.resume))
			require.NoError(t, err)
			require.Equal(t, tt.want, store.ResumePoint(tt.videoID))
		})
	}
}

func TestStore_HitsReturnsCopy(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "HitData.json"))
	require.NoError(t, err)
	require.NoError(t, store.RecordEvent("a.mp4", 1))

	got := store.Hits("a.mp4")
	got[0] = 99

	snap := store.Snapshot()
	snap["a.mp4"][0] = 42

	require.Equal(t, []float64{1}, store.Hits("a.mp4"))
}

func TestStore_ConcurrentRecordEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HitData.json")

	store, err := Open(path)
	require.NoError(t, err)

	videos := []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4"}
	const perVideo = 20

	var wg sync.WaitGroup
	for _, id := range videos {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perVideo; i++ {
				if err := store.RecordEvent(id, float64(i*61)); err != nil {
					t.Errorf("RecordEvent(%s) error = %v", id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	reopened, err := Open(path)
	require.NoError(t, err)
	for _, id := range videos {
		hits := reopened.Hits(id)
		require.Len(t, hits, perVideo, id)
		for i := 1; i < len(hits); i++ {
			require.Greater(t, hits[i], hits[i-1], id)
		}
	}
}

func TestStore_FlushFailureIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	store, err := Open(filepath.Join(blocker, "HitData.json"), WithClearExisting(true))
	require.NoError(t, err)

	err = store.RecordEvent("a.mp4", 1)
	require.Error(t, err)
	require.ErrorIs(t, err, detection.ErrPersistence)
}

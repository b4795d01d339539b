package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"vod-hit-finder/domain/results"
)

func TestRunHitsWithDependencies(t *testing.T) {
	hits := results.Hits{
		"b.mp4":     {10443, 10600.5},
		"a.mp4":     {6},
		"quiet.mp4": {},
	}

	var out bytes.Buffer
	require.NoError(t, RunHitsWithDependencies(hits, "", &out))

	require.Equal(t, `VIDEO      #  AT            SECONDS
a.mp4      0  00:00:06.000  6
b.mp4      0  02:54:03.000  10443
b.mp4      1  02:56:40.500  10600.5
quiet.mp4  -  -             -

3 hits in 3 videos
`, out.String())
}

func TestRunHitsWithDependencies_Video(t *testing.T) {
	hits := results.Hits{"a.mp4": {6}, "b.mp4": {7}}

	var out bytes.Buffer
	require.NoError(t, RunHitsWithDependencies(hits, "b.mp4", &out))
	require.Contains(t, out.String(), "b.mp4")
	require.NotContains(t, out.String(), "a.mp4")
	require.Contains(t, out.String(), "1 hits in 1 videos")

	require.ErrorContains(t, RunHitsWithDependencies(hits, "c.mp4", &out), `no hits recorded for "c.mp4"`)
}

func TestRunHitsWithDependencies_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunHitsWithDependencies(results.Hits{}, "", &out))
	require.Equal(t, "No hits recorded.\n", out.String())
}

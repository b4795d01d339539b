package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"vod-hit-finder/domain/results"
	"vod-hit-finder/domain/video"
	"vod-hit-finder/infrastructure/resultstore"

	"github.com/spf13/cobra"
)

var (
	hitsVideo   string
	hitsResults string
)

var hitsCmd = &cobra.Command{
	Use:   "hits",
	Short: "List the recorded hits",
	Long: `List every hit in the results file, grouped by video.

Example:
  hitfinder hits
  hitfinder hits --video "[st=120]2093846127.mp4"`,
	RunE: runHits,
}

func init() {
	rootCmd.AddCommand(hitsCmd)
	hitsCmd.Flags().StringVar(&hitsVideo, "video", "", "only list hits of this video")
	hitsCmd.Flags().StringVar(&hitsResults, "results", "", "results file (overrides paths.results_file)")
}

func runHits(cmd *cobra.Command, args []string) error {
	c, err := GetConfig()
	if err != nil {
		return err
	}

	path := c.Paths.ResultsFile
	if hitsResults != "" {
		path = hitsResults
	}
	store, err := resultstore.Open(path)
	if err != nil {
		return err
	}

	return RunHitsWithDependencies(store.Snapshot(), hitsVideo, os.Stdout)
}

// RunHitsWithDependencies prints hits as a table (for testing)
func RunHitsWithDependencies(hits results.Hits, videoID string, out OutputWriter) error {
	if videoID != "" {
		ts, ok := hits[videoID]
		if !ok {
			return fmt.Errorf("no hits recorded for %q", videoID)
		}
		hits = results.Hits{videoID: ts}
	}

	if len(hits) == 0 {
		fmt.Fprintln(out, "No hits recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VIDEO\t#\tAT\tSECONDS")
	total := 0
	for _, id := range hits.VideoIDs() {
		ts := hits[id]
		if len(ts) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\n", id)
			continue
		}
		for i, t := range ts {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", id, i, video.FromSeconds(t), strconv.FormatFloat(t, 'f', -1, 64))
		}
		total += len(ts)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d hits in %d videos\n", total, len(hits))
	return nil
}

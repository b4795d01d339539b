//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vod-hit-finder/application/scan"
	"vod-hit-finder/cmd"
	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/video/videotest"
	"vod-hit-finder/infrastructure/config"
	"vod-hit-finder/infrastructure/logging"

	"github.com/cucumber/godog"
)

type listedVideos []string

func (l listedVideos) List(string) ([]string, error) {
	return l, nil
}

// scanContext holds test state for scan scenarios
type scanContext struct {
	dir         string
	resultsFile string
	source      *videotest.Source
	videos      listedVideos
	resume      bool
	clear       bool
	frameStep   int
	output      *bytes.Buffer
	err         error
}

// SharedScanContext is reset before each scenario via Before hook
var SharedScanContext *scanContext

func getScanContext() *scanContext {
	return SharedScanContext
}

func InitializeScanScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "hitfinder-scan-*")
		if err != nil {
			return c, err
		}
		SharedScanContext = &scanContext{
			dir:         dir,
			resultsFile: filepath.Join(dir, "HitData.json"),
			source:      videotest.NewSource(),
			resume:      true,
			frameStep:   1,
			output:      &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedScanContext != nil {
			os.RemoveAll(SharedScanContext.dir)
		}
		SharedScanContext = nil
		return c, nil
	})

	ctx.Step(`^a (\d+) second VOD "([^"]*)" with hits at "([^"]*)"$`, aVODWithHitsAt)
	ctx.Step(`^a VOD "([^"]*)" that cannot be opened$`, aVODThatCannotBeOpened)
	ctx.Step(`^the results file already records "([^"]*)" for "([^"]*)"$`, theResultsFileAlreadyRecords)
	ctx.Step(`^resume is disabled$`, resumeIsDisabled)
	ctx.Step(`^existing results are cleared$`, existingResultsAreCleared)
	ctx.Step(`^I scan the VODs with (\d+) workers?$`, iScanTheVODsWithWorkers)
	ctx.Step(`^the scan should succeed$`, theScanShouldSucceed)
	ctx.Step(`^the results file should record "([^"]*)" for "([^"]*)"$`, theResultsFileShouldRecord)
	ctx.Step(`^the results file should have no entry for "([^"]*)"$`, theResultsFileShouldHaveNoEntryFor)
	ctx.Step(`^the scan output should mention "([^"]*)"$`, theScanOutputShouldMention)
	ctx.Step(`^"([^"]*)" should have been opened at (\d+) seconds$`, shouldHaveBeenOpenedAt)
}

// aVODWithHitsAt builds a 1 fps video; each hit is a damaged frame followed
// by a full frame
func aVODWithHitsAt(length int, name, hits string) error {
	c := getScanContext()

	seconds, err := parseSeconds(hits)
	if err != nil {
		return err
	}

	v := videotest.NewVideo(16, 8, 1).Append(length, videotest.Blank)
	for _, s := range seconds {
		t := int(s)
		if t < 1 || t >= length {
			return fmt.Errorf("hit %d outside of a %d second video", t, length)
		}
		v.Paint(t-1, videotest.Damaged)
		v.Paint(t, videotest.Full)
	}

	c.source.Add(name, v)
	c.videos = append(c.videos, name)
	return nil
}

func aVODThatCannotBeOpened(name string) error {
	c := getScanContext()
	c.videos = append(c.videos, name)
	return nil
}

func (c *scanContext) readResults() (map[string][]float64, error) {
	data, err := os.ReadFile(c.resultsFile)
	if err != nil {
		return nil, err
	}
	var hits map[string][]float64
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, fmt.Errorf("results file is not valid JSON: %w", err)
	}
	return hits, nil
}

func theResultsFileAlreadyRecords(hits, name string) error {
	c := getScanContext()

	seconds, err := parseSeconds(hits)
	if err != nil {
		return err
	}

	existing := map[string][]float64{}
	if _, err := os.Stat(c.resultsFile); err == nil {
		if existing, err = c.readResults(); err != nil {
			return err
		}
	}
	existing[name] = seconds

	data, err := json.MarshalIndent(existing, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.resultsFile, data, 0644)
}

func resumeIsDisabled() error {
	getScanContext().resume = false
	return nil
}

func existingResultsAreCleared() error {
	getScanContext().clear = true
	return nil
}

func iScanTheVODsWithWorkers(workers int) error {
	c := getScanContext()

	params, err := config.Default().DetectionParams()
	if err != nil {
		return err
	}
	settings := scan.Settings{
		FrameStep: c.frameStep,
		Region:    detection.NormalizedRect{XMin: 0, YMin: 0, XMax: 1, YMax: 1},
		Params:    params,
	}

	c.err = cmd.RunScanWithDependencies(
		context.Background(),
		c.source,
		c.videos,
		settings,
		cmd.ScanOptions{
			VodDirectory: c.dir,
			ResultsFile:  c.resultsFile,
			Workers:      workers,
			Resume:       c.resume,
			Clear:        c.clear,
		},
		logging.Discard(),
		c.output,
	)
	return nil
}

func theScanShouldSucceed() error {
	c := getScanContext()
	if c.err != nil {
		return fmt.Errorf("expected scan to succeed, got: %w", c.err)
	}
	return nil
}

func theResultsFileShouldRecord(hits, name string) error {
	c := getScanContext()

	want, err := parseSeconds(hits)
	if err != nil {
		return err
	}
	got, err := c.readResults()
	if err != nil {
		return err
	}

	entry, ok := got[name]
	if !ok {
		return fmt.Errorf("no entry for %s in %v", name, got)
	}
	if !equalSeconds(entry, want) {
		return fmt.Errorf("expected %s to record %v, got %v", name, want, entry)
	}
	return nil
}

func theResultsFileShouldHaveNoEntryFor(name string) error {
	got, err := getScanContext().readResults()
	if err != nil {
		return err
	}
	if entry, ok := got[name]; ok {
		return fmt.Errorf("expected no entry for %s, got %v", name, entry)
	}
	return nil
}

func theScanOutputShouldMention(text string) error {
	out := getScanContext().output.String()
	if !strings.Contains(out, text) {
		return fmt.Errorf("expected output to mention %q, got:\n%s", text, out)
	}
	return nil
}

func shouldHaveBeenOpenedAt(name string, seconds int) error {
	opens := getScanContext().source.Opens(name)
	for _, o := range opens {
		if o == float64(seconds) {
			return nil
		}
	}
	return fmt.Errorf("expected %s to be opened at %d seconds, opened at %v", name, seconds, opens)
}

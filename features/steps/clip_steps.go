//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vod-hit-finder/cmd"
	"vod-hit-finder/domain/clip"
	"vod-hit-finder/domain/results"
	"vod-hit-finder/infrastructure/command/commandtest"
	"vod-hit-finder/infrastructure/ffmpeg"
	"vod-hit-finder/infrastructure/logging"
	"vod-hit-finder/infrastructure/twitchdl"

	"github.com/cucumber/godog"
)

// clipContext holds test state for clip scenarios
type clipContext struct {
	dir    string
	hits   results.Hits
	window clip.Window
	runner *commandtest.Runner
	output *bytes.Buffer
	err    error
}

// SharedClipContext is reset before each scenario via Before hook
var SharedClipContext *clipContext

func getClipContext() *clipContext {
	return SharedClipContext
}

func InitializeClipScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "hitfinder-clip-*")
		if err != nil {
			return c, err
		}
		SharedClipContext = &clipContext{
			dir:    dir,
			hits:   results.Hits{},
			window: clip.DefaultWindow,
			runner: &commandtest.Runner{},
			output: &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedClipContext != nil {
			os.RemoveAll(SharedClipContext.dir)
		}
		SharedClipContext = nil
		return c, nil
	})

	ctx.Step(`^the results record "([^"]*)" for "([^"]*)"$`, theResultsRecord)
	ctx.Step(`^a clip window of (\d+) seconds before and (\d+) seconds after$`, aClipWindowOf)
	ctx.Step(`^clip downloads starting at (\d+) fail$`, clipDownloadsStartingAtFail)
	ctx.Step(`^I clip the hits with the "([^"]*)" method$`, iClipTheHitsWithTheMethod)
	ctx.Step(`^the clip command should succeed$`, theClipCommandShouldSucceed)
	ctx.Step(`^the clip command should fail with "([^"]*)"$`, theClipCommandShouldFailWith)
	ctx.Step(`^"([^"]*)" should have run with "([^"]*)"$`, shouldHaveRunWith)
	ctx.Step(`^(\d+) clips? should have been requested$`, clipsShouldHaveBeenRequested)
	ctx.Step(`^the clip output should mention "([^"]*)"$`, theClipOutputShouldMention)
}

func theResultsRecord(hits, name string) error {
	seconds, err := parseSeconds(hits)
	if err != nil {
		return err
	}
	getClipContext().hits[name] = seconds
	return nil
}

func aClipWindowOf(pre, post int) error {
	getClipContext().window = clip.Window{Pre: float64(pre), Post: float64(post)}
	return nil
}

func clipDownloadsStartingAtFail(begin string) error {
	c := getClipContext()
	c.runner.RunErr = fmt.Errorf("exit status 1")
	c.runner.FailFor = func(args []string) bool {
		for i, a := range args {
			if (a == "-b" || a == "-ss") && i+1 < len(args) && args[i+1] == begin {
				return true
			}
		}
		return false
	}
	return nil
}

func iClipTheHitsWithTheMethod(method string) error {
	c := getClipContext()

	var extractor clip.Extractor
	switch method {
	case "twitch":
		extractor = twitchdl.NewDownloader(twitchdl.WithCommandRunner(c.runner))
	case "ffmpeg":
		extractor = ffmpeg.NewCutter(filepath.Join(c.dir, "Vods"), ffmpeg.WithCommandRunner(c.runner))
	default:
		return fmt.Errorf("unknown method %q", method)
	}

	c.err = cmd.RunClipWithDependencies(
		context.Background(),
		extractor,
		nil,
		nil,
		c.hits,
		cmd.ClipOptions{
			OutputDir: filepath.Join(c.dir, "HitClips"),
			Window:    c.window,
		},
		logging.Discard(),
		c.output,
	)
	return nil
}

func theClipCommandShouldSucceed() error {
	c := getClipContext()
	if c.err != nil {
		return fmt.Errorf("expected clip command to succeed, got: %w", c.err)
	}
	return nil
}

func theClipCommandShouldFailWith(text string) error {
	c := getClipContext()
	if c.err == nil {
		return fmt.Errorf("expected clip command to fail")
	}
	if !strings.Contains(c.err.Error(), text) {
		return fmt.Errorf("expected error to contain %q, got: %v", text, c.err)
	}
	return nil
}

// clipCalls returns the extraction calls, leaving out the version check
func (c *clipContext) clipCalls() []commandtest.Call {
	var calls []commandtest.Call
	for _, call := range c.runner.Recorded() {
		if len(call.Args) == 1 && (call.Args[0] == "--version" || call.Args[0] == "-version") {
			continue
		}
		calls = append(calls, call)
	}
	return calls
}

func shouldHaveRunWith(tool, args string) error {
	c := getClipContext()
	var seen []string
	for _, call := range c.clipCalls() {
		joined := strings.Join(call.Args, " ")
		if call.Name == tool && strings.Contains(joined, args) {
			return nil
		}
		seen = append(seen, call.Name+" "+joined)
	}
	return fmt.Errorf("expected %s to run with %q, calls were:\n%s", tool, args, strings.Join(seen, "\n"))
}

func clipsShouldHaveBeenRequested(n int) error {
	if got := len(getClipContext().clipCalls()); got != n {
		return fmt.Errorf("expected %d clip commands, got %d", n, got)
	}
	return nil
}

func theClipOutputShouldMention(text string) error {
	out := getClipContext().output.String()
	if !strings.Contains(out, text) {
		return fmt.Errorf("expected output to mention %q, got:\n%s", text, out)
	}
	return nil
}

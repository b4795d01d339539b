//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vod-hit-finder/cmd"
	"vod-hit-finder/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	dir        string
	configPath string
	env        map[string]string
	cfg        *config.Config
	err        error
	output     strings.Builder
}

// SharedConfigContext is reset before each scenario via Before hook
var SharedConfigContext *configContext

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "hitfinder-config-*")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{
			dir:        dir,
			configPath: filepath.Join(dir, "config.yaml"),
			env:        make(map[string]string),
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedConfigContext != nil {
			os.RemoveAll(SharedConfigContext.dir)
		}
		SharedConfigContext = nil
		return c, nil
	})

	ctx.Step(`^a configuration file containing:$`, aConfigurationFileContaining)
	ctx.Step(`^no configuration file exists$`, noConfigurationFileExists)
	ctx.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, theEnvironmentVariableIs)
	ctx.Step(`^I load the configuration$`, iLoadTheConfiguration)
	ctx.Step(`^I load the configuration allowing a missing file$`, iLoadTheConfigurationAllowingAMissingFile)
	ctx.Step(`^I attempt to load the configuration$`, iAttemptToLoadTheConfiguration)
	ctx.Step(`^the VOD directory should be "([^"]*)"$`, theVODDirectoryShouldBe)
	ctx.Step(`^the scan worker count should be (\d+)$`, theScanWorkerCountShouldBe)
	ctx.Step(`^the minimum hit spacing should be (\d+) seconds$`, theMinimumHitSpacingShouldBe)
	ctx.Step(`^the clip method should be "([^"]*)"$`, theClipMethodShouldBe)
	ctx.Step(`^I should receive a configuration error mentioning "([^"]*)"$`, iShouldReceiveAConfigurationErrorMentioning)
	ctx.Step(`^I set config "([^"]*)" to "([^"]*)"$`, iSetConfigTo)
	ctx.Step(`^I attempt to set config "([^"]*)" to "([^"]*)"$`, iAttemptToSetConfigTo)
	ctx.Step(`^config "([^"]*)" should be "([^"]*)"$`, configShouldBe)
}

func getConfigContext() *configContext {
	return SharedConfigContext
}

func aConfigurationFileContaining(doc *godog.DocString) error {
	c := getConfigContext()
	return os.WriteFile(c.configPath, []byte(doc.Content), 0644)
}

func noConfigurationFileExists() error {
	c := getConfigContext()
	if _, err := os.Stat(c.configPath); err == nil {
		return os.Remove(c.configPath)
	}
	return nil
}

func theEnvironmentVariableIs(name, value string) error {
	getConfigContext().env[name] = value
	return nil
}

func (c *configContext) load(opts ...config.LoadOption) {
	opts = append(opts, config.WithEnvironment(c.env))
	c.cfg, c.err = config.Load(c.configPath, opts...)
}

func iLoadTheConfiguration() error {
	c := getConfigContext()
	c.load()
	if c.err != nil {
		return fmt.Errorf("failed to load configuration: %w", c.err)
	}
	return nil
}

func iLoadTheConfigurationAllowingAMissingFile() error {
	c := getConfigContext()
	c.load(config.AllowMissing())
	if c.err != nil {
		return fmt.Errorf("failed to load configuration: %w", c.err)
	}
	return nil
}

func iAttemptToLoadTheConfiguration() error {
	getConfigContext().load()
	return nil
}

func theVODDirectoryShouldBe(expected string) error {
	if got := getConfigContext().cfg.Paths.VodDirectory; got != expected {
		return fmt.Errorf("expected VOD directory %q, got %q", expected, got)
	}
	return nil
}

func theScanWorkerCountShouldBe(expected int) error {
	if got := getConfigContext().cfg.Scan.MaxWorkers; got != expected {
		return fmt.Errorf("expected %d workers, got %d", expected, got)
	}
	return nil
}

func theMinimumHitSpacingShouldBe(expected int) error {
	if got := getConfigContext().cfg.Detection.MinSpacingSeconds; got != float64(expected) {
		return fmt.Errorf("expected spacing %d, got %v", expected, got)
	}
	return nil
}

func theClipMethodShouldBe(expected string) error {
	if got := getConfigContext().cfg.Clip.Method; got != expected {
		return fmt.Errorf("expected clip method %q, got %q", expected, got)
	}
	return nil
}

func iShouldReceiveAConfigurationErrorMentioning(text string) error {
	c := getConfigContext()
	if c.err == nil {
		return fmt.Errorf("expected a configuration error, got none")
	}
	if !strings.Contains(c.err.Error(), text) {
		return fmt.Errorf("expected error to mention %q, got: %v", text, c.err)
	}
	return nil
}

func (c *configContext) ensureLoaded() error {
	if c.cfg != nil {
		return nil
	}
	if _, err := os.Stat(c.configPath); err != nil {
		if err := config.Save(config.Default(), c.configPath); err != nil {
			return err
		}
	}
	c.load()
	return c.err
}

func iSetConfigTo(key, value string) error {
	c := getConfigContext()
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	return cmd.RunConfigSetWithDependencies(c.cfg, c.configPath, key, value, &c.output)
}

func iAttemptToSetConfigTo(key, value string) error {
	c := getConfigContext()
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.err = cmd.RunConfigSetWithDependencies(c.cfg, c.configPath, key, value, &c.output)
	return nil
}

func configShouldBe(key, expected string) error {
	c := getConfigContext()

	// Read back from disk so the step proves the value was saved
	cfg, err := config.Load(c.configPath, config.WithEnvironment(map[string]string{}))
	if err != nil {
		return err
	}

	var out strings.Builder
	if err := cmd.RunConfigGetWithDependencies(cfg, c.configPath, key, &out); err != nil {
		return err
	}
	if got := strings.TrimSpace(out.String()); got != expected {
		return fmt.Errorf("expected %s = %q, got %q", key, expected, got)
	}
	return nil
}

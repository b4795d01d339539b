package cmd

import (
	"fmt"
	"os"
	"strconv"

	"vod-hit-finder/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up your configuration file with the
VOD and clip directories, scan concurrency, the clip method and the optional
Google Drive upload. Detection thresholds keep their defaults and can be
changed later with 'hitfinder config set'.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = DefaultConfigPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out OutputWriter) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm(configPath+" already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to hitfinder setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}
	if err := promptScan(prompter, cfg); err != nil {
		return err
	}
	if err := promptClip(prompter, cfg); err != nil {
		return err
	}
	if err := promptDrive(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	vods, err := prompter.Input("Where are the VODs stored?", cfg.Paths.VodDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if vods == "" {
		return fmt.Errorf("VOD directory is required")
	}
	cfg.Paths.VodDirectory = vods

	resultsFile, err := prompter.Input("Where should hits be recorded?", cfg.Paths.ResultsFile)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if resultsFile != "" {
		cfg.Paths.ResultsFile = resultsFile
	}

	clips, err := prompter.Input("Where should clips go?", cfg.Paths.ClipDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if clips != "" {
		cfg.Paths.ClipDirectory = clips
	}

	return nil
}

func promptScan(prompter Prompter, cfg *config.Config) error {
	workers, err := prompter.Input("How many videos should be scanned at once?", strconv.Itoa(cfg.Scan.MaxWorkers))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil || n < 1 {
			return fmt.Errorf("worker count must be a positive number, got %q", workers)
		}
		cfg.Scan.MaxWorkers = n
	}
	return nil
}

func promptClip(prompter Prompter, cfg *config.Config) error {
	method, err := prompter.Select("How should clips be made?",
		[]string{config.MethodTwitch, config.MethodFFmpeg}, cfg.Clip.Method)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Clip.Method = method

	switch method {
	case config.MethodTwitch:
		path, err := prompter.Input("Path to TwitchDownloaderCLI?", cfg.Clip.TwitchCLIPath)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if path != "" {
			cfg.Clip.TwitchCLIPath = path
		}
	case config.MethodFFmpeg:
		path, err := prompter.Input("Path to ffmpeg?", cfg.Clip.FFmpegPath)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if path != "" {
			cfg.Clip.FFmpegPath = path
		}
	}
	return nil
}

func promptDrive(prompter Prompter, cfg *config.Config) error {
	upload, err := prompter.Confirm("Upload clips to Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Clip.UploadToDrive = upload
	if !upload {
		return nil
	}

	credentials, err := prompter.Input("Path to Google credentials file?", cfg.Drive.CredentialsFile)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials != "" {
		cfg.Drive.CredentialsFile = credentials
	}

	folder, err := prompter.Input("Google Drive folder ID for clips?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Drive.FolderID = folder

	return nil
}

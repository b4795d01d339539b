package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vod-hit-finder/domain/video"
)

// DefaultExtensions are the container formats recorded VODs come in
var DefaultExtensions = []string{".mp4", ".mkv", ".flv", ".ts", ".mov"}

// Checker implements video.FileChecker and video.Lister using the os package
type Checker struct {
	extensions map[string]bool
}

// NewChecker creates a new filesystem checker listing files with the given
// extensions; none means DefaultExtensions
func NewChecker(extensions ...string) *Checker {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	c := &Checker{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.extensions[ext] = true
	}
	return c
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// List implements video.Lister; hidden files and directories are skipped
func (c *Checker) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read VOD directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !c.extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Ensure Checker implements the video ports
var (
	_ video.FileChecker = (*Checker)(nil)
	_ video.Lister      = (*Checker)(nil)
)

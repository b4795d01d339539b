package resultstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"vod-hit-finder/domain/detection"
	"vod-hit-finder/domain/results"
)

// Store implements results.Store on top of a JSON file.
// The in-memory map is the single writer of the file; workers never re-read it.
type Store struct {
	mu     sync.Mutex
	path   string
	hits   results.Hits
	resume bool
	clear  bool
	logger *slog.Logger
}

// Option is a functional option for configuring Store
type Option func(*Store)

// WithResume enables resume-after-crash: scans continue after the latest hit
func WithResume(enabled bool) Option {
	return func(s *Store) {
		s.resume = enabled
	}
}

// WithClearExisting ignores hits persisted by previous runs
func WithClearExisting(enabled bool) Option {
	return func(s *Store) {
		s.clear = enabled
	}
}

// WithLogger sets the logger used for flush diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates a store backed by path and loads any existing hits
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		hits:   make(results.Hits),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.clear {
		s.logger.Info("ignoring existing hit data", "path", path)
		return s, nil
	}

	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Load implements results.Store
func (s *Store) Load() (results.Hits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	s.hits = hits
	return s.hits.Clone(), nil
}

// ResumePoint implements results.Store
func (s *Store) ResumePoint(videoID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.resume {
		return 0
	}
	latest, ok := s.hits.Latest(videoID)
	if !ok {
		return 0
	}
	return latest + 1
}

// Hits implements results.Store
func (s *Store) Hits(videoID string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.hits[videoID]...)
}

// Snapshot implements results.Store
func (s *Store) Snapshot() results.Hits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits.Clone()
}

// RecordEvent implements results.Store
func (s *Store) RecordEvent(videoID string, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[videoID] = append(s.hits[videoID], seconds)
	return s.flush()
}

// Finalize implements results.Store
func (s *Store) Finalize(videoID string, seconds []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[videoID] = append([]float64{}, seconds...)
	return s.flush()
}

// flush rewrites the whole mapping atomically; callers hold mu
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.hits, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode hits: %v", detection.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", detection.ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", detection.ErrPersistence, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write hits: %v", detection.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync hits: %v", detection.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", detection.ErrPersistence, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %v", detection.ErrPersistence, s.path, err)
	}

	syncDir(dir)
	s.logger.Debug("hits flushed", "path", s.path, "videos", len(s.hits))
	return nil
}

// readFile loads the mapping; a missing file is an empty mapping
func readFile(path string) (results.Hits, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(results.Hits), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hit data %s: %w", path, err)
	}

	hits := make(results.Hits)
	if len(data) == 0 {
		return hits, nil
	}
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, fmt.Errorf("failed to parse hit data %s: %w", path, err)
	}
	for id, ts := range hits {
		if ts == nil {
			hits[id] = []float64{}
		}
	}
	return hits, nil
}

// syncDir makes the rename durable where the platform allows it
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// Ensure Store implements results.Store
var _ results.Store = (*Store)(nil)

package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/atinylittleshell/qline/pkg/debounce"
	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

const saveDelay = 500 * time.Millisecond

// Preferences is the on-disk shape of the preference file.
type Preferences struct {
	QuickAutocomplete bool `yaml:"quick_autocomplete"`
}

// Store holds the quick-autocomplete preference, notifies subscribers when
// it changes and persists it to a YAML file. Saves are debounced so that
// rapid toggling writes the file once.
type Store struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	prefs  Preferences
	subs   map[int]func(bool)
	nextID int

	saver *debounce.Debouncer
}

var _ queryeditor.Observable = (*Store)(nil)

// Open loads the preferences at path. A missing file yields the defaults. An
// empty path keeps preferences in memory only.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		path:   path,
		logger: logger,
		subs:   make(map[int]func(bool)),
	}
	s.saver = debounce.New(saveDelay, s.persist)

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}

	return s, nil
}

func (s *Store) Current() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.QuickAutocomplete
}

func (s *Store) Subscribe(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Set changes the preference. Subscribers are only notified on an actual
// change.
func (s *Store) Set(quick bool) {
	s.mu.Lock()
	if s.prefs.QuickAutocomplete == quick {
		s.mu.Unlock()
		return
	}
	s.prefs.QuickAutocomplete = quick
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("preferences quick autocomplete changed", zap.Bool("quick", quick))

	for _, fn := range subs {
		fn(quick)
	}
	if s.path != "" {
		s.saver.Call()
	}
}

// Toggle flips the preference and returns the new value.
func (s *Store) Toggle() bool {
	quick := !s.Current()
	s.Set(quick)
	return quick
}

// Close writes any pending change to disk.
func (s *Store) Close() error {
	s.saver.Flush()
	return nil
}

// Save writes the preferences to disk right away.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	data, err := yaml.Marshal(s.prefs)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) persist() {
	if err := s.Save(); err != nil {
		s.logger.Warn("preferences save failed", zap.Error(err))
	}
}

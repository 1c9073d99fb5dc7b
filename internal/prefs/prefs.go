// Package prefs persists per-widget UI preferences in a single YAML file,
// one top-level key per widget name. Writes are whole-file and
// last-write-wins; a dashboard reads its key once at startup.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tinytelemetry/logstream/internal/model"
	"gopkg.in/yaml.v3"
)

// LogStreaming is the saved state of the log-streaming widget.
type LogStreaming struct {
	Filter     model.FilterState `yaml:"filter"`
	AutoScroll bool              `yaml:"autoScroll"`
}

// DefaultLogStreaming returns the widget's built-in defaults.
func DefaultLogStreaming() LogStreaming {
	return LogStreaming{Filter: model.DefaultFilter(), AutoScroll: true}
}

// Store reads and writes the preferences file. A Store with an empty path
// keeps nothing and never fails.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a Store backed by path. The file need not exist yet.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load decodes the preferences saved under widget into dest. It reports
// false when nothing was saved; dest is left untouched in that case.
func (s *Store) Load(widget string, dest any) (bool, error) {
	if s == nil || s.path == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, err
	}
	node, ok := doc[widget]
	if !ok {
		return false, nil
	}
	if err := node.Decode(dest); err != nil {
		return false, fmt.Errorf("prefs: decode %s: %w", widget, err)
	}
	return true, nil
}

// Save replaces the preferences stored under widget.
func (s *Store) Save(widget string, v any) error {
	if s == nil || s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking every save.
		doc = map[string]yaml.Node{}
	}
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return fmt.Errorf("prefs: encode %s: %w", widget, err)
	}
	doc[widget] = node

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("prefs: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("prefs: mkdir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("prefs: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("prefs: rename: %w", err)
	}
	return nil
}

func (s *Store) read() (map[string]yaml.Node, error) {
	doc := map[string]yaml.Node{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: read: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("prefs: parse %s: %w", s.path, err)
	}
	return doc, nil
}

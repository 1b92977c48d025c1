// Package alerts manages saved searches in a single YAML file: a named
// criteria set with an enabled flag, the unit a recurring search runs
// from.
package alerts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/avlloyd/jobscout/internal/scout"
)

// ErrExists is returned when creating an alert whose name is taken.
var ErrExists = errors.New("alert already exists")

// ErrNotFound is returned for operations on an unknown alert name.
var ErrNotFound = errors.New("alert not found")

// Alert couples a name to search criteria and an enabled flag.
type Alert struct {
	Name     string
	Criteria scout.Criteria
	Enabled  bool
}

// Update is a partial field merge for an existing alert; nil fields
// keep their current value.
type Update struct {
	Enabled  *bool
	Keywords *string
	Location *string
}

// Store reads and writes the alerts file. All operations load the file,
// mutate, and write back; the mutex keeps concurrent callers in one
// process from interleaving read-modify-write cycles.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore points at the alerts file; the file is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns all alerts sorted by name.
func (s *Store) List() ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Enabled returns only alerts with the enabled flag set.
func (s *Store) Enabled() ([]Alert, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var enabled []Alert
	for _, a := range all {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}
	return enabled, nil
}

// Get looks an alert up by name.
func (s *Store) Get(name string) (Alert, error) {
	all, err := s.List()
	if err != nil {
		return Alert{}, err
	}
	for _, a := range all {
		if a.Name == name {
			return a, nil
		}
	}
	return Alert{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Create adds a new alert, failing if the name is taken or the criteria
// is invalid.
func (s *Store) Create(alert Alert) error {
	if alert.Name == "" {
		return fmt.Errorf("alert name is required")
	}
	if err := alert.Criteria.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	for _, a := range all {
		if a.Name == alert.Name {
			return fmt.Errorf("%w: %s", ErrExists, alert.Name)
		}
	}
	return s.save(append(all, alert))
}

// Apply merges the update into the named alert and persists the result.
func (s *Store) Apply(name string, upd Update) (Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return Alert{}, err
	}
	for i, a := range all {
		if a.Name != name {
			continue
		}
		if upd.Enabled != nil {
			a.Enabled = *upd.Enabled
		}
		if upd.Keywords != nil {
			a.Criteria.Keywords = *upd.Keywords
		}
		if upd.Location != nil {
			a.Criteria.Location = *upd.Location
		}
		if err := a.Criteria.Validate(); err != nil {
			return Alert{}, err
		}
		all[i] = a
		if err := s.save(all); err != nil {
			return Alert{}, err
		}
		return a, nil
	}
	return Alert{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Delete removes the named alert.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	kept := all[:0]
	for _, a := range all {
		if a.Name != name {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(all) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s.save(kept)
}

func (s *Store) load() ([]Alert, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read alerts file: %w", err)
	}
	var doc alertsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode alerts file: %w", err)
	}
	alerts := make([]Alert, 0, len(doc.Alerts))
	for _, entry := range doc.Alerts {
		alert, err := entry.toAlert()
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Name < alerts[j].Name })
	return alerts, nil
}

func (s *Store) save(alerts []Alert) error {
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Name < alerts[j].Name })
	doc := alertsDoc{Alerts: make([]alertEntry, 0, len(alerts))}
	for _, a := range alerts {
		doc.Alerts = append(doc.Alerts, fromAlert(a))
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode alerts file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create alerts dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write alerts file: %w", err)
	}
	return nil
}

// Package export writes job batches to JSON files, independent of the
// persistence ledger.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avlloyd/jobscout/internal/scout"
)

// Envelope is the on-disk format: a count plus the postings.
type Envelope struct {
	Count int                `json:"count"`
	Jobs  []scout.JobPosting `json:"jobs"`
}

// Store writes exports under a base directory.
type Store struct {
	dir string
}

// NewStore builds a Store rooted at dir ("." when empty).
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Save writes the batch as <dir>/<name>.json and returns the full path.
func (s *Store) Save(jobs []scout.JobPosting, name string) (string, error) {
	if name == "" {
		name = "jobs"
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	path := filepath.Join(s.dir, name)
	if err := WriteFile(jobs, path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a previously exported batch.
func (s *Store) Load(name string) ([]scout.JobPosting, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read export: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return env.Jobs, nil
}

// WriteFile writes the batch envelope directly to path, creating parent
// directories as needed.
func WriteFile(jobs []scout.JobPosting, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	env := Envelope{Count: len(jobs), Jobs: jobs}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

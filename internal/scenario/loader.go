// Package scenario loads the FCA enforcement case scenarios presented
// to analysts.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Scenario is one enforcement case file.
type Scenario struct {
	ID              string `json:"id"`
	Institution     string `json:"institution"`
	FineAmount      string `json:"fine_amount"`
	Title           string `json:"title"`
	Scenario        string `json:"scenario"`
	FCACriticism    string `json:"fca_criticism"`
	CorrectApproach string `json:"correct_approach"`
}

// Store holds the loaded scenario corpus.
type Store struct {
	mu        sync.RWMutex
	dir       string
	scenarios map[string]*Scenario
	logger    *zap.Logger
}

// Load reads every corpse_*.json file in dir. Malformed files are
// skipped with a warning rather than failing the whole corpus.
func Load(dir string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		dir:       dir,
		scenarios: make(map[string]*Scenario),
		logger:    logger,
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Reload re-reads the scenario directory, replacing the in-memory set.
func (s *Store) Reload() error {
	files, err := filepath.Glob(filepath.Join(s.dir, "corpse_*.json"))
	if err != nil {
		return fmt.Errorf("failed to scan scenario directory: %w", err)
	}

	loaded := make(map[string]*Scenario)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			s.logger.Warn("Failed to read scenario file",
				zap.String("file", file), zap.Error(err))
			continue
		}

		var sc Scenario
		if err := json.Unmarshal(data, &sc); err != nil {
			s.logger.Warn("Skipping malformed scenario file",
				zap.String("file", file), zap.Error(err))
			continue
		}
		if sc.ID == "" {
			s.logger.Warn("Skipping scenario without id", zap.String("file", file))
			continue
		}

		loaded[sc.ID] = &sc
	}

	s.mu.Lock()
	s.scenarios = loaded
	s.mu.Unlock()

	s.logger.Info("Scenarios loaded",
		zap.String("dir", s.dir), zap.Int("count", len(loaded)))
	return nil
}

// Get returns one scenario by ID.
func (s *Store) Get(id string) (*Scenario, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenarios[id]
	return sc, ok
}

// List returns all scenarios sorted by ID.
func (s *Store) List() []*Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Scenario, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of loaded scenarios.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scenarios)
}

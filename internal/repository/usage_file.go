// Package repository implements the route usage stores: a JSON file,
// per-route Redis hashes and a PostgreSQL table.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/villagetaxi/farequote/internal/model"
)

// FileUsageStore keeps the route usage mapping in one JSON file.
//
// The file is read once, on first use, and rewritten in full after every
// Record. A mutex makes this process the file's single writer, so concurrent
// Records are serialized rather than lost. Other processes sharing the file
// are not coordinated with.
type FileUsageStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	routes map[string]model.RouteUsageRecord
}

// NewFileUsageStore creates a store backed by path.
func NewFileUsageStore(path string) *FileUsageStore {
	return &FileUsageStore{path: path}
}

// Load returns a copy of the mapping, reading the file if not yet loaded.
func (s *FileUsageStore) Load(ctx context.Context) (map[string]model.RouteUsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return copyRoutes(s.routes), nil
}

// Record applies one lookup to the route and rewrites the file.
func (s *FileUsageStore) Record(
	ctx context.Context,
	key model.RouteKey,
	distanceMiles float64,
	now time.Time,
) (model.RouteUsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return model.RouteUsageRecord{}, err
	}

	rec := s.routes[key.String()]
	rec.Apply(distanceMiles, now)
	s.routes[key.String()] = rec

	if err := s.persist(); err != nil {
		return rec, err
	}
	return rec, nil
}

// List returns routes with at least minCount searches, most searched first.
func (s *FileUsageStore) List(ctx context.Context, minCount int) ([]model.PopularRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return model.PopularRoutes(s.routes, minCount), nil
}

// ensureLoaded reads the file once. A missing file is an empty mapping.
// Caller holds s.mu.
func (s *FileUsageStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}

	routes := make(map[string]model.RouteUsageRecord)
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("usage file: read %s: %w", s.path, err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &routes); err != nil {
			return fmt.Errorf("usage file: decode %s: %w", s.path, err)
		}
	}

	s.routes = routes
	s.loaded = true
	return nil
}

// persist writes the whole mapping to a temporary file and renames it over
// the store file. Caller holds s.mu.
func (s *FileUsageStore) persist() error {
	data, err := json.MarshalIndent(s.routes, "", "  ")
	if err != nil {
		return fmt.Errorf("usage file: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("usage file: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("usage file: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("usage file: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("usage file: replace %s: %w", s.path, err)
	}
	return nil
}

func copyRoutes(in map[string]model.RouteUsageRecord) map[string]model.RouteUsageRecord {
	out := make(map[string]model.RouteUsageRecord, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Package storage holds the snapshot store (local JSON file with an
// optional Redis read-through cache) and the Postgres run archive.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/picklevibe/bookings-crawler/internal/domain"
)

// ErrNoSnapshot is returned when no dataset has been persisted yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// LocalStore persists the aggregated dataset as one JSON document at a
// fixed path. Each write fully replaces the prior snapshot.
type LocalStore struct {
	path string
}

func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

// Write replaces the snapshot. The document is written to a temp file in
// the same directory and renamed over the target, so readers never observe
// a partial snapshot.
func (s *LocalStore) Write(dataset []domain.BookingRecord) error {
	payload, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Read loads the last snapshot, or ErrNoSnapshot when none exists.
func (s *LocalStore) Read() ([]domain.BookingRecord, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var dataset []domain.BookingRecord
	if err := json.Unmarshal(payload, &dataset); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return dataset, nil
}

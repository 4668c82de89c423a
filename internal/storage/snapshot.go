package storage

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/domain"
)

// SnapshotStore is the durable home of the last aggregated dataset: a
// local JSON file fronted by an optional Redis cache. Cache failures are
// logged and ignored; the file is authoritative.
type SnapshotStore struct {
	local  *LocalStore
	cache  *RedisCache // nil when Redis is not configured
	logger *zap.Logger
}

func NewSnapshotStore(local *LocalStore, cache *RedisCache, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{local: local, cache: cache, logger: logger}
}

// Write fully replaces the snapshot and refreshes the cache.
func (s *SnapshotStore) Write(ctx context.Context, dataset []domain.BookingRecord) error {
	if err := s.local.Write(dataset); err != nil {
		return err
	}
	s.refreshCache(ctx, dataset)
	return nil
}

// Read returns the last persisted dataset, preferring the cache, or
// ErrNoSnapshot when nothing has been persisted yet.
func (s *SnapshotStore) Read(ctx context.Context) ([]domain.BookingRecord, error) {
	if s.cache != nil {
		if payload, err := s.cache.Get(ctx); err == nil {
			var dataset []domain.BookingRecord
			if jsonErr := json.Unmarshal(payload, &dataset); jsonErr == nil {
				return dataset, nil
			}
			s.logger.Warn("discarding unreadable cached snapshot")
		}
	}

	dataset, err := s.local.Read()
	if err != nil {
		return nil, err
	}
	s.refreshCache(ctx, dataset)
	return dataset, nil
}

func (s *SnapshotStore) refreshCache(ctx context.Context, dataset []domain.BookingRecord) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(dataset)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, payload); err != nil {
		s.logger.Warn("could not refresh snapshot cache", zap.Error(err))
	}
}

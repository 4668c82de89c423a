package exporter

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/domain"
	"github.com/picklevibe/bookings-crawler/internal/storage"
)

// Pipeline delivers an aggregated dataset: remote sink first, local
// snapshot on any remote failure. The guarantee is durability, not
// destination — a run only fails when both tiers fail.
type Pipeline struct {
	remote *RemoteSink // nil when no endpoint is configured
	store  *storage.SnapshotStore
	logger *zap.Logger
}

func NewPipeline(remote *RemoteSink, store *storage.SnapshotStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{remote: remote, store: store, logger: logger}
}

// Deliver sends the dataset and returns the delivered count. On remote
// success the local snapshot is left untouched. On remote failure the
// full dataset replaces the local snapshot and delivery still succeeds;
// only a failed local write is an error.
func (p *Pipeline) Deliver(ctx context.Context, dataset []domain.BookingRecord) (int, error) {
	if p.remote != nil {
		payload, err := json.Marshal(dataset)
		if err != nil {
			return 0, fmt.Errorf("encode dataset: %w", err)
		}
		count, sendErr := p.remote.Send(ctx, payload)
		if sendErr == nil {
			if count == 0 {
				count = len(dataset)
			}
			p.logger.Info("dataset delivered to remote sink", zap.Int("count", count))
			return count, nil
		}
		p.logger.Warn("remote delivery failed, falling back to local snapshot", zap.Error(sendErr))
	} else {
		p.logger.Info("no remote endpoint configured, persisting locally")
	}

	if err := p.store.Write(ctx, dataset); err != nil {
		return 0, fmt.Errorf("persist snapshot after delivery failure: %w", err)
	}
	p.logger.Info("dataset persisted to local snapshot", zap.Int("count", len(dataset)))
	return len(dataset), nil
}

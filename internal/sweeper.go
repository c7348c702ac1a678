package internal

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/framehaus/framedesk/internal/model"
)

// Sweeper reclaims storage by deleting records that finished longer than
// the retention window ago. Anything still in flight is kept no matter how
// old it is, and a record that cannot be read is kept too: a parse failure
// may be a transient write race rather than real corruption, so the sweep
// fails safe.
type Sweeper struct {
	store  IStore
	logger *zap.SugaredLogger
}

func NewSweeper(store IStore, logger *zap.SugaredLogger) *Sweeper {
	return &Sweeper{store: store, logger: logger}
}

func (s *Sweeper) Sweep(ctx context.Context, maxAgeDays int) (int, error) {
	s.logger.Info("running order cleanup job")

	entries, err := s.store.Entries(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	deleted := 0

	for _, e := range entries {
		if e.ModTime.After(cutoff) {
			continue
		}

		order, err := s.store.Get(ctx, e.ID)
		if errors.Is(err, ErrOrderNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warnf("keeping unreadable order record %s: %s", e.ID, err)
			continue
		}

		if order.Status != model.OrderStatusCompleted && order.Status != model.OrderStatusFailed {
			continue
		}

		err = s.store.Delete(ctx, e.ID)
		if err != nil {
			s.logger.Errorf("deleting order %s: %s", e.ID, err)
			continue
		}
		deleted++
	}

	s.logger.Infof("cleaned up %d old orders", deleted)
	return deleted, nil
}

package internal

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/framehaus/framedesk/internal/model"
)

// Scheduler runs the batch pass over approved POS orders. Orders are
// processed strictly one at a time; parallel sessions against the vendor
// site trip its anti-bot defenses.
type Scheduler struct {
	store  IStore
	engine *Engine
	logger *zap.SugaredLogger
}

func NewScheduler(store IStore, engine *Engine, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{store: store, engine: engine, logger: logger}
}

// RunOnce drives every approved_for_schedule order through one processing
// attempt, oldest first. Per-order failures are persisted on the record and
// aggregated into the report; only a store scan failure is returned as an
// error.
func (s *Scheduler) RunOnce(ctx context.Context) (model.RunReport, error) {
	s.logger.Info("running scheduled order processing")

	orders, err := s.store.All(ctx)
	if err != nil {
		return model.RunReport{}, err
	}

	approved := make([]model.Order, 0)
	for _, o := range orders {
		if o.Status == model.OrderStatusApprovedForSchedule && o.Scheduled {
			approved = append(approved, o)
		}
	}
	sort.Slice(approved, func(i, j int) bool {
		return approved[i].Timestamp.Before(approved[j].Timestamp)
	})

	if len(approved) == 0 {
		s.logger.Info("no approved orders to process")
		return model.RunReport{}, nil
	}
	s.logger.Infof("found %d orders to process", len(approved))

	report := model.RunReport{}
	for _, o := range approved {
		report.ProcessedCount++

		err := s.engine.ProcessOrder(ctx, o.ID)
		if err != nil {
			report.FailureCount++
			report.Errors = append(report.Errors, model.OrderError{ID: o.ID, Error: err.Error()})
			continue
		}
		report.SuccessCount++
	}

	s.logger.Infof("scheduled processing finished: %d processed, %d failed",
		report.ProcessedCount, report.FailureCount)
	return report, nil
}

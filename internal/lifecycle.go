package internal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/framehaus/framedesk/internal/model"
)

// Engine drives a single order through one processing attempt: it durably
// marks the order processing, invokes the automation collaborator once and
// maps the outcome back onto a terminal status. The processing write always
// happens before the automation call, on the direct and the scheduled path
// alike, so a concurrent list never misses an in-flight attempt.
type Engine struct {
	store      IStore
	automation IAutomation
	metrics    *Metrics
	logger     *zap.SugaredLogger
}

func NewEngine(store IStore, automation IAutomation, metrics *Metrics, logger *zap.SugaredLogger) *Engine {
	return &Engine{store: store, automation: automation, metrics: metrics, logger: logger}
}

// ProcessOrder runs one attempt for the given order. The returned error is
// the automation failure after it has been persisted; the caller decides
// whether to aggregate or just log it. Precondition failures surface as
// ErrInvalidTransition without touching the record.
func (e *Engine) ProcessOrder(ctx context.Context, id string) error {
	order, err := e.store.Update(ctx, id, markProcessing)
	if err != nil {
		return err
	}

	err = e.automation.Process(ctx, order.Items)
	if err != nil {
		e.metrics.RecordOrderFailed()
		e.logger.Errorf("order %s failed: %s", id, err)

		_, werr := e.store.Update(ctx, id, markFailed(err))
		if werr != nil {
			e.logger.Errorf("recording failure for order %s: %s", id, werr)
		}
		return fmt.Errorf("process order %s: %w", id, err)
	}

	_, err = e.store.Update(ctx, id, markCompleted)
	if err != nil {
		return err
	}

	e.metrics.RecordOrderProcessed()
	e.logger.Infof("order %s processed successfully", id)
	return nil
}

func markProcessing(o *model.Order) error {
	if o.Status != model.OrderStatusPending && o.Status != model.OrderStatusApprovedForSchedule {
		return ErrInvalidTransition
	}
	now := time.Now()
	o.Status = model.OrderStatusProcessing
	o.ProcessingStartedAt = &now
	return nil
}

func markCompleted(o *model.Order) error {
	if o.Status != model.OrderStatusProcessing {
		return ErrInvalidTransition
	}
	now := time.Now()
	o.Status = model.OrderStatusCompleted
	o.CompletedAt = &now
	o.Error = ""
	return nil
}

func markFailed(cause error) func(*model.Order) error {
	return func(o *model.Order) error {
		if o.Status != model.OrderStatusProcessing {
			return ErrInvalidTransition
		}
		now := time.Now()
		o.Status = model.OrderStatusFailed
		o.FailedAt = &now
		o.Error = cause.Error()
		return nil
	}
}

func markRetried(o *model.Order) error {
	if o.Status != model.OrderStatusFailed {
		return ErrInvalidTransition
	}
	now := time.Now()
	o.Status = model.OrderStatusPending
	o.RetryTimestamp = &now
	return nil
}

func markApproved(o *model.Order) error {
	if o.Status != model.OrderStatusAwaitingApproval {
		return ErrInvalidTransition
	}
	now := time.Now()
	o.Status = model.OrderStatusApprovedForSchedule
	o.Scheduled = true
	o.ApprovedAt = &now
	return nil
}

func markRejected(reason string) func(*model.Order) error {
	return func(o *model.Order) error {
		if o.Status != model.OrderStatusAwaitingApproval {
			return ErrInvalidTransition
		}
		if reason == "" {
			reason = "No reason provided"
		}
		now := time.Now()
		o.Status = model.OrderStatusRejected
		o.RejectedAt = &now
		o.RejectionReason = reason
		return nil
	}
}

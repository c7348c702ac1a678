package internal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/framehaus/framedesk/internal/model"
)

const createAttempts = 5

type IService interface {
	SubmitOrder(context.Context, []model.ItemInput) (model.SubmitResult, error)
	SubmitPosOrder(context.Context, model.PosOrderInput) (model.PosSubmitResult, error)
	OrderStatus(context.Context, string) (model.StatusOutput, error)
	ListOrders(context.Context, string) ([]model.OrderSummary, error)
	RetryOrder(context.Context, string) (model.Order, error)
	ApproveOrder(context.Context, string) (model.Order, error)
	RejectOrder(context.Context, string, string) (model.Order, error)
	PendingApprovals(context.Context) ([]model.Order, error)
}

// Enqueuer hands an admitted order off for asynchronous processing.
type Enqueuer interface {
	Enqueue(id string)
}

type Service struct {
	store    IStore
	worker   Enqueuer
	validate *validator.Validate
	metrics  *Metrics
	logger   *zap.SugaredLogger
}

func NewService(store IStore, worker Enqueuer, metrics *Metrics, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:    store,
		worker:   worker,
		validate: newValidator(),
		metrics:  metrics,
		logger:   logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()

	// let gt/required tags see decimal dimensions as plain numbers
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// SubmitOrder admits a direct order: it persists the record at pending and
// hands the ID to the worker without waiting for the processing outcome.
func (s *Service) SubmitOrder(ctx context.Context, items []model.ItemInput) (model.SubmitResult, error) {
	if len(items) == 0 {
		return model.SubmitResult{}, fmt.Errorf("%w: order needs at least one item", ErrInvalidOrderData)
	}
	for i, item := range items {
		err := s.validate.Struct(item)
		if err != nil {
			return model.SubmitResult{}, fmt.Errorf("%w: item %d: %s", ErrInvalidOrderData, i, validationDetail(err))
		}
	}

	order := model.Order{
		Timestamp: time.Now(),
		Source:    model.OrderSourceDirect,
		Status:    model.OrderStatusPending,
		Items:     directItems(items),
	}

	err := s.create(ctx, &order, newOrderID)
	if err != nil {
		return model.SubmitResult{}, err
	}

	s.worker.Enqueue(order.ID)
	s.logger.Infof("direct order %s admitted with %d items", order.ID, len(order.Items))

	return model.SubmitResult{ID: order.ID, Timestamp: order.Timestamp}, nil
}

// SubmitPosOrder admits a POS-relayed order at awaiting_approval and
// returns the normalized pick list for manual review. Processing only
// starts after an explicit approval and a scheduled run.
func (s *Service) SubmitPosOrder(ctx context.Context, input model.PosOrderInput) (model.PosSubmitResult, error) {
	err := s.validate.Struct(input)
	if err != nil {
		return model.PosSubmitResult{}, fmt.Errorf("%w: %s", ErrInvalidOrderData, validationDetail(err))
	}

	pickList := buildPickList(input.Items)

	order := model.Order{
		Timestamp:    time.Now(),
		Source:       model.OrderSourcePOS,
		Status:       model.OrderStatusAwaitingApproval,
		CustomerName: input.CustomerName,
		PosOrderID:   input.PosOrderID,
		Items:        pickList,
	}

	err = s.create(ctx, &order, newPosOrderID)
	if err != nil {
		return model.PosSubmitResult{}, err
	}

	s.logger.Infof("POS order %s received and saved", order.ID)
	return model.PosSubmitResult{ID: order.ID, PickList: pickList}, nil
}

func (s *Service) OrderStatus(ctx context.Context, id string) (model.StatusOutput, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return model.StatusOutput{}, err
	}
	return model.StatusOutput{
		ID:        order.ID,
		Timestamp: order.Timestamp,
		Status:    order.Status,
		Error:     order.Error,
	}, nil
}

func (s *Service) ListOrders(ctx context.Context, status string) ([]model.OrderSummary, error) {
	return s.store.List(ctx, status)
}

// RetryOrder moves a failed order back to pending and re-enqueues it.
// Any other current status is rejected without touching the record.
func (s *Service) RetryOrder(ctx context.Context, id string) (model.Order, error) {
	order, err := s.store.Update(ctx, id, markRetried)
	if err != nil {
		return model.Order{}, err
	}

	s.metrics.RecordOrderRetried()
	s.worker.Enqueue(order.ID)
	s.logger.Infof("order %s queued for retry", order.ID)
	return order, nil
}

func (s *Service) ApproveOrder(ctx context.Context, id string) (model.Order, error) {
	order, err := s.store.Update(ctx, id, markApproved)
	if err != nil {
		return model.Order{}, err
	}

	s.logger.Infof("order %s approved for scheduled processing", order.ID)
	return order, nil
}

func (s *Service) RejectOrder(ctx context.Context, id, reason string) (model.Order, error) {
	order, err := s.store.Update(ctx, id, markRejected(reason))
	if err != nil {
		return model.Order{}, err
	}

	s.logger.Infof("order %s rejected: %s", order.ID, order.RejectionReason)
	return order, nil
}

func (s *Service) PendingApprovals(ctx context.Context) ([]model.Order, error) {
	orders, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]model.Order, 0)
	for _, o := range orders {
		if o.Status == model.OrderStatusAwaitingApproval {
			pending = append(pending, o)
		}
	}
	return pending, nil
}

// create persists a new record, regenerating the ID on the off chance two
// generations collide.
func (s *Service) create(ctx context.Context, order *model.Order, genID func() string) error {
	for attempt := 0; attempt < createAttempts; attempt++ {
		order.ID = genID()

		err := s.store.Create(ctx, *order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateOrderID) {
			return err
		}
		s.logger.Warnf("order id collision on %s, regenerating", order.ID)
	}
	return ErrDuplicateOrderID
}

func directItems(items []model.ItemInput) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, in := range items {
		prep := in.Preparedness
		if prep == "" {
			prep = model.PreparednessJoin
		}
		out = append(out, model.Item{
			ItemNumber:   in.ItemNumber,
			Size:         model.Size{Width: in.Size.Width, Height: in.Size.Height},
			Preparedness: prep,
			Quantity:     in.Quantity,
		})
	}
	return out
}

func buildPickList(items []model.PosItemInput) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, in := range items {
		prep := in.Preparedness
		if prep == "" {
			prep = model.PreparednessJoin
		}
		qty := in.Quantity
		if qty == 0 {
			qty = 1
		}
		out = append(out, model.Item{
			ItemNumber:   in.ItemNumber,
			Size:         model.Size{Width: in.Width, Height: in.Height},
			Preparedness: prep,
			Quantity:     qty,
			CustomerInfo: in.CustomerInfo,
			DueDate:      in.DueDate,
			Notes:        in.Notes,
		})
	}
	return out
}

func validationDetail(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return fmt.Sprintf("field %s failed on %s", fe.Field(), fe.Tag())
	}
	return err.Error()
}

func newOrderID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func newPosOrderID() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1000))
	return fmt.Sprintf("pos-%d-%d", time.Now().UnixMilli(), n.Int64())
}

package internal

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/framehaus/framedesk/internal/model"
)

type Handlers struct {
	Service   IService
	Scheduler *Scheduler
	metrics   *Metrics
	logger    *zap.SugaredLogger
}

func NewHandlers(service IService, scheduler *Scheduler, metrics *Metrics, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{Service: service, Scheduler: scheduler, metrics: metrics, logger: logger}
}

type processOrdersInput struct {
	Orders []model.ItemInput `json:"orders"`
}

type posOrderInput struct {
	OrderData model.PosOrderInput `json:"orderData"`
}

type rejectInput struct {
	Reason string `json:"reason"`
}

func (h *Handlers) ProcessOrders(c *fiber.Ctx) error {
	var i processOrdersInput

	if err := c.BodyParser(&i); err != nil {
		h.logger.Errorf("Error on process orders request: %s", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order data"})
	}

	res, err := h.Service.SubmitOrder(c.Context(), i.Orders)
	if err != nil {
		return h.fail(c, "process orders", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Order processing started",
		"orderId":   res.ID,
		"timestamp": res.Timestamp,
	})
}

func (h *Handlers) ListOrders(c *fiber.Ctx) error {
	orders, err := h.Service.ListOrders(c.Context(), c.Query("status"))
	if err != nil {
		return h.fail(c, "list orders", err)
	}

	return c.Status(fiber.StatusOK).JSON(orders)
}

func (h *Handlers) OrderStatus(c *fiber.Ctx) error {
	status, err := h.Service.OrderStatus(c.Context(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, "order status", err)
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *Handlers) RetryOrder(c *fiber.Ctx) error {
	order, err := h.Service.RetryOrder(c.Context(), c.Params("orderId"))
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only failed orders can be retried"})
		}
		return h.fail(c, "retry order", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Order retry started",
		"orderId": order.ID,
	})
}

func (h *Handlers) PosOrder(c *fiber.Ctx) error {
	var i posOrderInput

	if err := c.BodyParser(&i); err != nil {
		h.logger.Errorf("Error on POS order request: %s", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order data"})
	}

	res, err := h.Service.SubmitPosOrder(c.Context(), i.OrderData)
	if err != nil {
		return h.fail(c, "POS order", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":  "POS order received and pick-list created",
		"orderId":  res.ID,
		"pickList": res.PickList,
		"status":   model.OrderStatusAwaitingApproval,
	})
}

func (h *Handlers) ApproveOrder(c *fiber.Ctx) error {
	order, err := h.Service.ApproveOrder(c.Context(), c.Params("orderId"))
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Order is not awaiting approval"})
		}
		return h.fail(c, "approve order", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Order approved for scheduled processing",
		"orderId": order.ID,
		"status":  order.Status,
	})
}

func (h *Handlers) RejectOrder(c *fiber.Ctx) error {
	var i rejectInput
	// body is optional, a missing reason falls back to the placeholder
	_ = c.BodyParser(&i)

	order, err := h.Service.RejectOrder(c.Context(), c.Params("orderId"), i.Reason)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Order is not awaiting approval"})
		}
		return h.fail(c, "reject order", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Order rejected",
		"orderId": order.ID,
		"status":  order.Status,
	})
}

func (h *Handlers) PendingApprovals(c *fiber.Ctx) error {
	orders, err := h.Service.PendingApprovals(c.Context())
	if err != nil {
		return h.fail(c, "pending approvals", err)
	}

	return c.Status(fiber.StatusOK).JSON(orders)
}

// RunScheduledProcessing kicks off a batch run and returns immediately;
// the outcome is observable per order via the status endpoints.
func (h *Handlers) RunScheduledProcessing(c *fiber.Ctx) error {
	// the fiber ctx is recycled once this handler returns, so the
	// background run gets its own context
	go func() {
		report, err := h.Scheduler.RunOnce(context.Background())
		if err != nil {
			h.logger.Errorf("manual scheduled processing: %s", err)
			return
		}
		h.logger.Infof("manual scheduled processing result: %+v", report)
	}()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Scheduled processing started",
		"timestamp": time.Now(),
	})
}

func (h *Handlers) GetMetrics(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.metrics.Snapshot())
}

func (h *Handlers) Status(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "online"})
}

func (h *Handlers) fail(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidOrderData):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	case errors.Is(err, ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order status for this operation"})
	}

	h.metrics.RecordError()
	h.logger.Errorf("Error on %s request: %s", op, err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// APIKeyMiddleware guards mutating routes with the shared key from config.
// The key may arrive in the X-Api-Key header or an apiKey query parameter.
func APIKeyMiddleware(cfg *Config, logger *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-Api-Key")
		if key == "" {
			key = c.Query("apiKey")
		}

		if key == "" || key != cfg.APIKey {
			logger.Infof("API key validation failed for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or missing API key"})
		}
		return c.Next()
	}
}

// MetricsMiddleware counts every API request and folds its duration into
// the rolling response-time average.
func MetricsMiddleware(m *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		m.RecordAPIRequest()
		m.TrackResponseTime(start)
		return err
	}
}

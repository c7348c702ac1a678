package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending             = "pending"
	OrderStatusAwaitingApproval    = "awaiting_approval"
	OrderStatusApprovedForSchedule = "approved_for_schedule"
	OrderStatusProcessing          = "processing"
	OrderStatusCompleted           = "completed"
	OrderStatusFailed              = "failed"
	OrderStatusRejected            = "rejected"
)

const (
	OrderSourceDirect = "direct"
	OrderSourcePOS    = "pos"
)

const (
	PreparednessJoin   = "join"
	PreparednessLength = "length"
)

// Size holds frame dimensions in inches. Decimals keep fractional
// sizes exact through JSON round trips.
type Size struct {
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
}

type Item struct {
	ItemNumber   string `json:"itemNumber"`
	Size         Size   `json:"size"`
	Preparedness string `json:"preparedness"`
	Quantity     int    `json:"quantity"`
	CustomerInfo string `json:"customerInfo,omitempty"`
	DueDate      string `json:"dueDate,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Order is the durable unit of state for one customer or POS order,
// persisted as a single JSON file keyed by ID.
type Order struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Scheduled    bool      `json:"scheduled,omitempty"`
	CustomerName string    `json:"customerName,omitempty"`
	PosOrderID   string    `json:"posOrderId,omitempty"`
	Items        []Item    `json:"items"`
	Error        string    `json:"error,omitempty"`

	RetryTimestamp      *time.Time `json:"retryTimestamp,omitempty"`
	ApprovedAt          *time.Time `json:"approvedAt,omitempty"`
	RejectedAt          *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason     string     `json:"rejectionReason,omitempty"`
	ProcessingStartedAt *time.Time `json:"processingStartedAt,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	FailedAt            *time.Time `json:"failedAt,omitempty"`
}

// Terminal reports whether the order can never leave its status without
// an explicit operator action.
func (o Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusFailed || o.Status == OrderStatusRejected
}

type OrderSummary struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	ItemCount int       `json:"itemCount"`
}

// StoreEntry pairs a stored order ID with the record's age on disk,
// used by the retention sweep.
type StoreEntry struct {
	ID      string
	ModTime time.Time
}

type SizeInput struct {
	Width  decimal.Decimal `json:"width" validate:"required,gt=0"`
	Height decimal.Decimal `json:"height" validate:"required,gt=0"`
}

type ItemInput struct {
	ItemNumber   string    `json:"itemNumber" validate:"required"`
	Size         SizeInput `json:"size"`
	Preparedness string    `json:"preparedness" validate:"omitempty,oneof=join length"`
	Quantity     int       `json:"quantity" validate:"required,min=1"`
}

// PosItemInput mirrors the flat shape POS relays send: dimensions at the
// top level and optional fulfillment metadata per line.
type PosItemInput struct {
	ItemNumber   string          `json:"itemNumber" validate:"required"`
	Width        decimal.Decimal `json:"width" validate:"required,gt=0"`
	Height       decimal.Decimal `json:"height" validate:"required,gt=0"`
	Preparedness string          `json:"preparedness" validate:"omitempty,oneof=join length"`
	Quantity     int             `json:"quantity" validate:"omitempty,min=1"`
	CustomerInfo string          `json:"customerInfo"`
	DueDate      string          `json:"dueDate"`
	Notes        string          `json:"notes"`
}

type PosOrderInput struct {
	CustomerName string         `json:"customerName"`
	PosOrderID   string         `json:"posOrderId"`
	Items        []PosItemInput `json:"items" validate:"required,min=1,dive"`
}

type SubmitResult struct {
	ID        string    `json:"orderId"`
	Timestamp time.Time `json:"timestamp"`
}

type PosSubmitResult struct {
	ID       string `json:"orderId"`
	PickList []Item `json:"pickList"`
}

type StatusOutput struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

type OrderError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// RunReport aggregates the outcome of one scheduled processing pass.
type RunReport struct {
	ProcessedCount int          `json:"processedCount"`
	SuccessCount   int          `json:"successCount"`
	FailureCount   int          `json:"failureCount"`
	Errors         []OrderError `json:"errors,omitempty"`
}

package internal

import (
	"sync"
	"time"
)

// Metrics is process-wide operational state, explicitly owned by main and
// handed to whichever component records into it. Nothing here is a package
// singleton.
type Metrics struct {
	start time.Time

	mu                  sync.Mutex
	apiRequests         int64
	ordersProcessed     int64
	ordersFailed        int64
	ordersRetried       int64
	errors              int64
	responseTimeAvg     float64
	responseTimeSamples int64
}

type MetricsSnapshot struct {
	OrdersProcessed int64   `json:"orderProcessed"`
	OrdersFailed    int64   `json:"ordersFailed"`
	OrdersRetried   int64   `json:"ordersRetried"`
	APIRequests     int64   `json:"apiRequests"`
	Errors          int64   `json:"errors"`
	UptimeSeconds   int64   `json:"uptime"`
	ResponseTimeAvg float64 `json:"responseTimeAvg"`
}

func NewMetrics() *Metrics {
	return &Metrics{start: time.Now()}
}

func (m *Metrics) RecordAPIRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiRequests++
}

func (m *Metrics) RecordOrderProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordersProcessed++
}

func (m *Metrics) RecordOrderFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordersFailed++
}

func (m *Metrics) RecordOrderRetried() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordersRetried++
}

func (m *Metrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// TrackResponseTime folds one request duration into the rolling average.
func (m *Metrics) TrackResponseTime(start time.Time) time.Duration {
	d := time.Since(start)

	m.mu.Lock()
	defer m.mu.Unlock()
	ms := float64(d.Milliseconds())
	m.responseTimeAvg = (m.responseTimeAvg*float64(m.responseTimeSamples) + ms) / float64(m.responseTimeSamples+1)
	m.responseTimeSamples++
	return d
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		OrdersProcessed: m.ordersProcessed,
		OrdersFailed:    m.ordersFailed,
		OrdersRetried:   m.ordersRetried,
		APIRequests:     m.apiRequests,
		Errors:          m.errors,
		UptimeSeconds:   int64(time.Since(m.start).Seconds()),
		ResponseTimeAvg: m.responseTimeAvg,
	}
}

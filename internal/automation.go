package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/framehaus/framedesk/internal/model"
)

// IAutomation is the external collaborator that places the actual vendor
// order. It is slow, opaque and occasionally flaky; the engine treats one
// Process call as a single attempt.
type IAutomation interface {
	Process(ctx context.Context, items []model.Item) error
}

// VendorClient talks to the automation bridge that drives the wholesaler's
// ordering flow. Each request carries its own timeout; a hung vendor site
// surfaces here as an ordinary failed attempt, never as a stuck scheduler.
type VendorClient struct {
	url    string
	client *http.Client
	logger *zap.SugaredLogger

	// Retry bounds the transient-failure backoff around each request.
	Retry RetryOptions
}

func NewVendorClient(url string, timeout time.Duration, logger *zap.SugaredLogger) *VendorClient {
	return &VendorClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
		Retry:  DefaultRetryOptions(),
	}
}

func (v *VendorClient) Process(ctx context.Context, items []model.Item) error {
	body, err := json.Marshal(map[string]interface{}{"items": items})
	if err != nil {
		return fmt.Errorf("encode automation request: %w", err)
	}

	attempt := 0
	return WithRetry(ctx, v.Retry, func() error {
		attempt++
		err := v.makeRequest(ctx, body)
		if err != nil {
			v.logger.Warnf("automation attempt %d failed: %s", attempt, err)
		}
		return err
	})
}

func (v *VendorClient) makeRequest(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url+"/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusServiceUnavailable {
		return ErrVendorUnavailable
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("automation bridge returned %d: %s", res.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

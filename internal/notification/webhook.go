package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voicediary/composite/internal/errors"
)

const maxErrorBodySize = 1024

// WebhookProvider posts each event as JSON to a single endpoint.
type WebhookProvider struct {
	name    string
	enabled bool
	url     string
	method  string
	headers map[string]string
	client  *http.Client
}

// NewWebhookProvider creates a webhook provider. method defaults to POST.
func NewWebhookProvider(enabled bool, endpoint, method string, headers map[string]string, timeout time.Duration) *WebhookProvider {
	if method == "" {
		method = http.MethodPost
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebhookProvider{
		name:    "webhook",
		enabled: enabled,
		url:     strings.TrimSpace(endpoint),
		method:  strings.ToUpper(method),
		headers: maps.Clone(headers),
		client:  &http.Client{Timeout: timeout},
	}
}

func (w *WebhookProvider) GetName() string { return w.name }
func (w *WebhookProvider) IsEnabled() bool { return w.enabled }

// ValidateConfig checks the endpoint URL and method.
func (w *WebhookProvider) ValidateConfig() error {
	if !w.enabled {
		return nil
	}
	u, err := url.Parse(w.url)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("webhook URL must be an absolute http(s) URL").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	switch w.method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return errors.Newf("unsupported webhook method %s", w.method).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Send posts e. 5xx responses and transport errors are retryable.
func (w *WebhookProvider) Send(ctx context.Context, e *Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, w.method, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return retryable(errors.New(err).
			Component("notification").
			Category(errors.CategoryNetwork).
			Context("provider", w.name).
			Build())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	sendErr := errors.Newf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))).
		Component("notification").
		Category(errors.CategoryNotification).
		Context("provider", w.name).
		Context("status_code", resp.StatusCode).
		Build()
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return retryable(sendErr)
	}
	return sendErr
}

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/notifylab/notify-agent/internal/domain"
	"github.com/notifylab/notify-agent/internal/netcheck"
	"github.com/notifylab/notify-agent/internal/observability"
	"github.com/notifylab/notify-agent/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSendTimeout = 10 * time.Second
	apiKeyHeader       = "X-API-Key"
	logPreviewLength   = 50
)

// Status is the caller-visible result of a deliver call.
type Status string

const (
	// StatusSent means the endpoint acknowledged with a 2xx.
	StatusSent Status = "SENT"
	// StatusQueued means the payload was durably queued for a later sweep.
	// Queueing because of missing connectivity is not a failure.
	StatusQueued Status = "QUEUED"
)

// Outcome describes what happened to one payload. SendErr is set when the
// payload queued because a send attempt failed (as opposed to being offline).
type Outcome struct {
	Status     Status
	HTTPStatus int
	SendErr    error
}

// Dispatcher owns the send-or-queue decision. It performs at most one send
// attempt per call; retries belong to the sweep.
type Dispatcher struct {
	client  *resty.Client
	queue   repository.PendingRepository
	logs    repository.LogRepository
	network netcheck.Checker
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewDispatcher(
	queue repository.PendingRepository,
	logs repository.LogRepository,
	network netcheck.Checker,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if queue == nil {
		return nil, fmt.Errorf("pending repository is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log repository is required")
	}
	if network == nil {
		return nil, fmt.Errorf("network checker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return &Dispatcher{
		client:  client,
		queue:   queue,
		logs:    logs,
		network: network,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// SetClient swaps the HTTP client, mainly for tests.
func (d *Dispatcher) SetClient(client *resty.Client) {
	if d == nil || client == nil {
		return
	}
	client.SetRetryCount(0)
	d.client = client
}

// Deliver sends a payload to the endpoint or queues it durably. A blank
// endpoint is a configuration error and nothing is queued; every other
// failure degrades to a queue entry and a later retry.
func (d *Dispatcher) Deliver(ctx context.Context, payload domain.Payload, endpoint, apiKey string) (Outcome, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		d.insertLog(ctx, "Endpoint URL is not configured", domain.LogError, payload.PackageName)
		return Outcome{}, fmt.Errorf("%w: endpoint URL is empty", domain.ErrConfig)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.insertLog(ctx, fmt.Sprintf("Failed to serialize payload: %v", err), domain.LogError, payload.PackageName)
		return Outcome{}, fmt.Errorf("failed to serialize payload: %w", err)
	}

	if !d.network.Online(ctx) {
		if err := d.enqueue(ctx, string(body), endpoint, apiKey); err != nil {
			return Outcome{}, err
		}
		d.metrics.IncQueued("offline")
		d.insertLog(ctx, "No connectivity, payload queued for retry", domain.LogQueued, payload.PackageName)
		return Outcome{Status: StatusQueued}, nil
	}

	sendStart := d.now()
	statusCode, sendErr := d.post(ctx, endpoint, apiKey, body)
	d.metrics.ObserveSendDuration(d.now().Sub(sendStart))

	if sendErr == nil {
		d.metrics.IncDelivered()
		d.insertLog(ctx,
			fmt.Sprintf("POST %d %s — %s", statusCode, payload.PackageName, preview(payload.Text)),
			domain.LogSuccess, "")
		return Outcome{Status: StatusSent, HTTPStatus: statusCode}, nil
	}

	if err := d.enqueue(ctx, string(body), endpoint, apiKey); err != nil {
		return Outcome{}, err
	}
	d.metrics.IncQueued("error")
	d.insertLog(ctx,
		fmt.Sprintf("Send failed, payload queued: %v", sendErr),
		domain.LogError, payload.PackageName)
	d.logger.Warn("send failed, payload queued",
		zap.String("packageName", payload.PackageName),
		zap.Int("statusCode", statusCode),
		zap.Bool("transient", IsTransient(sendErr)),
		zap.Error(sendErr),
	)

	return Outcome{Status: StatusQueued, HTTPStatus: statusCode, SendErr: sendErr}, nil
}

// Resend replays a queued entry against its stored destination. It never
// touches the queue; the sweep decides deletion or retry bookkeeping.
func (d *Dispatcher) Resend(ctx context.Context, entry domain.PendingDelivery) error {
	apiKey := ""
	if entry.APIKey != nil {
		apiKey = *entry.APIKey
	}

	sendStart := d.now()
	_, err := d.post(ctx, entry.EndpointURL, apiKey, []byte(entry.JSONPayload))
	d.metrics.ObserveSendDuration(d.now().Sub(sendStart))
	return err
}

// DeliverTest sends the fixed test payload. Test sends are never queued.
func (d *Dispatcher) DeliverTest(ctx context.Context, endpoint, apiKey string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		d.insertLog(ctx, "Endpoint URL is not configured", domain.LogError, "")
		return fmt.Errorf("%w: endpoint URL is empty", domain.ErrConfig)
	}

	payload := domain.TestPayload{
		Test:      true,
		Message:   domain.TestPayloadMessage,
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize test payload: %w", err)
	}

	statusCode, sendErr := d.post(ctx, endpoint, apiKey, body)
	if sendErr != nil {
		d.insertLog(ctx, fmt.Sprintf("Test send failed: %v", sendErr), domain.LogError, "")
		return sendErr
	}

	d.insertLog(ctx, fmt.Sprintf("Test send succeeded: HTTP %d", statusCode), domain.LogSuccess, "")
	return nil
}

// post performs one HTTP attempt. Any 2xx is success regardless of body.
func (d *Dispatcher) post(ctx context.Context, endpoint, apiKey string, body []byte) (int, error) {
	request := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if apiKey != "" {
		request.SetHeader(apiKeyHeader, apiKey)
	}

	response, err := request.Post(endpoint)
	if err != nil {
		return 0, &Error{
			Message:   "request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return 0, &Error{Message: "empty response", Transient: true}
	}

	statusCode := response.StatusCode()
	if statusCode >= 200 && statusCode < 300 {
		d.parseDiagnostics(response.Body())
		return statusCode, nil
	}

	return statusCode, &Error{
		StatusCode: statusCode,
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

// parseDiagnostics extracts the optional {success, message, data} shape.
// Best effort: a body that doesn't parse is simply ignored.
func (d *Dispatcher) parseDiagnostics(body []byte) {
	if len(body) == 0 {
		return
	}

	var parsed domain.EndpointResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return
	}
	if parsed.Message != "" {
		d.logger.Debug("endpoint response",
			zap.Bool("success", parsed.Success),
			zap.String("message", parsed.Message),
		)
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, jsonPayload, endpoint, apiKey string) error {
	entry := &domain.PendingDelivery{
		JSONPayload: jsonPayload,
		EndpointURL: endpoint,
		CreatedAt:   d.now().UTC(),
	}
	if apiKey != "" {
		entry.APIKey = &apiKey
	}

	if err := d.queue.Insert(ctx, entry); err != nil {
		d.logger.Error("failed to queue payload", zap.Error(err))
		return fmt.Errorf("failed to queue payload: %w", err)
	}
	return nil
}

func (d *Dispatcher) insertLog(ctx context.Context, message string, logType domain.LogType, details string) {
	entry := &domain.LogEntry{
		Timestamp: d.now().UTC(),
		Message:   message,
		Type:      logType,
	}
	if details != "" {
		entry.Details = &details
	}

	if err := d.logs.Insert(ctx, entry); err != nil {
		// Diagnostics must never interfere with delivery.
		d.logger.Warn("failed to write log entry", zap.Error(err))
	}
}

func preview(text *string) string {
	if text == nil {
		return ""
	}
	runes := []rune(*text)
	if len(runes) <= logPreviewLength {
		return *text
	}
	return string(runes[:logPreviewLength])
}

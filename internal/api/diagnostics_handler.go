package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/notifylab/notify-agent/internal/domain"
	"github.com/notifylab/notify-agent/internal/repository"
)

// exportTimeLayout matches the log line format users share for support.
const exportTimeLayout = "02/01/2006 15:04:05"

// TestSender sends the fixed test payload to the configured endpoint.
type TestSender interface {
	DeliverTest(ctx context.Context, endpoint, apiKey string) error
}

// SweepRequester asks the scheduler for an immediate queue sweep.
type SweepRequester interface {
	RequestSweep(delay time.Duration)
}

// SettingsReader is the read side the test-send route falls back to when the
// request carries no endpoint override.
type SettingsReader interface {
	EndpointURL(ctx context.Context) (string, error)
}

// APIKeyReader yields the stored API key for the test send.
type APIKeyReader interface {
	APIKey(ctx context.Context) (string, error)
}

type DiagnosticsHandler struct {
	queue   repository.PendingRepository
	logs    repository.LogRepository
	sender  TestSender
	sweeps  SweepRequester
	config  SettingsReader
	secrets APIKeyReader
}

func NewDiagnosticsHandler(
	queue repository.PendingRepository,
	logs repository.LogRepository,
	sender TestSender,
	sweeps SweepRequester,
	config SettingsReader,
	secrets APIKeyReader,
) (*DiagnosticsHandler, error) {
	if queue == nil {
		return nil, fmt.Errorf("pending repository is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log repository is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("test sender is required")
	}
	if sweeps == nil {
		return nil, fmt.Errorf("sweep requester is required")
	}
	if config == nil {
		return nil, fmt.Errorf("settings reader is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("api key reader is required")
	}

	return &DiagnosticsHandler{
		queue:   queue,
		logs:    logs,
		sender:  sender,
		sweeps:  sweeps,
		config:  config,
		secrets: secrets,
	}, nil
}

func RegisterDiagnosticsRoutes(
	router fiber.Router,
	queue repository.PendingRepository,
	logs repository.LogRepository,
	sender TestSender,
	sweeps SweepRequester,
	config SettingsReader,
	secrets APIKeyReader,
) error {
	h, err := NewDiagnosticsHandler(queue, logs, sender, sweeps, config, secrets)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/logs", h.ListLogs)
	v1.Get("/logs/export", h.ExportLogs)
	v1.Delete("/logs", h.ClearLogs)
	v1.Get("/queue", h.ListQueue)
	v1.Delete("/queue", h.ClearQueue)
	v1.Delete("/queue/:id", h.DeleteQueueEntry)
	v1.Post("/test", h.SendTest)
	v1.Post("/sweep", h.TriggerSweep)

	return nil
}

type logEntryResponse struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"timestamp"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Details   *string `json:"details,omitempty"`
}

type listLogsResponse struct {
	Data  []logEntryResponse `json:"data"`
	Total int64              `json:"total"`
}

type queueEntryResponse struct {
	ID          int64   `json:"id"`
	EndpointURL string  `json:"endpointUrl"`
	CreatedAt   string  `json:"createdAt"`
	RetryCount  int     `json:"retryCount"`
	LastError   *string `json:"lastError,omitempty"`
}

type listQueueResponse struct {
	Data  []queueEntryResponse `json:"data"`
	Total int64                `json:"total"`
}

type sendTestRequest struct {
	EndpointURL string `json:"endpointUrl"`
	APIKey      string `json:"apiKey"`
}

func (h *DiagnosticsHandler) ListLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", domain.LogRetention)

	var typeFilter *domain.LogType
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		parsed, err := domain.ParseLogTypeFromString(raw)
		if err != nil {
			return err
		}
		typeFilter = &parsed
	}

	entries, err := h.logs.Recent(c.Context(), limit)
	if err != nil {
		return err
	}
	total, err := h.logs.Count(c.Context())
	if err != nil {
		return err
	}

	data := make([]logEntryResponse, 0, len(entries))
	for _, entry := range entries {
		if typeFilter != nil && entry.Type != *typeFilter {
			continue
		}
		data = append(data, logEntryResponse{
			ID:        entry.ID,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
			Type:      entry.Type.String(),
			Message:   entry.Message,
			Details:   entry.Details,
		})
	}

	return c.Status(fiber.StatusOK).JSON(listLogsResponse{Data: data, Total: total})
}

// ExportLogs renders the log as shareable plain text, oldest first.
func (h *DiagnosticsHandler) ExportLogs(c *fiber.Ctx) error {
	entries, err := h.logs.Recent(c.Context(), domain.LogRetention)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
			entry.Timestamp.Local().Format(exportTimeLayout),
			entry.Type.String(),
			entry.Message,
		))
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(sb.String())
}

func (h *DiagnosticsHandler) ClearLogs(c *fiber.Ctx) error {
	if err := h.logs.Clear(c.Context()); err != nil {
		return err
	}

	// The cleared marker is best effort; the clear itself already succeeded.
	_ = h.logs.Insert(c.Context(), &domain.LogEntry{
		Timestamp: time.Now().UTC(),
		Message:   "Log history cleared",
		Type:      domain.LogInfo,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "cleared"})
}

func (h *DiagnosticsHandler) ListQueue(c *fiber.Ctx) error {
	entries, err := h.queue.ListOrdered(c.Context())
	if err != nil {
		return err
	}

	data := make([]queueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, queueEntryResponse{
			ID:          entry.ID,
			EndpointURL: entry.EndpointURL,
			CreatedAt:   entry.CreatedAt.UTC().Format(time.RFC3339),
			RetryCount:  entry.RetryCount,
			LastError:   entry.LastError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(listQueueResponse{
		Data:  data,
		Total: int64(len(data)),
	})
}

func (h *DiagnosticsHandler) ClearQueue(c *fiber.Ctx) error {
	if err := h.queue.DeleteAll(c.Context()); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "cleared"})
}

func (h *DiagnosticsHandler) DeleteQueueEntry(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Params("id")), 10, 64)
	if err != nil || id < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "id must be a positive integer")
	}

	// ErrNotFound maps to 404 in the transport error handler.
	if err := h.queue.DeleteByID(c.Context(), id); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"deletedId": id})
}

// SendTest fires the fixed test payload. The request body may override the
// stored endpoint and key so users can verify a config before saving it.
func (h *DiagnosticsHandler) SendTest(c *fiber.Ctx) error {
	var req sendTestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	endpoint := strings.TrimSpace(req.EndpointURL)
	apiKey := req.APIKey
	if endpoint == "" {
		stored, err := h.config.EndpointURL(c.Context())
		if err != nil {
			return err
		}
		endpoint = stored

		if apiKey == "" {
			storedKey, err := h.secrets.APIKey(c.Context())
			if err != nil {
				return err
			}
			apiKey = storedKey
		}
	}

	if err := h.sender.DeliverTest(c.Context(), endpoint, apiKey); err != nil {
		if errors.Is(err, domain.ErrConfig) {
			return err
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status": "failed",
			"error":  err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "sent"})
}

func (h *DiagnosticsHandler) TriggerSweep(c *fiber.Ctx) error {
	h.sweeps.RequestSweep(0)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sweep_requested"})
}

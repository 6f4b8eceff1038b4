package domain

import "fmt"

// Payload is the wire DTO posted to the configured endpoint. Immutable once
// built; serialized to JSON both for direct sends and for queue storage.
type Payload struct {
	DeviceID       string            `json:"deviceId"`
	PackageName    string            `json:"packageName"`
	AppName        string            `json:"appName"`
	PostedAt       string            `json:"postedAt"`
	Title          *string           `json:"title"`
	Text           *string           `json:"text"`
	SubText        *string           `json:"subText"`
	BigText        *string           `json:"bigText"`
	ChannelID      *string           `json:"channelId"`
	NotificationID int               `json:"notificationId"`
	AmountDetected *string           `json:"amountDetected"`
	Extras         map[string]string `json:"extras"`
}

func (p *Payload) Validate() error {
	if p.DeviceID == "" {
		return fmt.Errorf("%w: device id is required", ErrValidation)
	}
	if p.PackageName == "" {
		return fmt.Errorf("%w: package name is required", ErrValidation)
	}
	if p.PostedAt == "" {
		return fmt.Errorf("%w: posted-at timestamp is required", ErrValidation)
	}
	return nil
}

// TestPayloadMessage is the fixed body of a test send.
const TestPayloadMessage = "Test notification from notify-agent"

// TestPayload is the small fixed payload used by test sends. Test sends are
// never queued or retried.
type TestPayload struct {
	Test      bool   `json:"test"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// EndpointResponse is the best-effort response shape some endpoints return.
// Parsed for diagnostics only; any 2xx status is success regardless of body.
type EndpointResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

package capture

import (
	"fmt"
	"strconv"
	"time"

	"github.com/notifylab/notify-agent/internal/domain"
)

// AppNameResolver maps a package identifier to a human-readable label.
type AppNameResolver interface {
	AppName(packageName string) (string, error)
}

// Builder assembles wire payloads from accepted events.
type Builder struct {
	resolver AppNameResolver
	location *time.Location
	now      func() time.Time
}

func NewBuilder(resolver AppNameResolver, location *time.Location) (*Builder, error) {
	if resolver == nil {
		return nil, fmt.Errorf("app name resolver is required")
	}
	if location == nil {
		location = time.Local
	}

	return &Builder{
		resolver: resolver,
		location: location,
		now:      time.Now,
	}, nil
}

// Build creates the payload for an accepted event. The payload is built
// exactly once per event and never mutated afterwards.
func (b *Builder) Build(event domain.NotificationEvent, deviceID string) (domain.Payload, error) {
	if deviceID == "" {
		return domain.Payload{}, fmt.Errorf("%w: device id is required", domain.ErrValidation)
	}

	postedAt := event.PostedAt
	if postedAt.IsZero() {
		postedAt = b.now()
	}

	payload := domain.Payload{
		DeviceID:       deviceID,
		PackageName:    event.PackageName,
		AppName:        b.appName(event.PackageName),
		PostedAt:       postedAt.In(b.location).Format(time.RFC3339),
		Title:          optional(event.Title),
		Text:           optional(event.Text),
		SubText:        optional(event.SubText),
		BigText:        optional(event.BigText),
		ChannelID:      optional(event.ChannelID),
		NotificationID: event.NotificationID,
		Extras:         stringifyExtras(event.Extras),
	}

	if amount, ok := DetectAmount(event.Text, event.BigText, event.Title); ok {
		payload.AmountDetected = &amount
	}

	if err := payload.Validate(); err != nil {
		return domain.Payload{}, err
	}
	return payload, nil
}

// appName falls back to the raw package identifier when lookup fails.
func (b *Builder) appName(packageName string) string {
	name, err := b.resolver.AppName(packageName)
	if err != nil || name == "" {
		return packageName
	}
	return name
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// stringifyExtras converts the extras map to strings best-effort. Keys whose
// values cannot be represented are omitted, never fatal.
func stringifyExtras(extras map[string]any) map[string]string {
	if len(extras) == 0 {
		return nil
	}

	out := make(map[string]string, len(extras))
	for key, value := range extras {
		text, ok := stringifyExtra(value)
		if !ok {
			continue
		}
		out[key] = text
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringifyExtra(value any) (text string, ok bool) {
	if value == nil {
		return "", false
	}

	defer func() {
		// A misbehaving Stringer must not sink the whole payload.
		if recover() != nil {
			text, ok = "", false
		}
	}()

	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		// JSON numbers arrive as float64; keep integral values unpadded.
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return fmt.Sprint(v), true
	}
}

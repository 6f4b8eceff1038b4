package domain

import "time"

// MaxRetries caps delivery attempts for a queued entry. An entry whose retry
// count reaches this value is evicted on the next sweep instead of retried.
const MaxRetries = 5

// PendingDelivery is a durable record of a payload awaiting delivery.
// Owned exclusively by the pending repository; the retry count only increases.
type PendingDelivery struct {
	ID          int64
	JSONPayload string
	EndpointURL string
	APIKey      *string
	CreatedAt   time.Time
	RetryCount  int
	LastError   *string
}

// Exhausted reports whether the entry has used up its delivery attempts.
func (p PendingDelivery) Exhausted() bool {
	return p.RetryCount >= MaxRetries
}

package domain

import "time"

// NotificationEvent is a raw notification delivered by the OS bridge.
// Events are ephemeral: consumed once per capture, never persisted.
type NotificationEvent struct {
	PackageName    string         `json:"packageName"`
	Title          string         `json:"title"`
	Text           string         `json:"text"`
	SubText        string         `json:"subText"`
	BigText        string         `json:"bigText"`
	ChannelID      string         `json:"channelId"`
	NotificationID int            `json:"notificationId"`
	PostedAt       time.Time      `json:"postedAt"`
	Ongoing        bool           `json:"ongoing"`
	GroupSummary   bool           `json:"groupSummary"`
	Extras         map[string]any `json:"extras"`
}

// HasContent reports whether the event carries user-visible body text.
func (e NotificationEvent) HasContent() bool {
	return e.Text != "" || e.BigText != ""
}

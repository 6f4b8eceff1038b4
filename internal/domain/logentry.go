package domain

import (
	"fmt"
	"strings"
	"time"
)

// LogType classifies a diagnostic log entry.
type LogType string

const (
	LogSuccess LogType = "SUCCESS"
	LogError   LogType = "ERROR"
	LogInfo    LogType = "INFO"
	LogQueued  LogType = "QUEUED"
)

func (t LogType) String() string { return string(t) }

func (t LogType) IsValid() bool {
	switch t {
	case LogSuccess, LogError, LogInfo, LogQueued:
		return true
	}
	return false
}

func ParseLogTypeFromString(s string) (LogType, error) {
	t := LogType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid log type %q", ErrValidation, s)
	}
	return t, nil
}

// LogRetention is the number of recent entries the diagnostic log keeps.
const LogRetention = 100

// LogEntry is a user-visible diagnostic record. It carries no delivery
// correctness weight; the store retains only the most recent entries.
type LogEntry struct {
	ID        int64
	Timestamp time.Time
	Message   string
	Type      LogType
	Details   *string
}

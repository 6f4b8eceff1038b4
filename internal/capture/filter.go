package capture

import (
	"strings"

	"github.com/notifylab/notify-agent/internal/domain"
)

// FilterConfig is the capture-time view of the user's forwarding rules.
type FilterConfig struct {
	// OwnPackage is the agent's own package identifier; events it emits
	// itself are always rejected to avoid feedback loops.
	OwnPackage string
	// ForwardAll forwards every event that survives the structural rules.
	ForwardAll bool
	// PackageList is the user's comma-separated allow-list.
	PackageList string
}

// ShouldForward decides whether an event is processed further. Pure function
// of (event, config); rules short-circuit in order.
func ShouldForward(event domain.NotificationEvent, cfg FilterConfig) bool {
	if event.PackageName == cfg.OwnPackage {
		return false
	}
	// Ongoing notifications are persistent system status, not content.
	if event.Ongoing {
		return false
	}
	// Group summaries with no body are empty aggregates.
	if event.GroupSummary && !event.HasContent() {
		return false
	}
	if cfg.ForwardAll {
		return true
	}

	allowed := ParsePackageList(cfg.PackageList)
	for _, pkg := range allowed {
		if pkg == event.PackageName {
			return true
		}
	}
	return false
}

// ParsePackageList splits a comma-separated package list, trimming entries
// and discarding empty ones. An empty list allows nothing.
func ParsePackageList(packages string) []string {
	if strings.TrimSpace(packages) == "" {
		return nil
	}

	parts := strings.Split(packages, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

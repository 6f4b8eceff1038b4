package capture

import (
	"regexp"
	"strings"
)

// Ordered recognition patterns for Rupiah amounts. Separator-specific
// patterns require at least one thousands group so that a comma-separated
// amount is never shadowed by a shorter bare-digit match; the final pattern
// catches unseparated digit runs.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Rp\s+([0-9]{1,3}(?:\.[0-9]{3})+)`),
	regexp.MustCompile(`(?i)Rp\s+([0-9]{1,3}(?:,[0-9]{3})+)`),
	regexp.MustCompile(`(?i)Rp([0-9]{1,3}(?:\.[0-9]{3})+)`),
	regexp.MustCompile(`(?i)Rp([0-9]{1,3}(?:,[0-9]{3})+)`),
	regexp.MustCompile(`(?i)Rp\s*([0-9]+)`),
}

var separatorReplacer = strings.NewReplacer(".", "", ",", "")

// DetectAmount scans candidate text fields in priority order for a Rupiah
// amount and returns the digits of the first match, separators stripped.
// Best-effort heuristic: no locale negotiation, no decimals. The second
// return value is false when nothing matched.
func DetectAmount(texts ...string) (string, bool) {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, pattern := range amountPatterns {
			match := pattern.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			return separatorReplacer.Replace(match[1]), true
		}
	}
	return "", false
}

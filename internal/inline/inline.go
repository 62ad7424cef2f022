// Package inline extracts inline card references of the form <<Card Name>>
// from chat messages.
package inline

import (
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`<<([^<>]*)>>`)

// Parse returns the card names referenced in content, in order of appearance.
// Names are trimmed, empty references are skipped and repeated names (ignoring
// case) are returned once. At most limit names are returned; limit <= 0 means no
// limit.
func Parse(content string, limit int) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range referencePattern.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Contains reports whether content holds at least one inline reference.
func Contains(content string) bool {
	return len(Parse(content, 1)) > 0
}

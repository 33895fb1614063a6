// Package merge combines provider records with locally-owned fields.
// Its rules are the heart of the sync engine: user-authored content is
// never silently discarded and completion status never moves backwards.
package merge

import (
	"strings"

	"studydash-backend/pkg/htmltext"
)

// Links merges provider links into an existing link list. Provider links
// come first, in their given order; existing links whose URL is not
// already present among the provider links (compared case-insensitively)
// are appended unchanged. No user link is ever dropped unless it
// duplicates a provider URL.
func Links(existing, provider []htmltext.Link) []htmltext.Link {
	merged := make([]htmltext.Link, 0, len(provider)+len(existing))
	seen := make(map[string]bool, len(provider))

	for _, link := range provider {
		key := strings.ToLower(link.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, link)
	}

	for _, link := range existing {
		if seen[strings.ToLower(link.URL)] {
			continue
		}
		merged = append(merged, link)
	}

	return merged
}

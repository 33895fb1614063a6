package merge

import "strings"

// Notes are stored internally as two fields, but the combined display
// blob uses visible markers so the user always has a place to write
// above the synced content. SplitBlob also understands the legacy
// single-blob format, including the old per-provider separators, so
// records written before the split (or re-linked from another provider)
// migrate losslessly on first touch.

const (
	// UserHeader opens the user-owned section of a combined blob
	UserHeader = "──user──"
	// ProviderSeparator opens the provider-owned suffix
	ProviderSeparator = "──provider──"
)

// legacySeparators are the old provider-naming separators. An item may
// have been re-linked from one provider to another over its lifetime,
// so every known one is recognized.
var legacySeparators = []string{
	"── Synced from Canvas ──",
	"── Synced from Blackboard ──",
	"── Synced from Brightspace ──",
	"── Synced from Moodle ──",
}

// HasMarkers reports whether text looks like a combined blob rather
// than plain user text.
func HasMarkers(text string) bool {
	if strings.Contains(text, ProviderSeparator) || strings.HasPrefix(strings.TrimSpace(text), UserHeader) {
		return true
	}
	for _, sep := range legacySeparators {
		if strings.Contains(text, sep) {
			return true
		}
	}
	return false
}

// SplitBlob extracts the user-owned text from an existing notes value.
// prevProviderText is the previously stored provider content, used to
// recognize an unmarked blob that is really just stale provider text.
//
// The extracted user text reappears verbatim (whitespace-trimmed) in
// any later Render; that property must never regress.
func SplitBlob(existing, prevProviderText string) string {
	if strings.TrimSpace(existing) == "" {
		return ""
	}

	// A provider separator (current or legacy) wins: everything before
	// it, minus an optional leading user header, is the user's text.
	for _, sep := range append([]string{ProviderSeparator}, legacySeparators...) {
		if idx := strings.Index(existing, sep); idx >= 0 {
			return stripHeader(existing[:idx])
		}
	}

	// Header with no provider section yet: the user owns the rest
	if strings.HasPrefix(strings.TrimSpace(existing), UserHeader) {
		return stripHeader(existing)
	}

	// No markers at all. If the text is exactly what the provider wrote
	// last time, there is no user text to preserve.
	if prev := strings.TrimSpace(prevProviderText); prev != "" && prev == strings.TrimSpace(existing) {
		return ""
	}

	// Otherwise the whole thing is user-authored
	return strings.TrimSpace(existing)
}

// Render composes the combined display blob. Either side is omitted
// when empty; the result is empty only when both are.
func Render(userText, providerText string) string {
	userText = strings.TrimSpace(userText)
	providerText = strings.TrimSpace(providerText)

	switch {
	case userText == "" && providerText == "":
		return ""
	case providerText == "":
		return UserHeader + "\n" + userText
	case userText == "":
		return UserHeader + "\n\n" + ProviderSeparator + "\n" + providerText
	default:
		return UserHeader + "\n" + userText + "\n\n" + ProviderSeparator + "\n" + providerText
	}
}

func stripHeader(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, UserHeader)
	return strings.TrimSpace(trimmed)
}

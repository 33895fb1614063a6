// Package htmltext converts provider-authored rich text into plain text
// and extracts hyperlinks. Every provider's HTML passes through the same
// functions; nothing in here is provider-specific.
package htmltext

import (
	"regexp"
	"strings"
)

// Link is a labeled hyperlink lifted out of provider HTML.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

var (
	scriptRe    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	brRe        = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockEndRe  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|tr|blockquote|ul|ol)>`)
	listItemRe  = regexp.MustCompile(`(?i)<li[^>]*>`)
	anchorRe    = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a>`)
	iframeRe    = regexp.MustCompile(`(?is)<iframe\s[^>]*src\s*=\s*["']([^"']*)["']`)
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
	spaceRunRe  = regexp.MustCompile(`[ \t]+`)
	trailWSRe   = regexp.MustCompile(`[ \t]+\n`)
)

// videoHosts are substrings that mark an iframe src as an embedded video
// worth surfacing as a link.
var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "panopto", "echo360"}

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&rsquo;", "’",
	"&lsquo;", "‘",
	"&rdquo;", "”",
	"&ldquo;", "“",
	"&mdash;", "—",
	"&ndash;", "–",
)

// ToPlainText strips an HTML fragment down to readable plain text.
// Script and style blocks are dropped entirely, block-level closings
// become newlines (at most two in a row), list items become bullets and
// anchors are rendered as "label (url)".
func ToPlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	text := scriptRe.ReplaceAllString(html, "")
	text = styleRe.ReplaceAllString(text, "")

	text = anchorRe.ReplaceAllStringFunc(text, func(match string) string {
		groups := anchorRe.FindStringSubmatch(match)
		url := strings.TrimSpace(groups[1])
		label := innerText(groups[2])
		if label == "" || label == url {
			return url
		}
		if url == "" {
			return label
		}
		return label + " (" + url + ")"
	})

	text = brRe.ReplaceAllString(text, "\n")
	text = listItemRe.ReplaceAllString(text, "\n• ")
	text = blockEndRe.ReplaceAllString(text, "\n\n")
	text = tagRe.ReplaceAllString(text, "")
	text = decodeEntities(text)

	text = spaceRunRe.ReplaceAllString(text, " ")
	text = trailWSRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// ExtractLinks collects anchor targets from an HTML fragment, skipping
// empty, fragment-only and javascript: hrefs, deduplicating by
// lower-cased URL. Embedded video iframes are lifted as labeled links too.
func ExtractLinks(html string) []Link {
	var links []Link
	seen := make(map[string]bool)

	for _, groups := range anchorRe.FindAllStringSubmatch(html, -1) {
		url := strings.TrimSpace(groups[1])
		if url == "" || url == "#" || strings.HasPrefix(strings.ToLower(url), "javascript:") {
			continue
		}
		if seen[strings.ToLower(url)] {
			continue
		}
		seen[strings.ToLower(url)] = true

		label := innerText(groups[2])
		if label == "" {
			label = url
		}
		links = append(links, Link{Label: label, URL: url})
	}

	for _, groups := range iframeRe.FindAllStringSubmatch(html, -1) {
		url := strings.TrimSpace(groups[1])
		if url == "" || !isVideoHost(url) || seen[strings.ToLower(url)] {
			continue
		}
		seen[strings.ToLower(url)] = true
		links = append(links, Link{Label: "Embedded video", URL: url})
	}

	return links
}

func isVideoHost(url string) bool {
	lower := strings.ToLower(url)
	for _, host := range videoHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

func innerText(fragment string) string {
	text := tagRe.ReplaceAllString(fragment, "")
	text = decodeEntities(text)
	return strings.Join(strings.Fields(text), " ")
}

func decodeEntities(text string) string {
	text = entityReplacer.Replace(text)
	// &amp; last so "&amp;lt;" does not double-decode
	return strings.ReplaceAll(text, "&amp;", "&")
}

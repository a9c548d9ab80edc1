// Package htmlutils prepares scraped HTML for Telegram messages.
//
// Telegram accepts only a small tag set in HTML parse mode; everything else
// must be stripped before dispatch. The package also chunks long bodies at
// paragraph boundaries so a single message never exceeds the API limit.
package htmlutils

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagRegex      = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)
	hrefRegex     = regexp.MustCompile(`(?i)\s*href\s*=\s*["']([^"']*)["']`)
	emptyUnderRe  = regexp.MustCompile(`<u>\s*</u>`)
	leadingSpaces = regexp.MustCompile(`(?m)^[ \t]+`)
)

// allowedTags is the tag set the notification channel accepts.
var allowedTags = map[string]bool{
	"b":      true,
	"i":      true,
	"u":      true,
	"s":      true,
	"strong": true,
	"em":     true,
	"a":      true,
}

// dangerousProtocols lists URL schemes stripped from anchors.
var dangerousProtocols = []string{
	"javascript:",
	"vbscript:",
	"data:",
}

// Sanitize keeps only the allow-listed tags, escapes everything else and
// closes unbalanced tags. For <a> tags only a safe href attribute survives;
// all other tags lose their attributes.
func Sanitize(text string) string {
	var sb strings.Builder

	var openTags []string

	lastPos := 0

	for _, idx := range tagRegex.FindAllStringIndex(text, -1) {
		if idx[0] > lastPos {
			sb.WriteString(html.EscapeString(text[lastPos:idx[0]]))
		}

		openTags = processTag(&sb, text[idx[0]:idx[1]], openTags)
		lastPos = idx[1]
	}

	if lastPos < len(text) {
		sb.WriteString(html.EscapeString(text[lastPos:]))
	}

	for i := len(openTags) - 1; i >= 0; i-- {
		sb.WriteString("</" + openTags[i] + ">")
	}

	return sb.String()
}

func processTag(sb *strings.Builder, tag string, openTags []string) []string {
	matches := tagRegex.FindStringSubmatch(tag)
	if len(matches) < 3 {
		return openTags
	}

	isClosing := matches[1] == "/"
	name := strings.ToLower(matches[2])

	if !allowedTags[name] {
		return openTags
	}

	if isClosing {
		idx := lastIndex(openTags, name)
		if idx < 0 {
			return openTags
		}

		sb.WriteString("</" + name + ">")

		return openTags[:idx]
	}

	if name == "a" {
		sb.WriteString(sanitizeAnchor(tag))
	} else {
		sb.WriteString("<" + name + ">")
	}

	return append(openTags, name)
}

// sanitizeAnchor keeps only a safe href attribute on an opening <a> tag.
func sanitizeAnchor(tag string) string {
	m := hrefRegex.FindStringSubmatch(tag)
	if m == nil {
		return "<a>"
	}

	href := strings.TrimSpace(m[1])

	lower := strings.ToLower(href)
	for _, proto := range dangerousProtocols {
		if strings.HasPrefix(lower, proto) {
			return "<a>"
		}
	}

	return `<a href="` + html.EscapeString(href) + `">`
}

func lastIndex(tags []string, name string) int {
	for i := len(tags) - 1; i >= 0; i-- {
		if tags[i] == name {
			return i
		}
	}

	return -1
}

// Normalize collapses scraping artifacts: empty underline pairs become a
// space and leading indentation is stripped from every line.
func Normalize(text string) string {
	text = emptyUnderRe.ReplaceAllString(text, " ")
	text = leadingSpaces.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}

// ChunkParagraphs splits text into chunks no longer than limit, breaking only
// at blank-line paragraph boundaries. A single paragraph longer than the
// limit becomes its own (oversized) chunk rather than being cut mid-text.
func ChunkParagraphs(text string, limit int) []string {
	var chunks []string

	var current string

	for _, part := range strings.Split(text, "\n\n") {
		if len(current)+len(part) < limit {
			current += "\n\n" + part
			continue
		}

		if trimmed := strings.TrimSpace(current); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		current = part
	}

	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}

	return chunks
}

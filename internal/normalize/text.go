// Package normalize holds the text cleaning, categorization and filtering
// shared by every source adapter.
package normalize

import (
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// MaxDescriptionLength is the hard cut applied before the ellipsis.
const MaxDescriptionLength = 250

const ellipsis = "..."

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// entities is the fixed decode table. Anything else is left as-is.
var entities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&apos;", "'",
	"&rsquo;", "'",
	"&lsquo;", "'",
	"&rdquo;", `"`,
	"&ldquo;", `"`,
	"&ndash;", "-",
	"&mdash;", "-",
	"&hellip;", "...",
	"\u2019", "'",
	"\u2018", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2013", "-",
	"\u2014", "-",
	"\u2026", "...",
	"\u00a0", " ",
)

// CleanDescription turns an HTML-ish blurb into a short plain-text summary:
// tags stripped, entities decoded, whitespace collapsed, edge punctuation
// trimmed, cut at MaxDescriptionLength runes with an ellipsis.
// The result never contains '<' or '>' and is never empty.
func CleanDescription(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")
	text = entities.Replace(text)

	// decoded &lt;...&gt; can rebuild markup
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.NewReplacer("<", " ", ">", " ").Replace(text)

	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.Trim(text, " \t\r\n:-")

	if text == "" {
		return domain.NoDescription
	}

	runes := []rune(text)
	if len(runes) > MaxDescriptionLength {
		return string(runes[:MaxDescriptionLength]) + ellipsis
	}
	return text
}

// CleanText collapses whitespace and trims a short field such as a title
// or company name. Tags are stripped but nothing is truncated.
func CleanText(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")
	text = entities.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// OrDefault returns the cleaned value or def when it is empty.
func OrDefault(value, def string) string {
	if v := CleanText(value); v != "" {
		return v
	}
	return def
}

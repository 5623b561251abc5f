package normalize

import (
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// DefaultRelevanceKeywords keep broad job boards on-topic.
var DefaultRelevanceKeywords = []string{
	"project", "manager", "consultant", "program", "programme",
	"director", "lead", "coordinator", "management",
}

// GermanStopwords are common function words that almost never show up in
// English postings.
var GermanStopwords = []string{
	"und", "der", "die", "das", "mit", "für", "wir", "sie", "ist", "ein",
	"eine", "zu", "von", "den", "auf", "bei", "ihre", "oder", "nicht", "sich",
	"im", "unser", "unsere", "dich", "du",
}

// DefaultForeignThreshold is the number of distinct stopwords that marks a
// text as non-English.
const DefaultForeignThreshold = 3

// KeywordFilter reports whether any keyword occurs in a set of fields.
type KeywordFilter struct {
	matcher *ahocorasick.Matcher
}

// NewKeywordFilter builds a filter. With no keywords every input is relevant.
func NewKeywordFilter(keywords []string) *KeywordFilter {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if len(normalized) == 0 {
		return &KeywordFilter{}
	}
	return &KeywordFilter{matcher: ahocorasick.NewStringMatcher(normalized)}
}

// Relevant is true when any field contains any keyword, case-insensitively.
func (f *KeywordFilter) Relevant(fields ...string) bool {
	if f == nil || f.matcher == nil {
		return true
	}
	text := strings.ToLower(strings.Join(fields, " "))
	return len(f.matcher.MatchThreadSafe([]byte(text))) > 0
}

// LanguageDetector is a deliberately crude stopword counter.
type LanguageDetector struct {
	matcher   *ahocorasick.Matcher
	threshold int
}

// NewLanguageDetector matches whole words only; stopwords are padded with
// spaces and the input is tokenized the same way.
func NewLanguageDetector(stopwords []string, threshold int) *LanguageDetector {
	if threshold <= 0 {
		threshold = DefaultForeignThreshold
	}
	padded := make([]string, 0, len(stopwords))
	for _, w := range stopwords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			padded = append(padded, " "+w+" ")
		}
	}
	d := &LanguageDetector{threshold: threshold}
	if len(padded) > 0 {
		d.matcher = ahocorasick.NewStringMatcher(padded)
	}
	return d
}

// Count returns how many distinct stopwords occur in the fields.
func (d *LanguageDetector) Count(fields ...string) int {
	if d == nil || d.matcher == nil {
		return 0
	}
	return len(d.matcher.MatchThreadSafe([]byte(wordText(fields...))))
}

// IsForeign is true when the stopword count reaches the threshold.
func (d *LanguageDetector) IsForeign(fields ...string) bool {
	return d.Count(fields...) >= d.threshold
}

// wordText lower-cases the input and replaces every non-letter/digit with a
// single space, padding both ends so the first and last words match.
func wordText(fields ...string) string {
	var b strings.Builder
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(strings.Join(fields, " ")) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

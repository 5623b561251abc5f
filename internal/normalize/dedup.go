package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minDedupKeyLength: title+organization keys this short are too weak to
// identify a listing, so the link is used instead.
const minDedupKeyLength = 3

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// DedupKey collapses listings that differ only in case, whitespace,
// punctuation or accents. Falls back to the link when title+organization
// carry fewer than four word characters.
func DedupKey(title, organization, link string) string {
	key := wordKey(title + organization)
	if len([]rune(key)) > minDedupKeyLength {
		return key
	}
	return wordKey(link)
}

func wordKey(s string) string {
	return nonWordPattern.ReplaceAllString(foldAccents(strings.ToLower(s)), "")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

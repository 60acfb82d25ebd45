package clean

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxDescription is the rune cap applied to descriptions before the ellipsis.
const MaxDescription = 5000

const ellipsis = "..."

var tagPattern = regexp.MustCompile(`<[^>]+>`)

var artifacts = strings.NewReplacer(
	"\u00a0", " ",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
	"\u2013", "-",
	"\u2014", "-",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2022", "*",
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
)

// Text cleans a short field: entities decoded, tags removed outright,
// artifacts replaced and whitespace collapsed.
func Text(value string) string {
	return fixpoint(value, "")
}

// Description cleans a description field. Tags become a single space and the
// result is capped at MaxDescription runes plus an ellipsis.
func Description(value string) string {
	value = fixpoint(value, " ")
	r := []rune(value)
	if len(r) <= MaxDescription {
		return value
	}
	return string(r[:MaxDescription]) + ellipsis
}

// ASCII is the CSV pass. Accented letters fold to their base letter and every
// rune outside printable ASCII is dropped.
func ASCII(value string) string {
	if value == "" {
		return ""
	}
	value = artifacts.Replace(value)
	folded, _, err := transform.String(foldMarks(), value)
	if err == nil {
		value = folded
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// foldMarks returns a fresh chain; transform.Transformer values are stateful.
func foldMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// fixpoint repeats pass until the value is stable, so Text(Text(x)) == Text(x).
// A pass that changes the value either shortens it or removes a line break.
func fixpoint(value string, tagReplacement string) string {
	if value == "" {
		return ""
	}
	for {
		next := pass(value, tagReplacement)
		if next == value {
			return next
		}
		value = next
	}
}

func pass(value string, tagReplacement string) string {
	value = html.UnescapeString(value)
	value = tagPattern.ReplaceAllString(value, tagReplacement)
	value = artifacts.Replace(value)
	return strings.Join(strings.Fields(value), " ")
}

package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the canonical date_posted format.
const DateLayout = "2006-01-02"

// monthName matches full and abbreviated English month names. Longer names
// come first so "sept" wins over "sep".
const monthName = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\b\.?`

var (
	isoDatePattern   = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}(?:[T ]\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+-]\d{2}:?\d{2})?)?`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})\b`)
	ordinalPattern   = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	relativePattern  = regexp.MustCompile(`(?i)\b(\d+)\+?\s*(minute|min|hour|hr|day|week|month|year)s?\s+ago\b`)
)

// embeddedForms are tried in order against text surrounding a date. Forms
// with exact set hand the match to dateparse; the rest are assembled from
// their year, month, mon and day groups, with missing parts taken from the
// clock.
var embeddedForms = []struct {
	pattern *regexp.Regexp
	exact   bool
}{
	{isoDatePattern, true},
	{regexp.MustCompile(`\b(?P<year>\d{4})/(?P<month>\d{1,2})/(?P<day>\d{1,2})\b`), false},
	{regexp.MustCompile(`(?i)\b(?P<mon>` + monthName + `)\s+(?P<day>\d{1,2})(?:st|nd|rd|th)?,?\s+(?P<year>\d{4})\b`), false},
	{regexp.MustCompile(`(?i)\b(?P<day>\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(?P<mon>` + monthName + `),?\s+(?P<year>\d{4})\b`), false},
	{slashDatePattern, true},
	{regexp.MustCompile(`(?i)\b(?P<mon>` + monthName + `),?\s+(?P<year>\d{4})\b`), false},
	{regexp.MustCompile(`(?i)\b(?P<mon>` + monthName + `)\s+(?P<day>\d{1,2})(?:st|nd|rd|th)?\b`), false},
	{regexp.MustCompile(`(?i)\b(?P<day>\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(?P<mon>` + monthName + `)`), false},
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// DateResult records how a raw date string was resolved. When Parsed is false
// the canonical value is Raw, unchanged.
type DateResult struct {
	Raw      string
	Time     time.Time
	Parsed   bool
	Relative bool
}

func (d DateResult) String() string {
	if d.Parsed {
		return d.Time.Format(DateLayout)
	}
	return d.Raw
}

// DateParser is a fuzzy date parser. Ambiguous numeric dates are read as
// month/day/year. The zero value is ready to use.
type DateParser struct {
	Now      func() time.Time
	Location *time.Location
}

var defaultDateParser = &DateParser{}

// ParseDate parses raw with the default parser.
func ParseDate(raw string) DateResult {
	return defaultDateParser.Parse(raw)
}

// Parse tries the whole string, then date-like substrings embedded in it,
// then relative phrases such as "3 days ago". A date without a year takes the
// current one and a month without a day takes today's day, clamped to the
// month's length.
func (p *DateParser) Parse(raw string) DateResult {
	result := DateResult{Raw: raw}
	value := strings.TrimSpace(raw)
	if value == "" {
		return result
	}

	if ts, ok := p.parseExact(value); ok {
		result.Time, result.Parsed = ts, true
		return result
	}

	if ts, ok := p.parseEmbedded(value); ok {
		result.Time, result.Parsed = ts, true
		return result
	}

	if ts, ok := p.parseRelative(value); ok {
		result.Time, result.Parsed, result.Relative = ts, true, true
	}
	return result
}

func (p *DateParser) parseExact(value string) (time.Time, bool) {
	value = ordinalPattern.ReplaceAllString(value, "$1")
	ts, err := dateparse.ParseIn(value, p.location(), dateparse.PreferMonthFirst(true))
	if err != nil {
		return time.Time{}, false
	}
	// dateparse reports a missing year as year 0; the embedded forms fill it.
	if ts.Year() == 0 {
		return time.Time{}, false
	}
	return ts, true
}

func (p *DateParser) parseEmbedded(value string) (time.Time, bool) {
	for _, form := range embeddedForms {
		if form.exact {
			for _, candidate := range form.pattern.FindAllString(value, -1) {
				if ts, ok := p.parseExact(candidate); ok {
					return ts, true
				}
			}
			continue
		}
		for _, match := range form.pattern.FindAllStringSubmatch(value, -1) {
			if ts, ok := p.assemble(form.pattern.SubexpNames(), match); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// assemble builds a date from named groups, filling gaps from the clock.
func (p *DateParser) assemble(names []string, match []string) (time.Time, bool) {
	now := p.now().In(p.location())
	year, month, day := now.Year(), now.Month(), now.Day()
	dayGiven := false

	for i, name := range names {
		if i == 0 || match[i] == "" {
			continue
		}
		switch name {
		case "year":
			n, err := strconv.Atoi(match[i])
			if err != nil || n < 1 {
				return time.Time{}, false
			}
			year = n
		case "month":
			n, err := strconv.Atoi(match[i])
			if err != nil || n < 1 || n > 12 {
				return time.Time{}, false
			}
			month = time.Month(n)
		case "mon":
			m, ok := monthsByPrefix[strings.ToLower(match[i][:3])]
			if !ok {
				return time.Time{}, false
			}
			month = m
		case "day":
			n, err := strconv.Atoi(match[i])
			if err != nil {
				return time.Time{}, false
			}
			day, dayGiven = n, true
		}
	}

	last := daysIn(year, month)
	if !dayGiven && day > last {
		day = last
	}
	if day < 1 || day > last {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, p.location()), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p *DateParser) parseRelative(value string) (time.Time, bool) {
	now := p.now().In(p.location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	lower := strings.ToLower(value)

	match := relativePattern.FindStringSubmatch(lower)
	if match == nil {
		switch {
		case strings.Contains(lower, "yesterday"):
			return today.AddDate(0, 0, -1), true
		case strings.Contains(lower, "today"), strings.Contains(lower, "just now"), strings.Contains(lower, "just posted"):
			return today, true
		}
		return time.Time{}, false
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}
	switch match[2] {
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute), true
	case "hour", "hr":
		return now.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return today.AddDate(0, 0, -n), true
	case "week":
		return today.AddDate(0, 0, -7*n), true
	case "month":
		return today.AddDate(0, -n, 0), true
	case "year":
		return today.AddDate(-n, 0, 0), true
	}
	return time.Time{}, false
}

func (p *DateParser) now() time.Time {
	if p == nil || p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *DateParser) location() *time.Location {
	if p == nil || p.Location == nil {
		return time.UTC
	}
	return p.Location
}

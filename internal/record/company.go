package record

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	workdayHost  = regexp.MustCompile(`^([^.]+)\.wd\d*\.myworkdayjobs\.`)
	jobsSubHost  = regexp.MustCompile(`^jobs?\.([^.]+)\.`)
	dotJobsHost  = regexp.MustCompile(`^([^.]+)\.jobs$`)
	icimsHost    = regexp.MustCompile(`careers-([^.]+)\.icims\.`)
	genericHosts = map[string]struct{}{
		"jobs":      {},
		"careers":   {},
		"apply":     {},
		"indeed":    {},
		"linkedin":  {},
		"glassdoor": {},
	}
)

// CompanyFromURL guesses an employer name from an apply link host, e.g.
// acme.wd5.myworkdayjobs.com or jobs.acme-health.org.
func CompanyFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ""
	}

	for _, pattern := range []*regexp.Regexp{workdayHost, jobsSubHost, dotJobsHost, icimsHost} {
		if match := pattern.FindStringSubmatch(host); match != nil {
			return titleName(match[1])
		}
	}

	label := strings.Split(strings.TrimPrefix(host, "www."), ".")[0]
	if _, generic := genericHosts[label]; generic {
		return ""
	}
	return titleName(label)
}

func titleName(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/jimezsa/nursejobs/internal/network"
	"github.com/rs/zerolog"
)

const remoteNurseSource = "Remote Nurse Connection"

var (
	remoteNurseLinkSelectors = []string{
		"a.job_listing-clickbox",
		"a[href*='/job/']",
		".jobs-container a",
	}
	locationPattern = regexp.MustCompile(`[A-Z][a-z]+,?\s*[A-Z]{2}|United States`)
	statePattern    = regexp.MustCompile(`^[A-Z]{2}(,\s*[A-Z]{2})*$`)
	salaryPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?\s*[-\x{2013}]\s*\$[\d,]+(?:\.\d{2})?(?:\s*/\s*(?:hr|hour|year|yr|annually))?`),
		regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?\s*(?:per|/)\s*(?:hour|hr|year|yr)`),
		regexp.MustCompile(`(?i)(?:pay|salary|compensation)[:\s]+\$[\d,]+`),
	}
)

// RemoteNurse scrapes the Remote Nurse Connection job board: one listing page,
// then every linked detail page.
type RemoteNurse struct {
	client  network.Doer
	listURL string
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRemoteNurse(client network.Doer, listURL string, logger zerolog.Logger) *RemoteNurse {
	return &RemoteNurse{
		client:  client,
		listURL: listURL,
		logger:  logger.With().Str("site", SiteRemoteNurse).Logger(),
		now:     time.Now,
	}
}

func (r *RemoteNurse) Name() string {
	return SiteRemoteNurse
}

func (r *RemoteNurse) Source() string {
	return remoteNurseSource
}

func (r *RemoteNurse) Scrape(ctx context.Context, params models.ScrapeParams) ([]models.RawJob, error) {
	policy := r.retryPolicy(params)

	var listing *goquery.Document
	err := network.Retry(ctx, policy, func(ctx context.Context) error {
		doc, err := fetchDocument(ctx, r.client, r.listURL, nil)
		if errors.Is(err, ErrChallenge) {
			return network.Permanent(err)
		}
		listing = doc
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: listing: %w", SiteRemoteNurse, err)
	}

	links := parseRemoteNurseLinks(listing, r.listURL)
	r.logger.Info().Int("links", len(links)).Msg("found job links")
	if params.MaxJobs > 0 && len(links) > params.MaxJobs {
		links = links[:params.MaxJobs]
	}

	jobs := make([]models.RawJob, 0, len(links))
	for i, link := range links {
		var job models.RawJob
		err := network.Retry(ctx, policy, func(ctx context.Context) error {
			doc, err := fetchDocument(ctx, r.client, link, nil)
			if err != nil {
				if errors.Is(err, ErrChallenge) {
					return network.Permanent(err)
				}
				return err
			}
			job = parseRemoteNurseJob(doc, link)
			return nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return jobs, ctxErr
			}
			r.logger.Warn().Err(err).Str("url", link).Msg("skipping job page")
			continue
		}
		job[models.FieldScrapedAt] = nowRFC3339(r.now)
		jobs = append(jobs, job)
		r.logger.Debug().Int("n", i+1).Int("of", len(links)).Str("url", link).Msg("scraped job")
	}
	return jobs, nil
}

func (r *RemoteNurse) retryPolicy(params models.ScrapeParams) network.RetryPolicy {
	return network.RetryPolicy{
		Attempts: params.RetryAttempts,
		Delay:    params.RetryDelay,
		OnRetry: func(attempt int, err error) {
			r.logger.Debug().Err(err).Int("attempt", attempt).Msg("retrying fetch")
		},
	}
}

// parseRemoteNurseLinks returns detail-page links from the first selector that
// yields any, in page order without repeats.
func parseRemoteNurseLinks(doc *goquery.Document, base string) []string {
	for _, selector := range remoteNurseLinkSelectors {
		var links []string
		seen := map[string]struct{}{}
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href := strings.TrimSpace(s.AttrOr("href", ""))
			if href == "" || !strings.Contains(href, "/job/") {
				return
			}
			link := absoluteURL(base, href)
			if _, ok := seen[link]; ok {
				return
			}
			seen[link] = struct{}{}
			links = append(links, link)
		})
		if len(links) > 0 {
			return links
		}
	}
	return nil
}

func parseRemoteNurseJob(doc *goquery.Document, pageURL string) models.RawJob {
	description := doc.Find(".et_pb_post_content").First()
	descriptionHTML, _ := description.Html()

	return models.RawJob{
		models.FieldJobTitle:            firstText(doc, "h1.entry-title"),
		models.FieldCompany:             firstText(doc, ".dp-company-info h4"),
		models.FieldDatePosted:          firstText(doc, "span.published"),
		models.FieldLocation:            remoteNurseLocation(doc),
		models.FieldRemoteStatus:        remoteNurseRemoteStatus(doc),
		models.FieldEmploymentType:      blurbField(doc, "Employment Type", isEmploymentValue),
		models.FieldSchedule:            blurbField(doc, "Schedule", isScheduleValue),
		models.FieldLicenseRequirements: blurbField(doc, "License", isLicenseValue),
		models.FieldSalaryRange:         findSalary(cleanText(description.Text())),
		models.FieldJobDescription:      descriptionHTML,
		models.FieldApplyLink:           absoluteURL(pageURL, remoteNurseApplyLink(doc)),
		models.FieldSpecialties:         remoteNurseSpecialties(doc),
		models.FieldSourceURL:           pageURL,
	}
}

func firstText(doc *goquery.Document, selector string) string {
	return cleanText(doc.Find(selector).First().Text())
}

func remoteNurseLocation(doc *goquery.Document) string {
	var location string
	doc.Find(".et_pb_text_inner").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := cleanText(s.Text())
		if text == "" || isRemoteValue(text) {
			return true
		}
		if locationPattern.MatchString(text) {
			location = text
			return false
		}
		return true
	})
	return location
}

func remoteNurseRemoteStatus(doc *goquery.Document) string {
	if value := blurbField(doc, "Remote Status", isRemoteValue); value != "" {
		return value
	}
	var status string
	doc.Find(".et_pb_text_inner").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := cleanText(s.Text()); isRemoteValue(text) {
			status = text
			return false
		}
		return true
	})
	return status
}

// blurbField finds the Divi blurb whose header contains label and returns the
// first code span in the same row that passes accept.
func blurbField(doc *goquery.Document, label string, accept func(string) bool) string {
	var value string
	doc.Find(".et_pb_blurb").EachWithBreak(func(_ int, blurb *goquery.Selection) bool {
		header := blurb.Find(".et_pb_module_header").First()
		if !strings.Contains(header.Text(), label) {
			return true
		}
		row := blurb.Closest("[class*='et_pb_row']")
		if row.Length() == 0 {
			return true
		}
		row.Find(".et_pb_code_inner span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
			text := cleanText(span.Text())
			if text != "" && accept(text) {
				value = text
				return false
			}
			return true
		})
		return value == ""
	})
	return value
}

func isRemoteValue(text string) bool {
	switch strings.ToLower(text) {
	case "remote", "hybrid", "on-site", "onsite":
		return true
	}
	return false
}

func isEmploymentValue(text string) bool {
	return containsAny(strings.ToLower(text), "employee", "perm", "contract", "temp", "full", "part", "per diem")
}

func isScheduleValue(text string) bool {
	return containsAny(strings.ToLower(text), "full", "part", "time", "prn", "shift")
}

func isLicenseValue(text string) bool {
	lower := strings.ToLower(text)
	return statePattern.MatchString(text) || strings.Contains(lower, "license") || strings.Contains(lower, "compact")
}

func containsAny(value string, parts ...string) bool {
	for _, part := range parts {
		if strings.Contains(value, part) {
			return true
		}
	}
	return false
}

func findSalary(text string) string {
	for _, pattern := range salaryPatterns {
		if match := pattern.FindString(text); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}

func remoteNurseApplyLink(doc *goquery.Document) string {
	var link string
	doc.Find("a.et_pb_button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href != "" && strings.Contains(strings.ToUpper(s.Text()), "APPLY") {
			link = href
			return false
		}
		return true
	})
	if link != "" {
		return link
	}
	doc.Find(".dp-additional-link a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if strings.HasPrefix(href, "http") {
			link = href
			return false
		}
		return true
	})
	return link
}

func remoteNurseSpecialties(doc *goquery.Document) string {
	var specialties string
	doc.Find(".et_pb_code_inner span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := cleanText(s.Text())
		if strings.HasPrefix(text, "http") || strings.Contains(text, "$") {
			return true
		}
		if strings.Contains(text, "|") || (len(text) > 20 && strings.Contains(text, ",")) {
			specialties = text
			return false
		}
		return true
	})
	return specialties
}

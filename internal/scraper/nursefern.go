package scraper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/jimezsa/nursejobs/internal/network"
	"github.com/rs/zerolog"
)

const (
	nurseFernSource   = "NurseFern"
	nurseFernPageSize = 100
)

// Bubble Data API paths, tried in order.
var nurseFernEndpoints = []string{
	"/api/1.1/obj/job",
	"/api/1.1/wf/getjobs",
	"/version-test/api/1.1/obj/job",
}

// bubbleIDPattern matches Bubble thing references such as 1700000000000x1234.
var bubbleIDPattern = regexp.MustCompile(`^\d+x\d+$`)

type bubbleEnvelope struct {
	Response bubblePage `json:"response"`
}

type bubblePage struct {
	Results   []map[string]any `json:"results"`
	Cursor    int              `json:"cursor"`
	Count     int              `json:"count"`
	Remaining int              `json:"remaining"`
}

// NurseFern reads postings from the NurseFern Bubble.io data API.
type NurseFern struct {
	client  network.Doer
	baseURL string
	logger  zerolog.Logger
	now     func() time.Time
}

func NewNurseFern(client network.Doer, baseURL string, logger zerolog.Logger) *NurseFern {
	return &NurseFern{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("site", SiteNurseFern).Logger(),
		now:     time.Now,
	}
}

func (n *NurseFern) Name() string {
	return SiteNurseFern
}

func (n *NurseFern) Source() string {
	return nurseFernSource
}

func (n *NurseFern) Scrape(ctx context.Context, params models.ScrapeParams) ([]models.RawJob, error) {
	for _, endpoint := range nurseFernEndpoints {
		target := n.baseURL + endpoint
		first, err := n.fetchPageWithRetry(ctx, target, 0, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			n.logger.Debug().Err(err).Str("endpoint", target).Msg("endpoint unavailable")
			continue
		}
		n.logger.Info().Str("endpoint", target).Int("results", len(first.Results)).Msg("API found")
		return n.collect(ctx, target, first, params)
	}
	return nil, fmt.Errorf("%s: %w", SiteNurseFern, ErrNoAPI)
}

// collect walks the Bubble cursor until the results run out or MaxJobs
// active postings are gathered. A failed later page keeps what was read.
func (n *NurseFern) collect(ctx context.Context, target string, page bubblePage, params models.ScrapeParams) ([]models.RawJob, error) {
	scrapedAt := nowRFC3339(n.now)
	var jobs []models.RawJob
	for {
		for _, item := range page.Results {
			job, ok := parseNurseFernItem(item)
			if !ok {
				continue
			}
			job[models.FieldScrapedAt] = scrapedAt
			jobs = append(jobs, job)
			if params.MaxJobs > 0 && len(jobs) >= params.MaxJobs {
				return jobs, nil
			}
		}
		if page.Remaining <= 0 || len(page.Results) == 0 {
			break
		}

		next := page.Cursor + len(page.Results)
		var err error
		page, err = n.fetchPageWithRetry(ctx, target, next, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return jobs, ctxErr
			}
			n.logger.Warn().Err(err).Int("cursor", next).Msg("stopping pagination")
			break
		}
	}
	n.logger.Info().Int("active", len(jobs)).Msg("parsed active jobs")
	return jobs, nil
}

func (n *NurseFern) fetchPageWithRetry(ctx context.Context, target string, cursor int, params models.ScrapeParams) (bubblePage, error) {
	var page bubblePage
	err := network.Retry(ctx, network.RetryPolicy{Attempts: params.RetryAttempts, Delay: params.RetryDelay}, func(ctx context.Context) error {
		var err error
		page, err = n.fetchPage(ctx, target, cursor)
		if permanentFetchError(err) {
			return network.Permanent(err)
		}
		return err
	})
	return page, err
}

// permanentFetchError reports errors a retry cannot fix: a challenge page or
// a client error other than 429, such as an endpoint that does not exist.
func permanentFetchError(err error) bool {
	if errors.Is(err, ErrChallenge) {
		return true
	}
	var statusErr *network.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 400 && statusErr.Code < 500 && statusErr.Code != 429
	}
	return false
}

func (n *NurseFern) fetchPage(ctx context.Context, target string, cursor int) (bubblePage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(nurseFernPageSize))
	if cursor > 0 {
		query.Set("cursor", strconv.Itoa(cursor))
	}

	var envelope bubbleEnvelope
	if err := fetchJSON(ctx, n.client, target+"?"+query.Encode(), &envelope); err != nil {
		return bubblePage{}, err
	}
	return envelope.Response, nil
}

// parseNurseFernItem maps one Bubble job thing. Archived, deleted and
// dead-link postings are rejected. Company is left for the record builder to
// derive from the apply link.
func parseNurseFernItem(item map[string]any) (models.RawJob, bool) {
	switch stringValue(item["Internal Job Status"]) {
	case "Archived", "Deleted":
		return nil, false
	}
	if status, ok := item["last_checked_status"].(float64); ok && status == 403 {
		return nil, false
	}

	mustWorkFrom := stringValue(item["Must Work From"])
	location := mustWorkFrom
	remote := ""
	if location != "" {
		remote = "Remote"
	} else {
		location = "Remote"
	}

	created := stringValue(item["Created Date"])
	if len(created) > 10 {
		created = created[:10]
	}

	return models.RawJob{
		models.FieldJobTitle:            stringValue(item["Job Title"]),
		models.FieldCompany:             "",
		models.FieldDatePosted:          created,
		models.FieldLocation:            location,
		models.FieldRemoteStatus:        remote,
		models.FieldEmploymentType:      nurseFernJobType(item["Job Type"]),
		models.FieldSchedule:            "",
		models.FieldLicenseRequirements: mustWorkFrom,
		models.FieldSalaryRange:         nurseFernSalary(item["Salary Range"]),
		models.FieldJobDescription:      stringValue(item["Job Description"]),
		models.FieldApplyLink:           stringValue(item["Job Link"]),
		models.FieldSpecialties:         "",
	}, true
}

// nurseFernJobType keeps literal job type labels and drops Bubble references,
// which cannot be resolved without another lookup.
func nurseFernJobType(value any) string {
	var values []any
	switch v := value.(type) {
	case []any:
		values = v
	case string:
		values = []any{v}
	default:
		return ""
	}
	labels := make([]string, 0, len(values))
	for _, item := range values {
		label := stringValue(item)
		if label == "" || bubbleIDPattern.MatchString(label) {
			continue
		}
		labels = append(labels, label)
	}
	return strings.Join(labels, ", ")
}

// nurseFernSalary formats a [min, max] pair as "$min - $max". A zero max
// means no salary was given.
func nurseFernSalary(value any) string {
	pair, ok := value.([]any)
	if !ok || len(pair) < 2 {
		return ""
	}
	low, okLow := pair[0].(float64)
	high, okHigh := pair[1].(float64)
	if !okLow || !okHigh || high <= 0 {
		return ""
	}
	return "$" + thousands(int64(math.Round(low))) + " - $" + thousands(int64(math.Round(high)))
}

func thousands(value int64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	digits := strconv.FormatInt(value, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

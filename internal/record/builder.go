package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/nursejobs/internal/clean"
	"github.com/jimezsa/nursejobs/internal/fields"
	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/rs/zerolog"
)

// Builder turns raw extractor output into canonical jobs. It never fails: a
// missing or malformed raw field becomes an empty string.
type Builder struct {
	Now    func() time.Time
	Dates  *fields.DateParser
	Logger zerolog.Logger
}

// Report describes which normalization path each classified field took.
type Report struct {
	Date           fields.DateResult
	Remote         fields.RemoteStatus
	Employment     fields.EmploymentType
	CompanyFromURL bool
}

// Fallbacks names the classified fields that kept their cleaned input because
// no canonical rule or date form matched. Empty inputs are not fallbacks.
func (r Report) Fallbacks() []string {
	var out []string
	if strings.TrimSpace(r.Date.Raw) != "" && !r.Date.Parsed {
		out = append(out, models.FieldDatePosted)
	}
	if r.Remote.Kind != fields.RemoteNone && !r.Remote.Matched() {
		out = append(out, models.FieldRemoteStatus)
	}
	if r.Employment.Kind != fields.EmploymentNone && !r.Employment.Matched() {
		out = append(out, models.FieldEmploymentType)
	}
	return out
}

func NewBuilder() *Builder {
	b := &Builder{Now: time.Now, Logger: zerolog.Nop()}
	b.Dates = &fields.DateParser{Now: b.now}
	return b
}

func (b *Builder) Build(raw models.RawJob, sourceSite string) models.Job {
	job, _ := b.BuildWithReport(raw, sourceSite)
	return job
}

// BuildAll builds every raw job in order, stamping the same source site.
// Fields kept as raw input are logged at debug level.
func (b *Builder) BuildAll(raws []models.RawJob, sourceSite string) []models.Job {
	jobs := make([]models.Job, 0, len(raws))
	for _, raw := range raws {
		job, report := b.BuildWithReport(raw, sourceSite)
		if fallbacks := report.Fallbacks(); len(fallbacks) > 0 {
			b.Logger.Debug().
				Str("title", job.JobTitle).
				Str("source", job.SourceSite).
				Strs("fields", fallbacks).
				Msg("kept unrecognized values")
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func (b *Builder) BuildWithReport(raw models.RawJob, sourceSite string) (models.Job, Report) {
	var report Report

	text := func(key string) string {
		return clean.Text(Value(raw[key]))
	}

	report.Date = b.dates().Parse(text(models.FieldDatePosted))
	report.Remote = fields.ClassifyRemote(text(models.FieldRemoteStatus))
	report.Employment = fields.ClassifyEmployment(text(models.FieldEmploymentType))

	job := models.Job{
		JobTitle:            text(models.FieldJobTitle),
		Company:             text(models.FieldCompany),
		DatePosted:          report.Date.String(),
		Location:            text(models.FieldLocation),
		RemoteStatus:        report.Remote.String(),
		EmploymentType:      report.Employment.String(),
		Schedule:            text(models.FieldSchedule),
		LicenseRequirements: text(models.FieldLicenseRequirements),
		SalaryRange:         text(models.FieldSalaryRange),
		JobDescription:      clean.Description(Value(raw[models.FieldJobDescription])),
		ApplyLink:           text(models.FieldApplyLink),
		Specialties:         text(models.FieldSpecialties),
		SourceSite:          clean.Text(sourceSite),
		ScrapedAt:           text(models.FieldScrapedAt),
	}

	if job.Company == "" {
		if company := CompanyFromURL(job.ApplyLink); company != "" {
			job.Company = company
			report.CompanyFromURL = true
		}
	}
	if job.SourceSite == "" {
		job.SourceSite = text(models.FieldSourceSite)
	}
	if job.ScrapedAt == "" {
		job.ScrapedAt = b.now().Format(time.RFC3339)
	}

	return job, report
}

func (b *Builder) now() time.Time {
	if b == nil || b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b *Builder) dates() *fields.DateParser {
	if b == nil || b.Dates == nil {
		return &fields.DateParser{Now: b.now}
	}
	return b.Dates
}

// Value renders a raw field as a string. Lists are joined with ", " and nil
// becomes "".
func Value(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return joinNonEmpty(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Value(item))
		}
		return joinNonEmpty(parts)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case map[string]any:
		return Value(v["name"])
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func joinNonEmpty(values []string) string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, value)
	}
	return strings.Join(out, ", ")
}

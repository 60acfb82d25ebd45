package record

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jimezsa/nursejobs/internal/fields"
	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/rs/zerolog"
)

func fixedBuilder() *Builder {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	return &Builder{Now: clock, Dates: &fields.DateParser{Now: clock}}
}

func TestBuildScenario(t *testing.T) {
	raw := models.RawJob{
		"job_title":       "<b>RN</b> &amp; Case Manager",
		"apply_link":      "https://x.com/j/1",
		"employment_type": "FT",
		"date_posted":     "posted on 3/1/2024",
	}

	job, report := fixedBuilder().BuildWithReport(raw, "NurseFern")

	if job.JobTitle != "RN & Case Manager" {
		t.Fatalf("JobTitle = %q, want %q", job.JobTitle, "RN & Case Manager")
	}
	if job.EmploymentType != "Full-time" {
		t.Fatalf("EmploymentType = %q, want Full-time", job.EmploymentType)
	}
	if job.DatePosted != "2024-03-01" {
		t.Fatalf("DatePosted = %q, want 2024-03-01", job.DatePosted)
	}
	if !report.Date.Parsed {
		t.Fatalf("expected report to record a parsed date")
	}
	if job.SourceSite != "NurseFern" {
		t.Fatalf("SourceSite = %q", job.SourceSite)
	}
	if job.ScrapedAt != "2024-03-10T12:00:00Z" {
		t.Fatalf("ScrapedAt = %q", job.ScrapedAt)
	}
}

func TestBuildMissingAndMalformedFields(t *testing.T) {
	raw := models.RawJob{
		"job_title":       nil,
		"location":        []any{"CA", "", "TX", nil},
		"salary_range":    42000.0,
		"date_posted":     "garbled",
		"remote_status":   "Banana",
		"employment_type": "Seasonal",
		"scraped_at":      "2024-01-01T08:00:00",
		"source_site":     "Remote Nurse Connection",
	}

	job, report := fixedBuilder().BuildWithReport(raw, "")

	if job.JobTitle != "" || job.Company != "" || job.Schedule != "" {
		t.Fatalf("expected empty strings for missing fields: %+v", job)
	}
	if job.Location != "CA, TX" {
		t.Fatalf("Location = %q, want %q", job.Location, "CA, TX")
	}
	if job.SalaryRange != "42000" {
		t.Fatalf("SalaryRange = %q", job.SalaryRange)
	}
	if job.DatePosted != "garbled" || report.Date.Parsed {
		t.Fatalf("DatePosted = %q parsed=%v, want fallback", job.DatePosted, report.Date.Parsed)
	}
	if job.RemoteStatus != "Banana" || report.Remote.Kind != fields.RemoteOther {
		t.Fatalf("RemoteStatus = %q kind=%d", job.RemoteStatus, report.Remote.Kind)
	}
	if job.EmploymentType != "Seasonal" || report.Employment.Kind != fields.EmploymentOther {
		t.Fatalf("EmploymentType = %q kind=%d", job.EmploymentType, report.Employment.Kind)
	}
	if job.SourceSite != "Remote Nurse Connection" {
		t.Fatalf("SourceSite = %q", job.SourceSite)
	}
	if job.ScrapedAt != "2024-01-01T08:00:00" {
		t.Fatalf("ScrapedAt = %q, want raw value", job.ScrapedAt)
	}
}

func TestBuildCleansDescription(t *testing.T) {
	raw := models.RawJob{
		"job_description": "<p>Triage&nbsp;calls</p>\n<p>" + strings.Repeat("x", 6000) + "</p>",
	}
	job := fixedBuilder().Build(raw, "NurseFern")
	if !strings.HasPrefix(job.JobDescription, "Triage calls x") {
		t.Fatalf("unexpected description prefix: %q", job.JobDescription[:20])
	}
	if n := len([]rune(job.JobDescription)); n != 5003 {
		t.Fatalf("description length = %d, want 5003", n)
	}
}

func TestBuildCompanyFromURL(t *testing.T) {
	raw := models.RawJob{"apply_link": "https://acme-health.wd5.myworkdayjobs.com/en-US/careers/job/123"}
	job, report := fixedBuilder().BuildWithReport(raw, "NurseFern")
	if job.Company != "Acme Health" || !report.CompanyFromURL {
		t.Fatalf("Company = %q fromURL=%v", job.Company, report.CompanyFromURL)
	}

	raw = models.RawJob{"company": "Given Co", "apply_link": "https://jobs.other.com/1"}
	job, report = fixedBuilder().BuildWithReport(raw, "NurseFern")
	if job.Company != "Given Co" || report.CompanyFromURL {
		t.Fatalf("explicit company was overridden: %q", job.Company)
	}
}

func TestCompanyFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"", ""},
		{"Apply via NurseFern", ""},
		{"https://acme.wd1.myworkdayjobs.com/x", "Acme"},
		{"https://jobs.sunrise-care.org/posting/1", "Sunrise Care"},
		{"https://baylor.jobs/nurse", "Baylor"},
		{"https://careers-mercy.icims.com/jobs/1", "Mercy"},
		{"https://www.carewell.com/apply", "Carewell"},
		{"https://www.indeed.com/viewjob?jk=1", ""},
		{"https://www.ÉCOLE.com/x", "École"},
		{"https://jobs.saint-émilion.fr/1", "Saint Émilion"},
	}

	for _, tc := range cases {
		got := CompanyFromURL(tc.url)
		if got != tc.want {
			t.Fatalf("CompanyFromURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("CompanyFromURL(%q) returned invalid UTF-8 %q", tc.url, got)
		}
	}
}

func TestSortByDatePosted(t *testing.T) {
	jobs := []models.Job{
		{JobTitle: "empty", DatePosted: ""},
		{JobTitle: "jan", DatePosted: "2024-01-15"},
		{JobTitle: "garbled", DatePosted: "garbled"},
		{JobTitle: "mar", DatePosted: "2024-03-01"},
	}

	SortByDatePosted(jobs)

	if jobs[0].JobTitle != "mar" || jobs[1].JobTitle != "jan" {
		t.Fatalf("unexpected order: %q, %q", jobs[0].JobTitle, jobs[1].JobTitle)
	}
	for _, job := range jobs[2:] {
		if job.JobTitle != "empty" && job.JobTitle != "garbled" {
			t.Fatalf("unparseable dates should sort last, got %q", job.JobTitle)
		}
	}
	if jobs[2].DatePosted != "" || jobs[3].DatePosted != "garbled" {
		t.Fatalf("sort must keep stored date_posted values unchanged")
	}
}

func TestReportFallbacks(t *testing.T) {
	_, report := fixedBuilder().BuildWithReport(models.RawJob{
		"date_posted":     "garbled",
		"remote_status":   "Banana",
		"employment_type": "FT",
	}, "NurseFern")
	if got := strings.Join(report.Fallbacks(), ","); got != "date_posted,remote_status" {
		t.Fatalf("Fallbacks() = %q", got)
	}

	_, empty := fixedBuilder().BuildWithReport(models.RawJob{}, "NurseFern")
	if got := empty.Fallbacks(); len(got) != 0 {
		t.Fatalf("expected no fallbacks for empty input, got %v", got)
	}
}

func TestBuildAllLogsFallbacks(t *testing.T) {
	var buf bytes.Buffer
	builder := fixedBuilder()
	builder.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	jobs := builder.BuildAll([]models.RawJob{
		{"job_title": "RN", "employment_type": "Seasonal"},
		{"job_title": "LPN", "employment_type": "PRN"},
	}, "NurseFern")
	if len(jobs) != 2 {
		t.Fatalf("BuildAll() returned %d jobs", len(jobs))
	}

	log := buf.String()
	if strings.Count(log, "kept unrecognized values") != 1 {
		t.Fatalf("expected one fallback log line, got %q", log)
	}
	if !strings.Contains(log, `"title":"RN"`) || !strings.Contains(log, `"fields":["employment_type"]`) {
		t.Fatalf("unexpected fallback log: %q", log)
	}
}

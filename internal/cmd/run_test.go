package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/nursejobs/internal/config"
	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/jimezsa/nursejobs/internal/network"
	"github.com/jimezsa/nursejobs/internal/scraper"
	"github.com/jimezsa/nursejobs/internal/seen"
	"github.com/jimezsa/nursejobs/internal/ui"
	"github.com/rs/zerolog"
)

type fakeScraper struct {
	name   string
	source string
	raws   []models.RawJob
	err    error
}

func (f *fakeScraper) Name() string   { return f.name }
func (f *fakeScraper) Source() string { return f.source }

func (f *fakeScraper) Scrape(context.Context, models.ScrapeParams) ([]models.RawJob, error) {
	return f.raws, f.err
}

func fakeRegistry() map[string]scraper.Scraper {
	return map[string]scraper.Scraper{
		scraper.SiteRemoteNurse: &fakeScraper{
			name:   scraper.SiteRemoteNurse,
			source: "Remote Nurse Connection",
			raws: []models.RawJob{
				{
					models.FieldJobTitle:     "<b>RN</b> &amp; Case Manager",
					models.FieldApplyLink:    "https://x/1",
					models.FieldDatePosted:   "2024-03-01",
					models.FieldRemoteStatus: "Fully Remote",
				},
				{
					models.FieldJobTitle:   "LPN",
					models.FieldApplyLink:  "https://x/2",
					models.FieldDatePosted: "2024-01-15",
				},
			},
		},
		scraper.SiteNurseFern: &fakeScraper{
			name:   scraper.SiteNurseFern,
			source: "NurseFern",
			raws: []models.RawJob{{
				models.FieldJobTitle:   "NP",
				models.FieldApplyLink:  "https://acme.wd5.myworkdayjobs.com/1",
				models.FieldDatePosted: "2024-02-01",
			}},
		},
		"broken": &fakeScraper{name: "broken", source: "Broken", err: errors.New("boom")},
	}
}

func testContext(t *testing.T) (*Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NURSEJOBS_PROXIES", "")
	t.Setenv("PROXY_URL", "")

	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.RequestIntervalMS = 0
	cfg.RetryDelaySeconds = 0

	var out, errOut bytes.Buffer
	ctx := &Context{
		Out:    &out,
		Err:    &errOut,
		UI:     ui.New(&out, &errOut, ui.ColorNever, true),
		Config: cfg,
		Logger: zerolog.Nop(),
		Registry: func(network.ClientOptions, map[string]string, zerolog.Logger) (map[string]scraper.Scraper, error) {
			return fakeRegistry(), nil
		},
		Now: func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
	return ctx, &out, &errOut
}

func readExportedJobs(t *testing.T, path string) []models.Job {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var jobs []models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	return jobs
}

func TestRunPipelineExportsThenDedupes(t *testing.T) {
	ctx, out, errOut := testContext(t)
	cmd := &RunCmd{ScrapeOptions: ScrapeOptions{Sites: "all", MaxJobs: -1}}

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dir := ctx.Config.OutputDir
	jobs := readExportedJobs(t, filepath.Join(dir, "jobs_2024-03-10.json"))
	if len(jobs) != 3 {
		t.Fatalf("expected 3 exported jobs, got %d", len(jobs))
	}
	titles := []string{jobs[0].JobTitle, jobs[1].JobTitle, jobs[2].JobTitle}
	if strings.Join(titles, "|") != "RN & Case Manager|NP|LPN" {
		t.Fatalf("unexpected order: %v", titles)
	}
	if jobs[0].RemoteStatus != "Remote" || jobs[1].Company != "Acme" {
		t.Fatalf("unexpected normalization: %+v / %+v", jobs[0], jobs[1])
	}
	if _, err := os.Stat(filepath.Join(dir, "jobs_2024-03-10.csv")); err != nil {
		t.Fatalf("expected CSV export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, seen.LedgerFileName)); err != nil {
		t.Fatalf("expected seen ledger: %v", err)
	}

	log := errOut.String()
	if !strings.Contains(log, "summary: total=3 by_source=NurseFern:1,Remote Nurse Connection:2") {
		t.Fatalf("missing summary line: %q", log)
	}
	if !strings.Contains(log, "  broken: failed: boom\n") {
		t.Fatalf("expected failing site to be reported: %q", log)
	}
	if !strings.Contains(out.String(), "  nursefern: 1 jobs\n  remotenurse: 2 jobs\n") {
		t.Fatalf("expected per-site counts: %q", out.String())
	}

	errOut.Reset()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !strings.Contains(errOut.String(), "summary: total=0 by_source=none") {
		t.Fatalf("expected no new jobs on second run: %q", errOut.String())
	}
}

func TestRunPipelineNoDedup(t *testing.T) {
	ctx, _, _ := testContext(t)
	cmd := &RunCmd{
		ScrapeOptions: ScrapeOptions{Sites: "rnc", MaxJobs: -1},
		OutputOptions: OutputOptions{Formats: "json", NoDedup: true},
	}
	for i := 0; i < 2; i++ {
		if err := cmd.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}
	dir := ctx.Config.OutputDir
	if jobs := readExportedJobs(t, filepath.Join(dir, "jobs_2024-03-10.json")); len(jobs) != 2 {
		t.Fatalf("expected 2 remotenurse jobs, got %d", len(jobs))
	}
	if _, err := os.Stat(filepath.Join(dir, seen.LedgerFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("--no-dedup must not write the ledger, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "jobs_2024-03-10.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected only JSON export, stat err = %v", err)
	}
}

func TestRunPipelineJSONReport(t *testing.T) {
	ctx, out, _ := testContext(t)
	ctx.JSONOutput = true
	cmd := &RunCmd{ScrapeOptions: ScrapeOptions{Sites: "nursefern", MaxJobs: -1}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var payload jsonReport
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode report %q: %v", out.String(), err)
	}
	if payload.Scraped != 1 || payload.New != 1 || len(payload.Files) != 2 || payload.BySource["NurseFern"] != 1 {
		t.Fatalf("unexpected report: %+v", payload)
	}
}

func TestRunPipelinePreview(t *testing.T) {
	ctx, out, _ := testContext(t)
	cmd := &RunCmd{
		ScrapeOptions: ScrapeOptions{Sites: "nursefern", MaxJobs: -1},
		OutputOptions: OutputOptions{Preview: "md", NoDedup: true},
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "- **NP** (Acme)") {
		t.Fatalf("expected markdown preview, got %q", out.String())
	}
}

func TestSelectScrapers(t *testing.T) {
	registry := fakeRegistry()
	selected, err := selectScrapers(registry, "fern, nursefern")
	if err != nil {
		t.Fatalf("selectScrapers() error = %v", err)
	}
	if len(selected) != 1 || selected[0].Name() != scraper.SiteNurseFern {
		t.Fatalf("unexpected selection: %v", selected)
	}

	all, err := selectScrapers(registry, "all")
	if err != nil || len(all) != 3 || all[0].Name() != "broken" {
		t.Fatalf("selectScrapers(all) = %v, %v", all, err)
	}

	if _, err := selectScrapers(registry, "indeed"); err == nil {
		t.Fatalf("expected unknown site error")
	}
}

func TestResolveFormats(t *testing.T) {
	got, err := resolveFormats("", []string{"csv", "json", "csv"})
	if err != nil || len(got) != 2 {
		t.Fatalf("resolveFormats(config) = %v, %v", got, err)
	}
	got, err = resolveFormats("json", []string{"csv"})
	if err != nil || len(got) != 1 || got[0] != "json" {
		t.Fatalf("resolveFormats(flag) = %v, %v", got, err)
	}
	if _, err := resolveFormats("xml", nil); err == nil {
		t.Fatalf("expected error for xml")
	}
	if _, err := resolveFormats("", nil); err == nil {
		t.Fatalf("expected error for no formats")
	}
}

func TestResolveMaxJobs(t *testing.T) {
	if got := resolveMaxJobs(-1, 100); got != 100 {
		t.Fatalf("resolveMaxJobs(-1) = %d", got)
	}
	if got := resolveMaxJobs(0, 100); got != 0 {
		t.Fatalf("resolveMaxJobs(0) = %d", got)
	}
}

func TestFormatRunSummary(t *testing.T) {
	report := runReport{Jobs: []models.Job{{SourceSite: "NurseFern"}, {}}}
	if got := formatRunSummary(report); got != "summary: total=2 by_source=NurseFern:1,Unknown:1" {
		t.Fatalf("formatRunSummary() = %q", got)
	}
	if got := formatRunSummary(runReport{}); got != "summary: total=0 by_source=none" {
		t.Fatalf("empty formatRunSummary() = %q", got)
	}
}

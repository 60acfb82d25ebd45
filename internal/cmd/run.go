package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jimezsa/nursejobs/internal/config"
	"github.com/jimezsa/nursejobs/internal/export"
	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/jimezsa/nursejobs/internal/network"
	"github.com/jimezsa/nursejobs/internal/record"
	"github.com/jimezsa/nursejobs/internal/scraper"
	"github.com/jimezsa/nursejobs/internal/seen"
	"github.com/muesli/termenv"
)

const proxyBanDuration = 10 * time.Minute

type RunCmd struct {
	ScrapeOptions
	OutputOptions
}

type ScrapeOptions struct {
	Sites   string `help:"Comma-separated list of sites (default: all)." default:"all"`
	MaxJobs int    `name:"max-jobs" help:"Maximum jobs per site, 0 for no cap (default from config)." default:"-1"`
	Proxies string `help:"Comma-separated proxy URLs." env:"NURSEJOBS_PROXIES"`
}

type OutputOptions struct {
	Formats   string `help:"Comma-separated export formats: csv, json (default from config)."`
	OutputDir string `name:"output-dir" short:"o" help:"Directory for exports and the seen ledger." env:"NURSEJOBS_OUTPUT_DIR"`
	NoDedup   bool   `name:"no-dedup" help:"Export every job; the seen ledger is neither read nor updated."`
	Preview   string `help:"Also print new jobs to stdout: table or md." enum:",table,md" default:""`
	Links     string `help:"Preview link display: short or full." enum:"short,full" default:"full"`
}

func (r *RunCmd) Run(ctx *Context) error {
	_, err := runPipeline(ctx.baseContext(), ctx, r.ScrapeOptions, r.OutputOptions)
	return err
}

// runReport is what one pipeline pass produced.
type runReport struct {
	Scraped  int
	Jobs     []models.Job
	Dedup    *seen.Stats
	Files    []export.Result
	Failures []scraperFailure
}

func runPipeline(c context.Context, ctx *Context, scrape ScrapeOptions, out OutputOptions) (runReport, error) {
	cfg := ctx.Config
	formats, err := resolveFormats(out.Formats, cfg.Formats)
	if err != nil {
		return runReport{}, err
	}

	proxies, err := config.LoadProxies(scrape.Proxies)
	if err != nil {
		return runReport{}, err
	}
	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, proxyBanDuration)
		if err != nil {
			return runReport{}, fmt.Errorf("parse proxies: %w", err)
		}
	}

	registry, err := ctx.registry()(network.ClientOptions{
		Rotator:  rotator,
		Interval: cfg.RequestInterval(),
	}, cfg.URLs, ctx.Logger)
	if err != nil {
		return runReport{}, err
	}
	selected, err := selectScrapers(registry, scrape.Sites)
	if err != nil {
		return runReport{}, err
	}

	params := models.ScrapeParams{
		MaxJobs:       resolveMaxJobs(scrape.MaxJobs, cfg.MaxJobsPerSite),
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay(),
	}

	stopIndicator := startIndicator(ctx, "Scraping")
	results, failures := runScrapers(c, selected, params)
	if stopIndicator != nil {
		stopIndicator()
	}
	reportScrapers(ctx, results, failures)
	logProxyBans(ctx, rotator)

	builder := record.NewBuilder()
	builder.Now = ctx.clock()
	builder.Logger = ctx.Logger.With().Str("component", "record").Logger()
	var jobs []models.Job
	for _, res := range results {
		jobs = append(jobs, builder.BuildAll(res.raws, res.source)...)
	}

	report, err := processJobs(ctx, jobs, out, formats)
	report.Failures = failures
	if err != nil {
		return report, err
	}
	return report, c.Err()
}

// processJobs runs the dedup and export stages over built jobs and prints
// the outcome.
func processJobs(ctx *Context, jobs []models.Job, out OutputOptions, formats []export.Format) (runReport, error) {
	report := runReport{Scraped: len(jobs), Jobs: jobs}
	dir := resolveOutputDir(out.OutputDir, ctx.Config.OutputDir)

	if !out.NoDedup {
		dedup := seen.NewDeduplicator(seen.NewFileStore(dir), ctx.Logger)
		dedup.Now = ctx.clock()
		fresh, stats, err := dedup.FilterNew(jobs)
		if err != nil {
			return report, err
		}
		report.Jobs = fresh
		report.Dedup = &stats
	}

	exporter := export.NewExporter(dir, ctx.Logger)
	exporter.Now = ctx.clock()
	for _, format := range formats {
		result, err := exporter.Export(report.Jobs, format)
		if err != nil {
			return report, err
		}
		if result.Count > 0 {
			report.Files = append(report.Files, result)
		}
	}

	if err := printReport(ctx, report, out); err != nil {
		return report, err
	}
	return report, nil
}

func printReport(ctx *Context, report runReport, out OutputOptions) error {
	summary := export.Summarize(report.Jobs)
	if ctx.JSONOutput {
		return writeJSONReport(ctx.Out, report, summary)
	}

	if ctx.UI != nil {
		if len(report.Jobs) == 0 {
			if report.Scraped > 0 && report.Dedup != nil {
				ctx.UI.Infof("No new jobs found (all %d already seen)", report.Scraped)
			} else {
				ctx.UI.Infof("No jobs found")
			}
		}
		for _, file := range report.Files {
			ctx.UI.Successf("Wrote %d jobs to %s", file.Count, ctx.UI.LinkText(file.Path))
		}
		if len(summary.BySource) > 0 {
			ctx.UI.Headerf("Jobs by source")
			rows := make([][2]string, 0, len(summary.BySource))
			for _, name := range summary.Sources() {
				rows = append(rows, [2]string{name, fmt.Sprintf("%d", summary.BySource[name])})
			}
			ctx.UI.Table(rows)
		}
	}

	if out.Preview != "" && len(report.Jobs) > 0 {
		if err := writePreview(ctx, report.Jobs, out); err != nil {
			return err
		}
	}

	if ctx.Err != nil {
		_, _ = fmt.Fprintln(ctx.Err, formatRunSummary(report))
	}
	return nil
}

func formatRunSummary(report runReport) string {
	return "summary: " + export.Summarize(report.Jobs).String()
}

type jsonReport struct {
	Scraped  int            `json:"scraped"`
	New      int            `json:"new"`
	Seen     int            `json:"already_seen"`
	Files    []jsonFile     `json:"files"`
	BySource map[string]int `json:"by_source"`
	Errors   []string       `json:"errors,omitempty"`
}

type jsonFile struct {
	Format string `json:"format"`
	Path   string `json:"path"`
	Count  int    `json:"count"`
}

func writeJSONReport(w io.Writer, report runReport, summary export.Summary) error {
	payload := jsonReport{
		Scraped:  report.Scraped,
		New:      len(report.Jobs),
		Files:    []jsonFile{},
		BySource: summary.BySource,
	}
	if report.Dedup != nil {
		payload.Seen = report.Dedup.Seen
	}
	for _, file := range report.Files {
		payload.Files = append(payload.Files, jsonFile{Format: string(file.Format), Path: file.Path, Count: file.Count})
	}
	for _, failure := range report.Failures {
		payload.Errors = append(payload.Errors, fmt.Sprintf("%s: %v", failure.site, failure.err))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePreview(ctx *Context, jobs []models.Job, out OutputOptions) error {
	sorted := append([]models.Job(nil), jobs...)
	record.SortByDatePosted(sorted)

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	hyperlinks := colorEnabled && isTTY(ctx.Out)
	linkStyle := export.LinkStyleFull
	if strings.EqualFold(out.Links, string(export.LinkStyleShort)) {
		linkStyle = export.LinkStyleShort
	}
	format := export.FormatTable
	if out.Preview == string(export.FormatMarkdown) {
		format = export.FormatMarkdown
	}
	return export.WriteJobs(ctx.Out, sorted, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   hyperlinks,
		LinkStyle:    linkStyle,
	})
}

func resolveFormats(flagValue string, configured []string) ([]export.Format, error) {
	values := configured
	if strings.TrimSpace(flagValue) != "" {
		values = strings.Split(flagValue, ",")
	}
	formats := make([]export.Format, 0, len(values))
	seenFormats := map[export.Format]struct{}{}
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		format, err := export.ParseFormat(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seenFormats[format]; ok {
			continue
		}
		seenFormats[format] = struct{}{}
		formats = append(formats, format)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("at least one export format is required")
	}
	return formats, nil
}

func resolveMaxJobs(flagValue int, configured int) int {
	if flagValue < 0 {
		return configured
	}
	return flagValue
}

func resolveOutputDir(flagValue string, configured string) string {
	dir := configured
	if strings.TrimSpace(flagValue) != "" {
		dir = flagValue
	}
	return filepath.Clean(dir)
}

func selectScrapers(registry map[string]scraper.Scraper, sitesArg string) ([]scraper.Scraper, error) {
	requested := scraper.NormalizeSites(strings.Split(sitesArg, ","))
	if len(requested) == 0 || (len(requested) == 1 && requested[0] == "all") {
		requested = make([]string, 0, len(registry))
		for site := range registry {
			requested = append(requested, site)
		}
		sort.Strings(requested)
	}

	requested = expandAliases(requested)

	selected := make([]scraper.Scraper, 0, len(requested))
	picked := map[string]struct{}{}
	for _, site := range requested {
		sc, ok := registry[site]
		if !ok {
			return nil, fmt.Errorf("unknown site: %s (available: %s)", site, strings.Join(scraper.Sites(), ", "))
		}
		if _, dup := picked[site]; dup {
			continue
		}
		picked[site] = struct{}{}
		selected = append(selected, sc)
	}

	return selected, nil
}

func expandAliases(sites []string) []string {
	out := make([]string, 0, len(sites))
	for _, site := range sites {
		switch site {
		case "rnc", "remotenurseconnection", "remotenurseconnection.com":
			out = append(out, scraper.SiteRemoteNurse)
		case "fern", "nursefern.com", "app.nursefern.com":
			out = append(out, scraper.SiteNurseFern)
		default:
			out = append(out, site)
		}
	}
	return out
}

// runScrapers runs every scraper concurrently and waits for all of them. A
// failing site is reported but does not affect the others.
func runScrapers(c context.Context, scrapers []scraper.Scraper, params models.ScrapeParams) ([]scraperResult, []scraperFailure) {
	var (
		wg      sync.WaitGroup
		results = make(chan scraperResult, len(scrapers))
	)

	for _, sc := range scrapers {
		wg.Add(1)
		go func(sc scraper.Scraper) {
			defer wg.Done()
			raws, err := sc.Scrape(c, params)
			results <- scraperResult{site: sc.Name(), source: sc.Source(), raws: raws, err: err}
		}(sc)
	}

	wg.Wait()
	close(results)

	var (
		collected []scraperResult
		failures  []scraperFailure
	)
	for res := range results {
		if res.err != nil {
			failures = append(failures, scraperFailure{site: res.site, err: res.err})
		}
		if len(res.raws) > 0 {
			collected = append(collected, res)
		}
	}

	sort.SliceStable(collected, func(i, j int) bool { return collected[i].site < collected[j].site })
	sortScraperFailures(failures)
	return collected, failures
}

func sortScraperFailures(failures []scraperFailure) {
	sort.SliceStable(failures, func(i, j int) bool {
		return strings.ToLower(failures[i].site) < strings.ToLower(failures[j].site)
	})
}

type scraperResult struct {
	site   string
	source string
	raws   []models.RawJob
	err    error
}

type scraperFailure struct {
	site string
	err  error
}

func reportScrapers(ctx *Context, results []scraperResult, failures []scraperFailure) {
	for _, failure := range failures {
		ctx.Logger.Error().Err(failure.err).Str("site", failure.site).Msg("scraper failed")
	}
	if ctx.UI == nil || ctx.JSONOutput {
		return
	}
	for _, res := range results {
		if res.err == nil {
			ctx.UI.SiteResult(res.site, len(res.raws), nil)
		}
	}
	for _, failure := range failures {
		ctx.UI.SiteResult(failure.site, 0, failure.err)
	}
}

func logProxyBans(ctx *Context, rotator *network.Rotator) {
	for _, state := range rotator.Snapshot() {
		if state.Bans == 0 {
			continue
		}
		event := ctx.Logger.Warn().Str("proxy", state.Proxy).Int("bans", state.Bans)
		if !state.BannedUntil.IsZero() {
			event = event.Time("banned_until", state.BannedUntil)
		}
		event.Msg("proxy benched during run")
	}
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startIndicator(ctx *Context, label string) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				frame := frames[index%len(frames)]
				fmt.Fprintf(ctx.Err, "\r\033[2K%s... %ds %s", label, seconds, frame)
				index++
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

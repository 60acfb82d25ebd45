package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/nursejobs/internal/clean"
	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// utf8BOM lets spreadsheet tools detect the encoding of the CSV export.
const utf8BOM = "\xEF\xBB\xBF"

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

// ParseFormat accepts the file formats written by Exporter.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv or json)", value)
	}
}

// WriteJobs renders jobs to w. Table and markdown are terminal previews; CSV
// and JSON match the exported files byte for byte.
func WriteJobs(w io.Writer, jobs []models.Job, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, jobs)
	case FormatCSV:
		return WriteCSV(w, jobs)
	case FormatMarkdown:
		return writeMarkdown(w, jobs)
	default:
		return writeTable(w, jobs, opts)
	}
}

// WriteJSON writes an indented array with every field present and Unicode
// left as is.
func WriteJSON(w io.Writer, jobs []models.Job) error {
	if jobs == nil {
		jobs = []models.Job{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jobs)
}

// WriteCSV writes a BOM, the header row and one ASCII-only row per job.
func WriteCSV(w io.Writer, jobs []models.Job) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	writer.UseCRLF = true
	if err := writer.Write(models.Columns); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := writer.Write(csvRow(job)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvRow(job models.Job) []string {
	row := job.Row()
	for i, value := range row {
		row[i] = clean.ASCII(value)
	}
	return row
}

func writeTable(w io.Writer, jobs []models.Job, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, job := range jobs {
		fmt.Fprintln(tw, strings.Join(tableRow(job, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, jobs []models.Job) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, job := range jobs {
		urlLine := "  Apply: -"
		if link := safe(job.ApplyLink); link != "" {
			urlLine = fmt.Sprintf("  Apply: [Open listing](<%s>)", link)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", dash(job.JobTitle), dash(job.Company)),
			fmt.Sprintf("  Location: %s", dash(job.Location)),
			fmt.Sprintf("  Source: %s", dash(job.SourceSite)),
			urlLine,
		}
		optional := []struct{ label, value string }{
			{"Remote", job.RemoteStatus},
			{"Type", job.EmploymentType},
			{"Schedule", job.Schedule},
			{"License", job.LicenseRequirements},
			{"Salary", job.SalaryRange},
			{"Specialties", job.Specialties},
			{"Posted", job.DatePosted},
		}
		for _, field := range optional {
			if value := safe(field.value); value != "" {
				lines = append(lines, fmt.Sprintf("  %s: %s", field.label, value))
			}
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func dash(value string) string {
	if value = safe(value); value == "" {
		return "-"
	}
	return value
}

func tableHeader() []string {
	return []string{
		"source",
		"posted",
		"title",
		"company",
		"apply",
	}
}

func tableRow(job models.Job, output *termenv.Output, opts WriteOptions) []string {
	const linkColor = "#87CEEB"

	link := safe(job.ApplyLink)
	displayURL := "-"
	if link != "" {
		displayURL = link
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(link)
		}
		if opts.ColorEnabled {
			displayURL = output.String(displayURL).Foreground(output.Color(linkColor)).String()
		}
		if opts.Hyperlinks {
			displayURL = hyperlink(link, displayURL)
		}
	}
	return []string{
		dash(job.SourceSite),
		dash(job.DatePosted),
		dash(job.JobTitle),
		dash(job.Company),
		displayURL,
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}

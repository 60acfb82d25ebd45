package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/jimezsa/nursejobs/internal/record"
	"github.com/rs/zerolog"
)

const fileDateLayout = "2006-01-02"

// Result describes one written export file.
type Result struct {
	Format Format
	Path   string
	Count  int
}

// Exporter writes the dated export files under Dir.
type Exporter struct {
	Dir    string
	Now    func() time.Time
	Logger zerolog.Logger
}

func NewExporter(dir string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		Dir:    dir,
		Now:    time.Now,
		Logger: logger.With().Str("component", "export").Logger(),
	}
}

// FileName returns jobs_<YYYY-MM-DD>.<ext> for the given day.
func FileName(format Format, day time.Time) string {
	return fmt.Sprintf("jobs_%s.%s", day.Format(fileDateLayout), format)
}

// Export writes jobs newest first. An empty list writes nothing. A file for
// the same day is overwritten.
func (e *Exporter) Export(jobs []models.Job, format Format) (Result, error) {
	result := Result{Format: format}
	if format != FormatCSV && format != FormatJSON {
		return result, fmt.Errorf("unsupported export format %q", format)
	}
	if len(jobs) == 0 {
		e.Logger.Info().Str("format", string(format)).Msg("no jobs to export")
		return result, nil
	}

	sorted := append([]models.Job(nil), jobs...)
	record.SortByDatePosted(sorted)

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return result, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(e.Dir, FileName(format, e.now()))
	if err := writeFile(path, sorted, format); err != nil {
		return result, fmt.Errorf("write %s: %w", path, err)
	}

	result.Path = path
	result.Count = len(sorted)
	e.Logger.Info().Str("path", path).Int("count", result.Count).Msg("exported jobs")
	return result, nil
}

func writeFile(path string, jobs []models.Job, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(file)

	switch format {
	case FormatCSV:
		err = WriteCSV(buf, jobs)
	default:
		err = WriteJSON(buf, jobs)
	}
	if err == nil {
		err = buf.Flush()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

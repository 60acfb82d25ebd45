package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jimezsa/nursejobs/internal/models"
)

const unknownSource = "Unknown"

// Summary counts jobs per source site.
type Summary struct {
	Total    int
	BySource map[string]int
}

func Summarize(jobs []models.Job) Summary {
	summary := Summary{Total: len(jobs), BySource: map[string]int{}}
	for _, job := range jobs {
		source := strings.TrimSpace(job.SourceSite)
		if source == "" {
			source = unknownSource
		}
		summary.BySource[source]++
	}
	return summary
}

// Sources returns the source names in lexical order.
func (s Summary) Sources() []string {
	names := make([]string, 0, len(s.BySource))
	for name := range s.BySource {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Summary) String() string {
	if len(s.BySource) == 0 {
		return fmt.Sprintf("total=%d by_source=none", s.Total)
	}
	parts := make([]string, 0, len(s.BySource))
	for _, name := range s.Sources() {
		parts = append(parts, fmt.Sprintf("%s:%d", name, s.BySource[name]))
	}
	return fmt.Sprintf("total=%d by_source=%s", s.Total, strings.Join(parts, ","))
}

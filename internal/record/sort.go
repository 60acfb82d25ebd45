package record

import (
	"sort"
	"time"

	"github.com/jimezsa/nursejobs/internal/fields"
	"github.com/jimezsa/nursejobs/internal/models"
)

// SortByDatePosted orders jobs newest first, in place. The key is re-parsed
// from the formatted date_posted; values that do not parse sort last.
func SortByDatePosted(jobs []models.Job) {
	keys := make([]time.Time, len(jobs))
	for i, job := range jobs {
		keys[i] = sortKey(job.DatePosted)
	}
	sort.Stable(byDate{jobs: jobs, keys: keys})
}

func sortKey(value string) time.Time {
	result := fields.ParseDate(value)
	if !result.Parsed {
		return time.Time{}
	}
	return result.Time
}

type byDate struct {
	jobs []models.Job
	keys []time.Time
}

func (s byDate) Len() int { return len(s.jobs) }

func (s byDate) Less(i, j int) bool { return s.keys[i].After(s.keys[j]) }

func (s byDate) Swap(i, j int) {
	s.jobs[i], s.jobs[j] = s.jobs[j], s.jobs[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}

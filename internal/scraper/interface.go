package scraper

import (
	"context"
	"errors"

	"github.com/jimezsa/nursejobs/internal/models"
)

var (
	// ErrChallenge means the site answered with an anti-bot interstitial
	// instead of content.
	ErrChallenge = errors.New("blocked by challenge page")
	// ErrNoAPI means none of the known data endpoints answered.
	ErrNoAPI = errors.New("no data API endpoint responded")
)

// Scraper fetches raw postings from one site.
type Scraper interface {
	// Name is the registry key used on the command line.
	Name() string
	// Source is the human label stamped into source_site.
	Source() string
	Scrape(ctx context.Context, params models.ScrapeParams) ([]models.RawJob, error)
}

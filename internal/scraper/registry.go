package scraper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jimezsa/nursejobs/internal/network"
	"github.com/rs/zerolog"
)

const (
	SiteRemoteNurse = "remotenurse"
	SiteNurseFern   = "nursefern"
)

// DefaultURLs are the entry points used when config does not override them.
var DefaultURLs = map[string]string{
	SiteRemoteNurse: "https://remotenurseconnection.com/remote-nursing-job-board/",
	SiteNurseFern:   "https://app.nursefern.com/",
}

// Registry builds every known scraper, each with its own client so cookies
// and pacing stay per site.
func Registry(opts network.ClientOptions, urls map[string]string, logger zerolog.Logger) (map[string]Scraper, error) {
	makeClient := func() (*network.Client, error) {
		return network.NewClient(opts)
	}
	urlFor := func(site string) string {
		if value := strings.TrimSpace(urls[site]); value != "" {
			return value
		}
		return DefaultURLs[site]
	}

	remoteNurse, err := makeClient()
	if err != nil {
		return nil, fmt.Errorf("%s client: %w", SiteRemoteNurse, err)
	}
	nurseFern, err := makeClient()
	if err != nil {
		return nil, fmt.Errorf("%s client: %w", SiteNurseFern, err)
	}

	return map[string]Scraper{
		SiteRemoteNurse: NewRemoteNurse(remoteNurse, urlFor(SiteRemoteNurse), logger),
		SiteNurseFern:   NewNurseFern(nurseFern, urlFor(SiteNurseFern), logger),
	}, nil
}

// Sites lists the registry keys in a stable order.
func Sites() []string {
	sites := make([]string, 0, len(DefaultURLs))
	for site := range DefaultURLs {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}

func NormalizeSites(sites []string) []string {
	out := make([]string, 0, len(sites))
	for _, site := range sites {
		site = strings.ToLower(strings.TrimSpace(site))
		if site == "" {
			continue
		}
		site = strings.TrimPrefix(site, "www.")
		out = append(out, site)
	}
	return out
}

func nowRFC3339(now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	return now().Format(time.RFC3339)
}

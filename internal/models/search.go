package models

import "time"

// ScrapeParams captures the runtime limits handed to every site scraper.
type ScrapeParams struct {
	MaxJobs       int
	RetryAttempts int
	RetryDelay    time.Duration
}

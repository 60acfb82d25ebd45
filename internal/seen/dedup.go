package seen

import (
	"fmt"
	"time"

	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/rs/zerolog"
)

// Stats captures the outcome of a dedup pass.
type Stats struct {
	Total      int
	New        int
	Seen       int
	LedgerSize int
	Saved      bool
}

// Deduplicator filters jobs against the ledger held by its Store.
type Deduplicator struct {
	Store  Store
	Logger zerolog.Logger
	Now    func() time.Time
}

func NewDeduplicator(store Store, logger zerolog.Logger) *Deduplicator {
	return &Deduplicator{
		Store:  store,
		Logger: logger.With().Str("component", "dedup").Logger(),
		Now:    time.Now,
	}
}

// FilterNew keeps jobs whose identity is neither in the ledger nor earlier in
// the batch. The ledger is rewritten only when at least one job is new; a
// failed write is returned because losing it would resurface old jobs.
func (d *Deduplicator) FilterNew(jobs []models.Job) ([]models.Job, Stats, error) {
	ledger := d.load()
	fresh, added, stats := diff(jobs, ledger)

	if len(added) == 0 {
		d.logStats(stats)
		return fresh, stats, nil
	}

	ledger.Hashes = append(ledger.Hashes, added...)
	updated := d.now().Format(time.RFC3339)
	ledger.LastUpdated = &updated
	if err := d.Store.Save(ledger); err != nil {
		return nil, stats, fmt.Errorf("save seen ledger: %w", err)
	}
	stats.LedgerSize = len(ledger.Hashes)
	stats.Saved = true
	d.logStats(stats)
	return fresh, stats, nil
}

// Unseen reports what FilterNew would keep without touching the ledger.
func (d *Deduplicator) Unseen(jobs []models.Job) ([]models.Job, Stats) {
	fresh, _, stats := diff(jobs, d.load())
	return fresh, stats
}

// Reset deletes the ledger so the next run starts empty.
func (d *Deduplicator) Reset() error {
	if err := d.Store.Reset(); err != nil {
		return fmt.Errorf("reset seen ledger: %w", err)
	}
	d.Logger.Info().Msg("seen ledger reset")
	return nil
}

// Status returns the stored ledger as-is, surfacing read errors.
func (d *Deduplicator) Status() (Ledger, error) {
	return d.Store.Load()
}

func diff(jobs []models.Job, ledger Ledger) ([]models.Job, []string, Stats) {
	stats := Stats{Total: len(jobs), LedgerSize: len(ledger.Hashes)}

	known := make(map[string]struct{}, len(ledger.Hashes)+len(jobs))
	for _, hash := range ledger.Hashes {
		known[hash] = struct{}{}
	}

	fresh := make([]models.Job, 0, len(jobs))
	var added []string
	for _, job := range jobs {
		id := Identity(job)
		if _, exists := known[id]; exists {
			stats.Seen++
			continue
		}
		known[id] = struct{}{}
		added = append(added, id)
		fresh = append(fresh, job)
	}

	stats.New = len(fresh)
	return fresh, added, stats
}

func (d *Deduplicator) load() Ledger {
	ledger, err := d.Store.Load()
	if err != nil {
		d.Logger.Warn().Err(err).Msg("seen ledger unreadable, starting empty")
		return emptyLedger()
	}
	return ledger
}

func (d *Deduplicator) logStats(stats Stats) {
	d.Logger.Info().
		Int("total", stats.Total).
		Int("new", stats.New).
		Int("already_seen", stats.Seen).
		Bool("ledger_saved", stats.Saved).
		Msg("dedup complete")
}

func (d *Deduplicator) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

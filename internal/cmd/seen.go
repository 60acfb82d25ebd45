package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/jimezsa/nursejobs/internal/seen"
)

type SeenCmd struct {
	Status SeenStatusCmd `cmd:"" help:"Show the seen ledger size and last update."`
	Reset  SeenResetCmd  `cmd:"" help:"Delete the seen ledger so every job counts as new."`
	Check  SeenCheckCmd  `cmd:"" help:"Count unseen jobs in an exported JSON file without updating the ledger."`
}

type SeenStatusCmd struct {
	OutputDir string `name:"output-dir" short:"o" help:"Directory holding the seen ledger." env:"NURSEJOBS_OUTPUT_DIR"`
}

type SeenResetCmd struct {
	OutputDir string `name:"output-dir" short:"o" help:"Directory holding the seen ledger." env:"NURSEJOBS_OUTPUT_DIR"`
}

type SeenCheckCmd struct {
	Input     string `name:"input" required:"" help:"Path to a jobs JSON file."`
	OutputDir string `name:"output-dir" short:"o" help:"Directory holding the seen ledger." env:"NURSEJOBS_OUTPUT_DIR"`
}

func (c *SeenStatusCmd) Run(ctx *Context) error {
	store := seen.NewFileStore(resolveOutputDir(c.OutputDir, ctx.Config.OutputDir))
	ledger, err := seen.NewDeduplicator(store, ctx.Logger).Status()
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	updated := "never"
	if ledger.LastUpdated != nil {
		updated = *ledger.LastUpdated
	}
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"path":         store.Path,
			"hashes":       len(ledger.Hashes),
			"last_updated": ledger.LastUpdated,
		})
	}
	_, err = fmt.Fprintf(ctx.Out, "path=%s hashes=%d last_updated=%s\n", store.Path, len(ledger.Hashes), updated)
	return err
}

func (c *SeenResetCmd) Run(ctx *Context) error {
	store := seen.NewFileStore(resolveOutputDir(c.OutputDir, ctx.Config.OutputDir))
	if err := seen.NewDeduplicator(store, ctx.Logger).Reset(); err != nil {
		return err
	}
	if ctx.UI != nil {
		ctx.UI.Successf("Cleared %s", store.Path)
	}
	return nil
}

func (c *SeenCheckCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("read --input: %w", err)
	}
	var jobs []models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("parse --input: %w", err)
	}

	store := seen.NewFileStore(resolveOutputDir(c.OutputDir, ctx.Config.OutputDir))
	_, stats := seen.NewDeduplicator(store, ctx.Logger).Unseen(jobs)
	_, err = fmt.Fprintf(ctx.Out, "total=%d unseen=%d already_seen=%d\n", stats.Total, stats.New, stats.Seen)
	return err
}

package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jimezsa/nursejobs/internal/config"
)

type ConfigCmd struct {
	Init InitConfigCmd `cmd:"" help:"Write default config and proxies files."`
	Path PathConfigCmd `cmd:"" help:"Print config directory."`
	Show ShowConfigCmd `cmd:"" help:"Print the effective configuration."`
}

type InitConfigCmd struct{}

type PathConfigCmd struct{}

type ShowConfigCmd struct{}

func (c *InitConfigCmd) Run(ctx *Context) error {
	paths, err := config.Init()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		ctx.UI.Infof("Config already initialized at %s", ctx.ConfigDir)
		return nil
	}
	ctx.UI.Infof("Created: %s", strings.Join(paths, ", "))
	return nil
}

func (c *PathConfigCmd) Run(ctx *Context) error {
	_, err := fmt.Fprintln(ctx.Out, ctx.ConfigDir)
	return err
}

// Run prints the merged file, env and default settings.
func (c *ShowConfigCmd) Run(ctx *Context) error {
	if ctx.JSONOutput || ctx.UI == nil {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(ctx.Config)
	}
	ctx.UI.Table(configRows(ctx.Config))
	return nil
}

func configRows(cfg config.Config) [][2]string {
	rows := [][2]string{
		{"output_dir", cfg.OutputDir},
		{"max_jobs_per_site", strconv.Itoa(cfg.MaxJobsPerSite)},
		{"retry_attempts", strconv.Itoa(cfg.RetryAttempts)},
		{"retry_delay", cfg.RetryDelay().String()},
		{"request_interval", cfg.RequestInterval().String()},
		{"schedule_at", cfg.ScheduleAt},
		{"formats", strings.Join(cfg.Formats, ",")},
	}
	sites := make([]string, 0, len(cfg.URLs))
	for site := range cfg.URLs {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	for _, site := range sites {
		rows = append(rows, [2]string{"url." + site, cfg.URLs[site]})
	}
	return rows
}

package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"Plain output; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version  VersionCmd  `cmd:"" help:"Print version."`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration."`
	Run      RunCmd      `cmd:"" default:"withargs" help:"Scrape, dedupe and export new jobs once."`
	Schedule ScheduleCmd `cmd:"" help:"Run now, then daily at a fixed time."`
	Format   FormatCmd   `cmd:"" help:"Normalize, dedupe and export raw jobs from a JSON file."`
	Seen     SeenCmd     `cmd:"" help:"Seen jobs ledger utilities."`
	Proxies  ProxiesCmd  `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}

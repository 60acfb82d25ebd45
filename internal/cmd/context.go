package cmd

import (
	"context"
	"io"
	"time"

	"github.com/jimezsa/nursejobs/internal/config"
	"github.com/jimezsa/nursejobs/internal/network"
	"github.com/jimezsa/nursejobs/internal/scraper"
	"github.com/jimezsa/nursejobs/internal/ui"
	"github.com/rs/zerolog"
)

// RegistryFunc builds the site scrapers for one run.
type RegistryFunc func(opts network.ClientOptions, urls map[string]string, logger zerolog.Logger) (map[string]scraper.Scraper, error)

type Context struct {
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	Config     config.Config
	ConfigDir  string
	Logger     zerolog.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Version    string
	ColorMode  ui.ColorMode

	// Ctx is canceled on interrupt. Registry and Now default to
	// scraper.Registry and time.Now.
	Ctx      context.Context
	Registry RegistryFunc
	Now      func() time.Time
}

func (c *Context) baseContext() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) registry() RegistryFunc {
	if c.Registry == nil {
		return scraper.Registry
	}
	return c.Registry
}

func (c *Context) clock() func() time.Time {
	if c.Now == nil {
		return time.Now
	}
	return c.Now
}

package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/muesli/termenv"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

const LinkColor = "#87CEEB"

// ANSI palette indexes used for status lines.
const (
	colorRed    = "1"
	colorGreen  = "2"
	colorYellow = "3"
	colorBlue   = "4"
)

// UI writes human status lines. Errors and warnings go to Err so stdout stays
// clean for --json.
type UI struct {
	Out          io.Writer
	Err          io.Writer
	Output       *termenv.Output
	ErrOutput    *termenv.Output
	ColorEnabled bool
}

func New(out io.Writer, err io.Writer, mode ColorMode, disableColor bool) *UI {
	output := termenv.NewOutput(out)
	return &UI{
		Out:          out,
		Err:          err,
		Output:       output,
		ErrOutput:    termenv.NewOutput(err),
		ColorEnabled: colorAllowed(output, mode, disableColor),
	}
}

func colorAllowed(output *termenv.Output, mode ColorMode, disableColor bool) bool {
	if disableColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return output.ColorProfile() != termenv.Ascii
	}
}

// style decorates a line when colors are on.
type style func(termenv.Style, *termenv.Output) termenv.Style

func foreground(code string) style {
	return func(s termenv.Style, o *termenv.Output) termenv.Style {
		return s.Foreground(o.Color(code))
	}
}

func bold(s termenv.Style, _ *termenv.Output) termenv.Style {
	return s.Bold()
}

func (u *UI) line(w io.Writer, output *termenv.Output, decorate style, format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if u.ColorEnabled && output != nil {
		msg = decorate(output.String(msg), output).String()
	}
	fmt.Fprintln(w, msg)
}

func (u *UI) Errorf(format string, args ...any) {
	u.line(u.Err, u.ErrOutput, foreground(colorRed), format, args...)
}

func (u *UI) Warnf(format string, args ...any) {
	u.line(u.Err, u.ErrOutput, foreground(colorYellow), format, args...)
}

func (u *UI) Infof(format string, args ...any) {
	u.line(u.Out, u.Output, foreground(colorBlue), format, args...)
}

func (u *UI) Successf(format string, args ...any) {
	u.line(u.Out, u.Output, foreground(colorGreen), format, args...)
}

func (u *UI) Headerf(format string, args ...any) {
	u.line(u.Out, u.Output, bold, format, args...)
}

// SiteResult prints one scraper outcome: a green count or a red failure.
func (u *UI) SiteResult(site string, count int, err error) {
	if err != nil {
		u.line(u.Err, u.ErrOutput, foreground(colorRed), "  %s: failed: %v", site, err)
		return
	}
	u.line(u.Out, u.Output, foreground(colorGreen), "  %s: %d jobs", site, count)
}

// Table prints label/value rows aligned in two columns.
func (u *UI) Table(rows [][2]string) {
	tw := tabwriter.NewWriter(u.Out, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
}

func ColorizeLink(output *termenv.Output, enabled bool, text string) string {
	if !enabled || output == nil {
		return text
	}
	return output.String(text).Foreground(output.Color(LinkColor)).String()
}

func (u *UI) LinkText(text string) string {
	return ColorizeLink(u.Output, u.ColorEnabled, text)
}

func NormalizeColorMode(value string) ColorMode {
	switch ColorMode(strings.ToLower(strings.TrimSpace(value))) {
	case ColorAlways:
		return ColorAlways
	case ColorNever:
		return ColorNever
	default:
		return ColorAuto
	}
}

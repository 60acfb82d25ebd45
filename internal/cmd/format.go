package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jimezsa/nursejobs/internal/models"
	"github.com/jimezsa/nursejobs/internal/record"
)

// FormatCmd runs the offline half of the pipeline over saved raw jobs.
type FormatCmd struct {
	Input  string `name:"input" short:"i" required:"" help:"Path to a JSON array of raw job objects."`
	Source string `help:"Source site label for jobs that carry none."`
	OutputOptions
}

func (f *FormatCmd) Run(ctx *Context) error {
	raws, err := readRawJobs(f.Input)
	if err != nil {
		return fmt.Errorf("read --input: %w", err)
	}
	formats, err := resolveFormats(f.Formats, ctx.Config.Formats)
	if err != nil {
		return err
	}

	builder := record.NewBuilder()
	builder.Now = ctx.clock()
	builder.Logger = ctx.Logger.With().Str("component", "record").Logger()
	jobs := builder.BuildAll(raws, f.Source)

	_, err = processJobs(ctx, jobs, f.OutputOptions, formats)
	return err
}

func readRawJobs(path string) ([]models.RawJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raws []models.RawJob
	if err := dec.Decode(&raws); err != nil {
		return nil, err
	}
	return raws, nil
}

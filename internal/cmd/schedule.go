package cmd

import (
	"fmt"
	"time"

	"github.com/jimezsa/nursejobs/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type ScheduleCmd struct {
	At string `help:"Daily run time, 24-hour HH:MM (default from config)." env:"NURSEJOBS_SCHEDULE"`
	ScrapeOptions
	OutputOptions
}

func (s *ScheduleCmd) Run(ctx *Context) error {
	at := s.At
	if at == "" {
		at = ctx.Config.ScheduleAt
	}
	spec, err := dailySpec(at)
	if err != nil {
		return err
	}

	base := ctx.baseContext()
	job := func() {
		started := ctx.clock()()
		ctx.Logger.Info().Time("started", started).Msg("scheduled run")
		if _, err := runPipeline(base, ctx, s.ScrapeOptions, s.OutputOptions); err != nil {
			ctx.Logger.Error().Err(err).Msg("scheduled run failed")
			if ctx.UI != nil {
				ctx.UI.Errorf("run failed: %v", err)
			}
		}
	}

	logger := cronLogger{logger: ctx.Logger.With().Str("component", "scheduler").Logger()}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := scheduler.AddFunc(spec, job); err != nil {
		return fmt.Errorf("schedule %q: %w", at, err)
	}

	if ctx.UI != nil {
		ctx.UI.Infof("Running now, then daily at %s. Press Ctrl+C to stop.", at)
	}
	job()

	scheduler.Start()
	if next, err := nextRun(spec, ctx.clock()()); err == nil {
		ctx.Logger.Info().Time("next_run", next).Msg("scheduler started")
	}

	<-base.Done()
	stopped := scheduler.Stop()
	<-stopped.Done()
	return nil
}

// dailySpec converts HH:MM into a standard five-field cron expression.
func dailySpec(at string) (string, error) {
	hour, minute, err := config.ParseClock(at)
	if err != nil {
		return "", fmt.Errorf("--at: %w", err)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// nextRun reports when spec fires after now.
func nextRun(spec string, now time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(now), nil
}

// cronLogger routes cron's logging into zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

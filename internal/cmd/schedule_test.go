package cmd

import (
	"context"
	"testing"
	"time"
)

func TestDailySpec(t *testing.T) {
	spec, err := dailySpec("06:30")
	if err != nil {
		t.Fatalf("dailySpec() error = %v", err)
	}
	if spec != "30 6 * * *" {
		t.Fatalf("dailySpec() = %q", spec)
	}
	if _, err := dailySpec("6pm"); err == nil {
		t.Fatalf("expected error for 6pm")
	}
}

func TestNextRun(t *testing.T) {
	now := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)
	next, err := nextRun("30 6 * * *", now)
	if err != nil {
		t.Fatalf("nextRun() error = %v", err)
	}
	want := time.Date(2024, 3, 11, 6, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("nextRun() = %v, want %v", next, want)
	}
}

func TestScheduleRunsImmediatelyAndStops(t *testing.T) {
	ctx, _, errOut := testContext(t)
	base, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.Ctx = base

	cmd := &ScheduleCmd{At: "23:59", ScrapeOptions: ScrapeOptions{Sites: "nursefern", MaxJobs: -1}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if errOut.Len() == 0 {
		t.Fatalf("expected the immediate run to print a summary")
	}
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/flight-comb/app/pipeline"
)

// Runner executes one pipeline run under the given run ID.
type Runner interface {
	Run(ctx context.Context, runID string) (pipeline.Report, error)
}

type LoadFlightsTask struct {
	Task
	runner  Runner
	history *History
}

func NewLoadFlightsTask(trigger string, runner Runner, history *History) *LoadFlightsTask {
	return &LoadFlightsTask{
		Task:    NewTask(TaskTypeLoadFlights, trigger),
		runner:  runner,
		history: history,
	}
}

func (t *LoadFlightsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	report, err := t.runner.Run(ctx, t.ID)
	t.history.Record(t.Trigger, report, err)
	if err != nil {
		return fmt.Errorf("failed to load flights: %w", err)
	}

	slog.Info("Flights loaded", "run_id", t.ID, "trigger", t.Trigger,
		"fetched", report.Fetched, "kept", report.Stats.Kept, "duration", report.Duration())

	return nil
}

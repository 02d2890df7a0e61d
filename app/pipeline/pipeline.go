package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/flight-comb/app/aviation"
	"github.com/lysyi3m/flight-comb/app/flights"
	"github.com/lysyi3m/flight-comb/app/metrics"
	"github.com/lysyi3m/flight-comb/app/sink"
)

type Fetcher interface {
	Pages(ctx context.Context, fn aviation.PageHandler) (int, error)
}

type Normalizer interface {
	Normalize(page []aviation.RawFlight) ([]flights.Event, flights.Stats, error)
}

// SinkReport is the outcome of one sink for one run.
type SinkReport struct {
	Name   string
	Result sink.Result
	Err    error
}

type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Requests   int
	Fetched    int
	Stats      flights.Stats
	Sinks      []SinkReport
}

func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Manager) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline runs fetch, normalize and push as one batch.
type Pipeline struct {
	fetcher    Fetcher
	normalizer Normalizer
	sinks      []sink.Sink
	metrics    *metrics.Manager
}

func New(fetcher Fetcher, normalizer Normalizer, sinks []sink.Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		sinks:      sinks,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Pipeline) SinkNames() []string {
	names := make([]string, len(p.sinks))
	for i, s := range p.sinks {
		names[i] = s.Name()
	}
	return names
}

// Run fetches every page, normalizes it and hands the accumulated batch to
// each sink. Sinks only see the batch when every page succeeded. A failing
// sink does not stop the others but fails the run.
func (p *Pipeline) Run(ctx context.Context, runID string) (Report, error) {
	report := Report{RunID: runID, StartedAt: time.Now()}

	events, err := p.collect(ctx, &report)
	if err != nil {
		report.FinishedAt = time.Now()
		p.metrics.ObserveRun(false, report.Duration())
		return report, err
	}

	slog.Info("Retrieved flight records", "run_id", runID, "count", len(events),
		"fetched", report.Fetched, "requests", report.Requests)
	if report.Stats.SkippedAirline > 0 || report.Stats.SkippedArrival > 0 {
		slog.Debug("Records skipped", "run_id", runID,
			"no_airline", report.Stats.SkippedAirline, "no_actual_arrival", report.Stats.SkippedArrival)
	}

	var errs []error
	for _, s := range p.sinks {
		res, err := s.Push(ctx, events)
		report.Sinks = append(report.Sinks, SinkReport{Name: s.Name(), Result: res, Err: err})
		p.metrics.ObserveSink(s.Name(), res.Written, res.Skipped, err)

		if err != nil {
			slog.Error("Sink push failed", "run_id", runID, "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("sink: %s: %w", s.Name(), err))
			continue
		}

		slog.Info("Sink push completed", "run_id", runID, "sink", s.Name(),
			"written", res.Written, "skipped", res.Skipped)
	}

	report.FinishedAt = time.Now()
	err = errors.Join(errs...)
	p.metrics.ObserveRun(err == nil, report.Duration())

	return report, err
}

func (p *Pipeline) collect(ctx context.Context, report *Report) ([]flights.Event, error) {
	var events []flights.Event

	requests, err := p.fetcher.Pages(ctx, func(offset int, page []aviation.RawFlight) error {
		report.Fetched += len(page)
		p.metrics.ObservePage(len(page))

		batch, stats, err := p.normalizer.Normalize(page)
		if err != nil {
			return fmt.Errorf("failed to normalize page at offset %d: %w", offset, err)
		}

		report.Stats.Add(stats)
		p.metrics.ObserveNormalized(stats.Kept, stats.SkippedAirline, stats.SkippedArrival)
		events = append(events, batch...)
		return nil
	})
	report.Requests = requests
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flights: %w", err)
	}

	return events, nil
}

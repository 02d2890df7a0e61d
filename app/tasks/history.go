package tasks

import (
	"sync"
	"time"

	"github.com/lysyi3m/flight-comb/app/pipeline"
)

type SinkStatus struct {
	Name    string `json:"name"`
	Written int    `json:"written"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

type RunStatus struct {
	RunID          string       `json:"run_id"`
	Trigger        string       `json:"trigger"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	Success        bool         `json:"success"`
	Error          string       `json:"error,omitempty"`
	Requests       int          `json:"requests"`
	Fetched        int          `json:"fetched"`
	Kept           int          `json:"kept"`
	SkippedAirline int          `json:"skipped_airline"`
	SkippedArrival int          `json:"skipped_arrival"`
	Sinks          []SinkStatus `json:"sinks"`
}

type HistorySummary struct {
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastRun     *RunStatus `json:"last_run,omitempty"`
}

// History keeps the outcome of the latest run for the API.
type History struct {
	mu          sync.RWMutex
	runs        int
	failures    int
	lastSuccess *time.Time
	last        *RunStatus
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Record(trigger string, report pipeline.Report, err error) {
	status := RunStatus{
		RunID:          report.RunID,
		Trigger:        trigger,
		StartedAt:      report.StartedAt,
		FinishedAt:     report.FinishedAt,
		Success:        err == nil,
		Requests:       report.Requests,
		Fetched:        report.Fetched,
		Kept:           report.Stats.Kept,
		SkippedAirline: report.Stats.SkippedAirline,
		SkippedArrival: report.Stats.SkippedArrival,
		Sinks:          make([]SinkStatus, 0, len(report.Sinks)),
	}
	if err != nil {
		status.Error = err.Error()
	}
	for _, s := range report.Sinks {
		ss := SinkStatus{Name: s.Name, Written: s.Result.Written, Skipped: s.Result.Skipped}
		if s.Err != nil {
			ss.Error = s.Err.Error()
		}
		status.Sinks = append(status.Sinks, ss)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs++
	if err != nil {
		h.failures++
	} else {
		finished := report.FinishedAt
		h.lastSuccess = &finished
	}
	h.last = &status
}

func (h *History) Summary() HistorySummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	summary := HistorySummary{
		Runs:        h.runs,
		Failures:    h.failures,
		LastSuccess: h.lastSuccess,
	}
	if h.last != nil {
		last := *h.last
		summary.LastRun = &last
	}
	return summary
}

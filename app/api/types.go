package api

import (
	"github.com/lysyi3m/flight-comb/app/database"
	"github.com/lysyi3m/flight-comb/app/flights"
	"github.com/lysyi3m/flight-comb/app/metrics"
	"github.com/lysyi3m/flight-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(channel flights.Channel, rows []database.Flight) (string, error)
}

var _ GeneratorInterface = (*flights.Generator)(nil)

// RunTrigger enqueues manual pipeline runs.
type RunTrigger interface {
	TriggerRun(trigger string) (string, error)
}

var _ RunTrigger = (*tasks.Scheduler)(nil)

type Options struct {
	Airport   string
	BaseURL   string
	Port      string
	Version   string
	FeedLimit int
}

type Handler struct {
	flightRepo database.FlightRepository
	generator  GeneratorInterface
	trigger    RunTrigger
	history    *tasks.History
	metrics    *metrics.Manager
	opts       Options
}

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/flight-comb/app/database"
	"github.com/lysyi3m/flight-comb/app/flights"
	"github.com/lysyi3m/flight-comb/app/metrics"
	"github.com/lysyi3m/flight-comb/app/tasks"
)

const defaultFeedLimit = 100

// NewHandler builds the HTTP handlers. flightRepo is nil when no database
// sink is configured; the read endpoints then answer 503.
func NewHandler(flightRepo database.FlightRepository, trigger RunTrigger, history *tasks.History,
	m *metrics.Manager, opts Options) *Handler {
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = defaultFeedLimit
	}

	return &Handler{
		flightRepo: flightRepo,
		generator:  flights.NewGenerator(),
		trigger:    trigger,
		history:    history,
		metrics:    m,
		opts:       opts,
	}
}

func (h *Handler) GetArrivalsFeed(c *gin.Context) {
	if h.flightRepo == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	rows, err := h.flightRepo.GetRecentFlights(c.Request.Context(), h.opts.FeedLimit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_flights", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(flights.Channel{
		Airport:  h.opts.Airport,
		SelfLink: h.selfLink("/feeds/arrivals"),
		Version:  h.opts.Version,
	}, rows)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(rows)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"status":    "ok",
	}

	status := http.StatusOK
	if h.flightRepo != nil {
		if err := h.flightRepo.Ping(c.Request.Context()); err != nil {
			slog.Error("Database ping failed", "error", err)
			health["status"] = "degraded"
			health["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			health["database"] = "ok"
		}
	}

	c.JSON(status, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"runs": h.history.Summary(),
	}

	if h.flightRepo != nil {
		if flightStats, err := h.flightRepo.GetFlightStats(c.Request.Context()); err == nil {
			stats["flights"] = gin.H{
				"total":       flightStats.Total,
				"dates":       flightStats.Dates,
				"latest_date": flightStats.LatestDate,
				"last_insert": flightStats.LastInsert,
			}
		} else {
			slog.Error("Database error", "operation", "get_flight_stats", "error", err)
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListFlights(c *gin.Context) {
	if h.flightRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database sink is not configured"})
		return
	}

	date := c.DefaultQuery("date", time.Now().In(time.Local).Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	rows, err := h.flightRepo.GetFlightsByDate(c.Request.Context(), date)
	if err != nil {
		slog.Error("Database error", "operation", "get_flights_by_date", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	events := make([]flights.Event, len(rows))
	for i, row := range rows {
		events[i] = flights.FromFlight(row)
	}

	c.JSON(http.StatusOK, gin.H{
		"date":    date,
		"flights": events,
		"total":   len(events),
	})
}

func (h *Handler) APITriggerRun(c *gin.Context) {
	runID, err := h.trigger.TriggerRun(tasks.TriggerManual)
	if errors.Is(err, tasks.ErrRunQueued) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Run already queued",
			"message": "Wait for the queued run to start before triggering another",
		})
		return
	}
	if err != nil {
		slog.Error("Error enqueueing run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Run enqueued",
		"task": gin.H{
			"id":   runID,
			"type": tasks.TaskTypeLoadFlights,
		},
	})
}

func (h *Handler) selfLink(path string) string {
	if h.opts.BaseURL != "" {
		return h.opts.BaseURL + path
	}
	return fmt.Sprintf("http://localhost:%s%s", h.opts.Port, path)
}

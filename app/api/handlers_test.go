package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmcdole/gofeed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/flight-comb/app/database"
	"github.com/lysyi3m/flight-comb/app/metrics"
	"github.com/lysyi3m/flight-comb/app/tasks"
)

const testAPIKey = "secret"

type fakeTrigger struct {
	calls []string
	err   error
}

func (f *fakeTrigger) TriggerRun(trigger string) (string, error) {
	f.calls = append(f.calls, trigger)
	if f.err != nil {
		return "", f.err
	}
	return "run-1", nil
}

func strPtr(s string) *string {
	return &s
}

func openStore(t *testing.T) database.Store {
	t.Helper()

	store, err := database.Open(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "flights.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.InsertFlights(context.Background(), []database.Flight{
		{
			FlightDate:    "2025-07-01",
			FlightStatus:  strPtr("landed"),
			AirlineIATA:   "AA",
			FlightNumber:  "123",
			FlightIATA:    "AA123",
			DepartureIATA: "AUS",
			ArrivalIATA:   "ORD",
			ArrivalActual: "2025-07-01T12:30:00+00:00",
		},
		{
			FlightDate:    "2025-07-02",
			AirlineIATA:   "UA",
			FlightNumber:  "9",
			FlightIATA:    "UA9",
			DepartureIATA: "AUS",
			ArrivalIATA:   "DEN",
			ArrivalActual: "2025-07-02T08:00:00+00:00",
		},
	})
	require.NoError(t, err)

	return store
}

func newTestServer(t *testing.T, repo database.FlightRepository, trigger RunTrigger) (*gin.Engine, *metrics.Manager) {
	t.Helper()

	m := metrics.NewManager(metrics.WithRegistry(prometheus.NewRegistry()))
	handler := NewHandler(repo, trigger, tasks.NewHistory(), m, Options{
		Airport: "AUS",
		BaseURL: "https://flights.example.com",
		Version: "test",
	})

	return NewServer(handler, testAPIKey), m
}

func serve(r http.Handler, method, target, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestArrivalsFeed(t *testing.T) {
	r, _ := newTestServer(t, openStore(t), &fakeTrigger{})

	w := serve(r, http.MethodGet, "/feeds/arrivals", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "2", w.Header().Get("X-Feed-Items"))

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "UA9 AUS → DEN", feed.Items[0].Title)
	assert.Equal(t, "2025-07-01/AA123", feed.Items[1].GUID)
}

func TestArrivalsFeedWithoutDatabase(t *testing.T) {
	r, _ := newTestServer(t, nil, &fakeTrigger{})

	w := serve(r, http.MethodGet, "/feeds/arrivals", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t, openStore(t), &fakeTrigger{})

	w := serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestStats(t *testing.T) {
	r, _ := newTestServer(t, openStore(t), &fakeTrigger{})

	w := serve(r, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Runs    tasks.HistorySummary `json:"runs"`
		Flights struct {
			Total      int    `json:"total"`
			Dates      int    `json:"dates"`
			LatestDate string `json:"latest_date"`
		} `json:"flights"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Runs.Runs)
	assert.Equal(t, 2, body.Flights.Total)
	assert.Equal(t, 2, body.Flights.Dates)
	assert.Equal(t, "2025-07-02", body.Flights.LatestDate)
}

func TestListFlightsRequiresKey(t *testing.T) {
	r, _ := newTestServer(t, openStore(t), &fakeTrigger{})

	w := serve(r, http.MethodGet, "/api/flights?date=2025-07-01", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/api/flights?date=2025-07-01", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestListFlightsByDate(t *testing.T) {
	r, _ := newTestServer(t, openStore(t), &fakeTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/api/flights?date=2025-07-01", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Date    string `json:"date"`
		Total   int    `json:"total"`
		Flights []struct {
			FlightIATA    string  `json:"flight_iata"`
			FlightStatus  *string `json:"flight_status"`
			ArrivalActual string  `json:"arrival_actual"`
		} `json:"flights"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2025-07-01", body.Date)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "AA123", body.Flights[0].FlightIATA)
	require.NotNil(t, body.Flights[0].FlightStatus)
	assert.Equal(t, "landed", *body.Flights[0].FlightStatus)
}

func TestListFlightsInvalidDate(t *testing.T) {
	r, _ := newTestServer(t, openStore(t), &fakeTrigger{})

	w := serve(r, http.MethodGet, "/api/flights?date=07/01/2025", testAPIKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerRun(t *testing.T) {
	trigger := &fakeTrigger{}
	r, _ := newTestServer(t, nil, trigger)

	w := serve(r, http.MethodPost, "/api/runs", testAPIKey)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"run-1"`)
	assert.Equal(t, []string{tasks.TriggerManual}, trigger.calls)
}

func TestTriggerRunWhileQueued(t *testing.T) {
	r, _ := newTestServer(t, nil, &fakeTrigger{err: tasks.ErrRunQueued})

	w := serve(r, http.MethodPost, "/api/runs", testAPIKey)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	r, _ := newTestServer(t, nil, &fakeTrigger{})

	serve(r, http.MethodGet, "/health", "")
	serve(r, http.MethodGet, "/nowhere", "")

	w := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `flight_comb_http_requests_total{method="GET",route="/health",status="200"} 1`), body)
	assert.True(t, strings.Contains(body, `route="unmatched",status="404"`), body)
}

func TestRootListsEndpoints(t *testing.T) {
	r, _ := newTestServer(t, nil, &fakeTrigger{})

	w := serve(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/runs")
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/favicon.ico", "").Code)
}

package flights

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/flight-comb/app/database"
)

func testFlights() []database.Flight {
	return []database.Flight{
		{
			ID:               2,
			FlightDate:       "2025-07-01",
			FlightStatus:     strPtr("landed"),
			AirlineIATA:      "AA",
			FlightNumber:     "123",
			FlightIATA:       "AA123",
			DepartureIATA:    "AUS",
			ArrivalIATA:      "ORD",
			ArrivalScheduled: strPtr("2025-07-01T13:00:00+00:00"),
			ArrivalActual:    "2025-07-01T12:55:00+00:00",
			CreatedAt:        time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            1,
			FlightDate:    "2025-07-01",
			AirlineIATA:   "B6",
			FlightNumber:  "42",
			FlightIATA:    "B642",
			DepartureIATA: "AUS",
			ArrivalIATA:   "JFK",
			ArrivalActual: "not a timestamp & <odd>",
			CreatedAt:     time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestGeneratorRun(t *testing.T) {
	rss, err := NewGenerator().Run(Channel{
		Airport:  "AUS",
		SelfLink: "https://flights.example.com/feeds/arrivals",
		Version:  "1.2.3",
	}, testFlights())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.HasPrefix(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should start with XML declaration")
	}
	if !strings.Contains(rss, "<generator>Flight-Comb/1.2.3</generator>") {
		t.Error("RSS should contain generator with version")
	}
	if !strings.Contains(rss, `<atom:link href="https://flights.example.com/feeds/arrivals" rel="self"`) {
		t.Error("RSS should contain atom self link")
	}
	if !strings.Contains(rss, "&lt;odd&gt;") {
		t.Error("RSS should escape item content")
	}

	feed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS should parse, got: %v", err)
	}

	if feed.Title != "Landed flights from AUS" {
		t.Errorf("Expected title 'Landed flights from AUS', got '%s'", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(feed.Items))
	}

	first := feed.Items[0]
	if first.GUID != "2025-07-01/AA123" {
		t.Errorf("Expected GUID '2025-07-01/AA123', got '%s'", first.GUID)
	}
	if first.Title != "AA123 AUS → ORD" {
		t.Errorf("Expected title 'AA123 AUS → ORD', got '%s'", first.Title)
	}
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(time.Date(2025, 7, 1, 12, 55, 0, 0, time.UTC)) {
		t.Errorf("Expected pubDate from actual arrival, got %v", first.PublishedParsed)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "AA" {
		t.Errorf("Expected category 'AA', got %v", first.Categories)
	}
	if !strings.Contains(first.Description, "scheduled 2025-07-01T13:00:00+00:00") {
		t.Errorf("Expected description to mention scheduled arrival, got '%s'", first.Description)
	}

	second := feed.Items[1]
	if second.PublishedParsed == nil || !second.PublishedParsed.Equal(time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected pubDate to fall back to insertion time, got %v", second.PublishedParsed)
	}
}

func TestGeneratorRunEmpty(t *testing.T) {
	rss, err := NewGenerator().Run(Channel{Airport: "AUS", Version: "dev"}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(rss, "<item>") {
		t.Error("Empty feed should not contain items")
	}
	if strings.Contains(rss, "atom:link") {
		t.Error("Feed without a self link should not contain atom:link")
	}

	feed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS should parse, got: %v", err)
	}
	if len(feed.Items) != 0 {
		t.Errorf("Expected 0 items, got %d", len(feed.Items))
	}
}

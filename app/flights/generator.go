package flights

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/lysyi3m/flight-comb/app/database"
)

// Channel describes the feed the generator renders.
type Channel struct {
	Airport  string
	SelfLink string
	Version  string
}

// Generator renders stored landed flights as an RSS 2.0 feed.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(channel Channel, flights []database.Flight) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", fmt.Sprintf("Landed flights from %s", channel.Airport), 4)
	g.writeElement(&buf, "link", channel.SelfLink, 4)
	g.writeElement(&buf, "description",
		fmt.Sprintf("Flights departing %s with a recorded actual arrival time", channel.Airport), 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(flights) > 0 {
		lastBuildDate = cmp.Or(arrivalTime(flights[0]), lastBuildDate)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Flight-Comb/%s", channel.Version), 4)

	for _, flight := range flights {
		g.writeItem(&buf, flight)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, flight database.Flight) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(flight.FlightDate+"/"+flight.FlightIATA))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title",
		fmt.Sprintf("%s %s → %s", flight.FlightIATA, flight.DepartureIATA, flight.ArrivalIATA), 6)
	g.writeElement(buf, "description", describe(flight), 6)

	if published := arrivalTime(flight); !published.IsZero() {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", flight.AirlineIATA, 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func describe(f database.Flight) string {
	desc := fmt.Sprintf("%s flight %s on %s landed at %s, actual arrival %s",
		f.AirlineIATA, f.FlightNumber, f.FlightDate, f.ArrivalIATA, f.ArrivalActual)
	if f.ArrivalScheduled != nil {
		desc += fmt.Sprintf(" (scheduled %s)", *f.ArrivalScheduled)
	}
	return desc
}

// arrivalTime parses the actual arrival timestamp, falling back to the row's
// insertion time when upstream sent something that is not RFC 3339.
func arrivalTime(f database.Flight) time.Time {
	if t, err := time.Parse(time.RFC3339, f.ArrivalActual); err == nil {
		return t
	}
	return f.CreatedAt
}

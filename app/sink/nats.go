package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lysyi3m/flight-comb/app/flights"
)

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// BatchMessage is the payload published for every run.
type BatchMessage struct {
	Count   int             `json:"count"`
	SentAt  time.Time       `json:"sent_at"`
	Flights []flights.Event `json:"flights"`
}

type natsSink struct {
	pub     Publisher
	subject string
}

func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("flight-comb"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

// NewNATS publishes each non-empty batch as one JSON message.
func NewNATS(pub Publisher, subject string) Sink {
	return &natsSink{pub: pub, subject: subject}
}

func (s *natsSink) Name() string { return "nats" }

func (s *natsSink) Push(ctx context.Context, events []flights.Event) (Result, error) {
	if len(events) == 0 {
		return Result{}, nil
	}

	data, err := json.Marshal(BatchMessage{
		Count:   len(events),
		SentAt:  time.Now().UTC(),
		Flights: events,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode batch: %w", err)
	}

	if err := s.pub.Publish(s.subject, data); err != nil {
		return Result{}, fmt.Errorf("failed to publish to %s: %w", s.subject, err)
	}

	if err := s.pub.FlushWithContext(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to flush nats connection: %w", err)
	}

	return Result{Written: len(events)}, nil
}

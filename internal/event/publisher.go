package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// AppliedSubject carries one TransactionApplied event per applied record.
	AppliedSubject = "payledger.events.applied"

	streamName = "PAYLEDGER_EVENTS"
)

// Publisher publishes applied-transaction events to NATS JetStream for
// downstream consumers. Publishing is best-effort: a failed publish is
// reported to the caller but never blocks the processing run.
type Publisher struct {
	js jetstream.JetStream
}

func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// Publish sends one applied event on AppliedSubject.
func (p *Publisher) Publish(ctx context.Context, evt TransactionApplied) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal applied event: %w", err)
	}

	if _, err := p.js.Publish(ctx, AppliedSubject, data); err != nil {
		return fmt.Errorf("publish applied event tx=%d: %w", evt.Tx, err)
	}
	return nil
}

// EnsureStream creates the outbound events stream if it does not exist.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"payledger.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", streamName, err)
	}
	return nil
}

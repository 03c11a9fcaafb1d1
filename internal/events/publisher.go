// Package events publishes job lifecycle events to NATS JetStream.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	StreamName    = "COMMENT_JOBS"
	StreamSubject = "jobs.>"
)

// Event is the envelope sent to jobs.* subjects
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	JobID      string         `json:"job_id"`
	UserID     string         `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Subject returns the subject for a job kind and outcome, e.g. jobs.fetch.completed
func Subject(kind, outcome string) string {
	return fmt.Sprintf("jobs.%s.%s", kind, outcome)
}

// Publisher sends job events to JetStream.
// A nil pointer or a Publisher without a JetStream context is a no-op.
type Publisher struct {
	js     nats.JetStreamContext
	logger *slog.Logger
}

// New creates a Publisher; js may be nil
func New(js nats.JetStreamContext, logger *slog.Logger) *Publisher {
	return &Publisher{js: js, logger: logger}
}

// Publish sends an event without waiting for the ack; failures are only logged
func (p *Publisher) Publish(kind, outcome, jobID, userID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}

	subject := Subject(kind, outcome)
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  kind + "." + outcome,
		JobID:      jobID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("failed to marshal job event", "job_id", jobID, "error", err)
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.logger.Warn("failed to publish job event", "subject", subject, "error", err)
	}
}

// Connect dials NATS and makes sure the jobs stream exists
func Connect(url string) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(url, nats.Name("comments-fetcher"))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, nil, err
	}

	return nc, js, nil
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("looking up stream: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{StreamSubject},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("creating stream: %w", err)
	}
	return nil
}

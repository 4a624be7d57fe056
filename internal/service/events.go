package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published on the bus.
const (
	EventSubmissionGraded = "lms.submission.graded"
	EventQuizScored       = "lms.quiz.scored"
	EventNoticePosted     = "lms.notice.posted"
)

// EventPublisher emits best-effort domain events for downstream consumers.
type EventPublisher interface {
	Publish(subject string, payload interface{})
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

type eventEnvelope struct {
	Subject string      `json:"subject"`
	SentAt  time.Time   `json:"sent_at"`
	Payload interface{} `json:"payload"`
}

// NewNATSPublisher wraps a NATS connection as an EventPublisher. A nil
// connection yields a publisher that drops every event, so callers never
// need to nil-check.
func NewNATSPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(subject string, payload interface{}) {
	if p.conn == nil {
		return
	}

	data, err := json.Marshal(eventEnvelope{Subject: subject, SentAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

package service

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubjectPublicationApproved is the NATS subject pattern for approval
// events: portal.department.<departmentID>.publications.approved
const SubjectPublicationApproved = "portal.department.%d.publications.approved"

// NatsEventPublisher implements EventPublisher over a NATS connection.
type NatsEventPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

func NewNatsEventPublisher(natsURL string, logger zerolog.Logger) (*NatsEventPublisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NatsEventPublisher{conn: conn, logger: logger}, nil
}

func (slf *NatsEventPublisher) PublishPublicationApproved(event PublicationApprovedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal approval event: %w", err)
	}
	subject := fmt.Sprintf(SubjectPublicationApproved, event.DepartmentID)
	if err := slf.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %q: %w", subject, err)
	}
	slf.logger.Debug().Str("subject", subject).Uint("publicationId", event.PublicationID).Msg("Published approval event")
	return nil
}

// Close drains the NATS connection.
func (slf *NatsEventPublisher) Close() {
	if err := slf.conn.Drain(); err != nil {
		slf.logger.Warn().Err(err).Msg("Error draining NATS connection")
	}
}

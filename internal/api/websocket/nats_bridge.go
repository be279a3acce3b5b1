package websocket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"intranet/pkg/apperr"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DepartmentChatResolver maps a department to its canonical group chat.
type DepartmentChatResolver interface {
	GetDepartmentChatID(departmentID uint) (uint, error)
}

// NATSBridge subscribes to portal events on NATS and pushes them into the
// Hub, so approval notifications reach department chats in real time even
// when the approval happened on another instance.
type NATSBridge struct {
	conn     *nats.Conn
	hub      *Hub
	resolver DepartmentChatResolver
	logger   zerolog.Logger
}

func NewNATSBridge(natsURL string, hub *Hub, resolver DepartmentChatResolver, logger zerolog.Logger) (*NATSBridge, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: conn, hub: hub, resolver: resolver, logger: logger}, nil
}

// Subscribe listens for approval events on portal.department.*.publications.approved
func (b *NATSBridge) Subscribe() error {
	subject := "portal.department.*.publications.approved"
	_, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		departmentID, err := parseDepartmentFromSubject(msg.Subject)
		if err != nil {
			b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Bad event subject")
			return
		}

		chatID, err := b.resolver.GetDepartmentChatID(departmentID)
		if err != nil {
			// A department without a group chat has nowhere to notify.
			if !apperr.IsKind(err, apperr.KindNotFound) {
				b.logger.Warn().Err(err).Uint("departmentId", departmentID).Msg("Could not resolve department chat")
			}
			return
		}

		payload, err := marshalEvent(EventPublicationApproved, chatID, json.RawMessage(msg.Data))
		if err != nil {
			b.logger.Error().Err(err).Msg("Could not encode approval event")
			return
		}
		b.hub.BroadcastToChat(chatID, payload)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}

	b.logger.Info().Str("subject", subject).Msg("NATS bridge subscribed")
	return nil
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("Error draining NATS connection")
	}
}

// parseDepartmentFromSubject extracts the id from
// "portal.department.<id>.publications.approved"
func parseDepartmentFromSubject(subject string) (uint, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 5 {
		return 0, fmt.Errorf("expected 5 parts, got %d", len(parts))
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid department id %q: %w", parts[2], err)
	}
	return uint(id), nil
}

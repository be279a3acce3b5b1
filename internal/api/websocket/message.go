package websocket

import (
	"encoding/json"
	"fmt"

	"intranet/internal/api/handler/request"
)

// Client-invocable actions.
const (
	ActionSendMessage        = "sendMessage"
	ActionJoinChat           = "joinChat"
	ActionLeaveChat          = "leaveChat"
	ActionMarkMessagesAsRead = "markMessagesAsRead"
)

// Named events pushed to clients.
const (
	EventReceiveMessage       = "ReceiveMessage"
	EventErrorOccurred        = "ErrorOccurred"
	EventJoinedChat           = "JoinedChat"
	EventLeftChat             = "LeftChat"
	EventMessagesMarkedAsRead = "MessagesMarkedAsRead"
	EventPublicationApproved  = "PublicationApproved"
)

// inboundFrame is a command from the client.
type inboundFrame struct {
	Action  string                    `json:"action"`
	ChatID  uint                      `json:"chatId,omitempty"`
	Message *request.MessageCreateDTO `json:"message,omitempty"`
}

// Event is the envelope pushed to clients.
type Event struct {
	Event   string          `json:"event"`
	ChatID  uint            `json:"chatId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func marshalEvent(name string, chatID uint, payload any) ([]byte, error) {
	event := Event{Event: name, ChatID: chatID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", name, err)
		}
		event.Payload = data
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", name, err)
	}
	return data, nil
}

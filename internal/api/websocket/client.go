package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection of an authenticated user.
// The send channel is never closed; the hub signals shutdown through done
// instead, so the read pump can keep dispatching safely while a drop is in
// flight.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	stopOnce sync.Once
	userID   uint
	handle   string
	logger   zerolog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint, handle string, logger zerolog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
		userID: userID,
		handle: handle,
		logger: logger.With().Uint("userId", userID).Str("connection", handle).Logger(),
	}
}

// stop signals both pumps to shut down. Safe to call more than once.
func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// ReadPump reads frames from the connection and dispatches actions. Runs
// until the connection drops, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("Websocket read error")
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError(0, "invalid message format")
			continue
		}
		c.dispatch(frame)
	}
}

// WritePump writes queued events to the connection and keeps it alive
// with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch handles one client action. Failures never terminate the
// connection; they are reported to this client only as ErrorOccurred.
func (c *Client) dispatch(frame inboundFrame) {
	switch frame.Action {
	case ActionSendMessage:
		c.handleSendMessage(frame)
	case ActionJoinChat:
		c.handleJoinChat(frame.ChatID)
	case ActionLeaveChat:
		c.handleLeaveChat(frame.ChatID)
	case ActionMarkMessagesAsRead:
		c.handleMarkMessagesAsRead(frame.ChatID)
	default:
		c.sendError(frame.ChatID, "unknown action: "+frame.Action)
	}
}

func (c *Client) handleSendMessage(frame inboundFrame) {
	if frame.Message == nil {
		c.sendError(frame.ChatID, "missing message payload")
		return
	}
	if frame.Message.SenderID != c.userID {
		c.sendError(frame.Message.ChatID, "sender does not match the authenticated user")
		return
	}

	messageDTO, err := c.hub.chats.AddMessage(frame.Message.Content, frame.Message.SenderID, frame.Message.ChatID)
	if err != nil {
		c.sendError(frame.Message.ChatID, err.Error())
		return
	}

	payload, err := marshalEvent(EventReceiveMessage, messageDTO.ChatID, messageDTO)
	if err != nil {
		c.logger.Error().Err(err).Msg("Could not encode message event")
		return
	}
	c.hub.BroadcastToChat(messageDTO.ChatID, payload)
}

func (c *Client) handleJoinChat(chatID uint) {
	if _, err := c.hub.chats.GetChatByID(chatID, c.userID); err != nil {
		c.sendError(chatID, err.Error())
		return
	}
	c.hub.subscribe <- subscription{client: c, chatID: chatID}
	c.sendEvent(EventJoinedChat, chatID, nil)
}

func (c *Client) handleLeaveChat(chatID uint) {
	c.hub.unsubscribe <- subscription{client: c, chatID: chatID}
	c.sendEvent(EventLeftChat, chatID, nil)
}

func (c *Client) handleMarkMessagesAsRead(chatID uint) {
	if err := c.hub.chats.MarkMessagesAsRead(chatID, c.userID); err != nil {
		c.sendError(chatID, err.Error())
		return
	}
	// Read receipts are acknowledged to the reader only, not broadcast.
	c.sendEvent(EventMessagesMarkedAsRead, chatID, nil)
}

// sendEvent queues a named event on this connection only. A full buffer
// drops the event rather than blocking the read loop, and a stopped client
// drops it outright.
func (c *Client) sendEvent(name string, chatID uint, payload any) {
	data, err := marshalEvent(name, chatID, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", name).Msg("Could not encode event")
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn().Str("event", name).Msg("Send buffer full, event dropped")
	}
}

func (c *Client) sendError(chatID uint, message string) {
	c.sendEvent(EventErrorOccurred, chatID, errorPayload{Message: message})
}

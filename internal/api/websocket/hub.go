package websocket

import (
	"intranet/internal/api/handler/response"

	"github.com/rs/zerolog"
)

// ChatProvider is the slice of the chat service the realtime layer needs.
type ChatProvider interface {
	GetUserChats(userID uint) ([]response.ChatDTO, error)
	GetChatByID(chatID uint, userID uint) (*response.ChatDTO, error)
	AddMessage(content string, senderID uint, chatID uint) (*response.MessageDTO, error)
	MarkMessagesAsRead(chatID uint, userID uint) error
}

// Hub owns the connection lifecycle and routes events by chat ID. All
// mutation of the client and subscription tables happens on the Run
// goroutine; clients talk to it over channels.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// chatID -> set of subscribed clients
	subscriptions map[uint]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan broadcastFrame

	registry *Registry
	chats    ChatProvider
	logger   zerolog.Logger
}

type subscription struct {
	client *Client
	chatID uint
}

type broadcastFrame struct {
	chatID  uint
	payload []byte
}

func NewHub(registry *Registry, chats ChatProvider, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[uint]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscription),
		unsubscribe:   make(chan subscription),
		broadcast:     make(chan broadcastFrame, 256),
		registry:      registry,
		chats:         chats,
		logger:        logger,
	}
}

// Register hands a freshly upgraded connection to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection; called from the client's read pump on
// any disconnect, normal or not.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToChat fans payload out to every connection subscribed to the
// chat. Used by clients after a message is persisted and by the NATS
// bridge for portal events.
func (h *Hub) BroadcastToChat(chatID uint, payload []byte) {
	h.broadcast <- broadcastFrame{chatID: chatID, payload: payload}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.registry.AddConnection(client.userID, client.handle)
			h.joinUserChats(client)
			h.logger.Debug().Uint("userId", client.userID).Int("total", len(h.clients)).Msg("Client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug().Uint("userId", client.userID).Int("total", len(h.clients)).Msg("Client unregistered")
			}

		case sub := <-h.subscribe:
			// A client dropped between dispatch and delivery must not
			// re-enter the subscription table.
			if !h.clients[sub.client] {
				break
			}
			if _, ok := h.subscriptions[sub.chatID]; !ok {
				h.subscriptions[sub.chatID] = make(map[*Client]bool)
			}
			h.subscriptions[sub.chatID][sub.client] = true

		case sub := <-h.unsubscribe:
			if subs, ok := h.subscriptions[sub.chatID]; ok {
				delete(subs, sub.client)
				if len(subs) == 0 {
					delete(h.subscriptions, sub.chatID)
				}
			}

		case frame := <-h.broadcast:
			if subs, ok := h.subscriptions[frame.chatID]; ok {
				for client := range subs {
					select {
					case client.send <- frame.payload:
					default:
						// Client buffer full, remove it
						h.drop(client)
					}
				}
			}
		}
	}
}

// joinUserChats subscribes a new connection to every chat the user is a
// participant of. Fail-open: a lookup failure is logged and the connection
// stays up, the client can still join chats explicitly.
func (h *Hub) joinUserChats(client *Client) {
	chats, err := h.chats.GetUserChats(client.userID)
	if err != nil {
		h.logger.Warn().Err(err).Uint("userId", client.userID).Msg("Could not auto-subscribe client to chats")
		return
	}
	for _, chat := range chats {
		if _, ok := h.subscriptions[chat.ID]; !ok {
			h.subscriptions[chat.ID] = make(map[*Client]bool)
		}
		h.subscriptions[chat.ID][client] = true
	}
}

// drop removes a client from all tables and signals its pumps to stop.
// Must run on the Run goroutine. The send channel is left open so that a
// dispatch already past the done check cannot panic on a closed channel.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.stop()
	for chatID, subs := range h.subscriptions {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, chatID)
		}
	}
	h.registry.RemoveConnection(client.userID, client.handle)
}

package endpoints

import (
	"net/http"

	"intranet"
	"intranet/internal/api/handler/middleware"
	realtime "intranet/internal/api/websocket"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, you should validate the origin
		return true
	},
}

type websocketHandler struct {
	hub    *realtime.Hub
	logger zerolog.Logger
}

// WebSocketHandler sets up the chat WebSocket route. Browsers cannot set
// headers on WebSocket upgrades, so the auth middleware also accepts the
// JWT as a "token" query parameter.
func WebSocketHandler(router *graceful.Graceful, hub *realtime.Hub) {
	h := &websocketHandler{
		hub:    hub,
		logger: intranet.Logger,
	}

	ws := router.Group("/api/v1/ws")
	ws.Use(middleware.AuthMiddleware(intranet.GetConfig()))
	{
		ws.GET("/chat", h.handleChat)
	}
}

func (slf *websocketHandler) handleChat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	handle := uuid.New().String()
	client := realtime.NewClient(slf.hub, conn, userID, handle, slf.logger)
	slf.hub.Register(client)

	slf.logger.Info().
		Str("connection", handle).
		Uint("userId", userID).
		Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}

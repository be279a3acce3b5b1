package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"intranet"
	"intranet/internal/api/handler/endpoints"
	"intranet/internal/api/models"
	"intranet/internal/api/repo"
	"intranet/internal/api/service"
	"intranet/internal/api/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	intranet.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if intranet.GetConfig().Mode == "dev" {
		if err := intranet.DB.AutoMigrate(
			&models.Department{},
			&models.Role{},
			&models.User{},
			&models.Chat{},
			&models.ChatParticipant{},
			&models.Message{},
			&models.Publication{},
			&models.Comment{},
			&models.Reaction{},
		); err != nil {
			intranet.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		intranet.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(intranet.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	userRepo := repo.NewUserRepository()
	chatRepo := repo.NewChatRepository()
	messageRepo := repo.NewMessageRepository()
	publicationRepo := repo.NewPublicationRepository()

	mailService := service.NewMailService(intranet.Logger)
	resetStore := service.NewRedisResetTokenStore()
	userService := service.NewUserService(userRepo, resetStore, mailService, intranet.GetConfig(), intranet.Logger)
	chatService := service.NewChatService(chatRepo, messageRepo, userRepo, intranet.Logger)

	var publisher service.EventPublisher
	natsURL := intranet.GetConfig().NatsURL
	if natsURL != "" {
		natsPublisher, err := service.NewNatsEventPublisher(natsURL, intranet.Logger)
		if err != nil {
			intranet.Logger.Warn().Err(err).Msg("NATS unavailable, approval events disabled")
		} else {
			defer natsPublisher.Close()
			publisher = natsPublisher
		}
	}
	publicationService := service.NewPublicationService(publicationRepo, userRepo, publisher, intranet.Logger)

	registry := websocket.NewRegistry()
	hub := websocket.NewHub(registry, chatService, intranet.Logger)
	go hub.Run()
	intranet.Logger.Info().Msg("WebSocket hub started")

	if publisher != nil {
		bridge, err := websocket.NewNATSBridge(natsURL, hub, chatService, intranet.Logger)
		if err != nil {
			intranet.Logger.Warn().Err(err).Msg("Could not start NATS bridge")
		} else {
			defer bridge.Close()
			if err := bridge.Subscribe(); err != nil {
				intranet.Logger.Warn().Err(err).Msg("Could not subscribe NATS bridge")
			}
		}
	}

	initAPI(router, userService, chatService, publicationService, hub)

	intranet.Logger.Debug().Msgf("Starting portal API on port %s", intranet.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		intranet.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

func initAPI(
	router *graceful.Graceful,
	userService *service.UserService,
	chatService *service.ChatService,
	publicationService *service.PublicationService,
	hub *websocket.Hub,
) {
	endpoints.AuthHandler(router, userService)
	endpoints.ChatHandler(router, chatService)
	endpoints.PublicationHandler(router, publicationService)
	endpoints.WebSocketHandler(router, hub)
}

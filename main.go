package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"teamchat-service/internal/config"
	"teamchat-service/internal/db"
	"teamchat-service/internal/handlers"
	"teamchat-service/internal/middleware"
	"teamchat-service/internal/notify"
	"teamchat-service/internal/observability"
	"teamchat-service/internal/presence"
	"teamchat-service/internal/rabbitmq"
	"teamchat-service/internal/repositories"
	"teamchat-service/internal/telemetry"
	"teamchat-service/internal/ws"
)

const serviceName = "teamchat-service"

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	shutdownTracing, err := observability.SetupTracing(context.Background(), serviceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.EventsExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", serviceName, cfg.Environment)

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	subscriptionRepo := repositories.NewPushSubscriptionRepo(database)

	hub := ws.NewHub()
	tracker := presence.NewTracker(presence.TypingExpiry)
	defer tracker.Close()

	dispatcher := notify.NewDispatcher(notificationRepo, subscriptionRepo, publisher, hub, cfg.PushRoutingKey)

	roomHandler := handlers.NewRoomHandler(roomRepo, userRepo, hub, audit)
	messageHandler := handlers.NewMessageHandler(roomRepo, messageRepo, userRepo, hub, tracker, dispatcher, audit)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	pushHandler := handlers.NewPushHandler(subscriptionRepo)

	roomWS := ws.NewRoomWebSocketHandler(hub, roomRepo, userRepo, tracker, cfg.JWTSecret)
	directoryWS := ws.NewDirectoryWebSocketHandler(hub, cfg.JWTSecret)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	router.GET("/rooms", authMiddleware, roomHandler.ListRooms)
	router.POST("/rooms", authMiddleware, roomHandler.CreateRoom)
	router.GET("/rooms/active", authMiddleware, roomHandler.ActiveRoom)
	router.GET("/rooms/:room_id/messages", authMiddleware, messageHandler.GetRoomMessages)
	router.POST("/rooms/:room_id/messages", authMiddleware, messageHandler.PostRoomMessage)
	router.GET("/rooms/:room_id/typers", authMiddleware, messageHandler.GetRoomTypers)

	router.GET("/notifications", authMiddleware, notificationHandler.List)
	router.POST("/notifications/:notification_id/read", authMiddleware, notificationHandler.MarkRead)
	router.POST("/notifications/:notification_id/unread", authMiddleware, notificationHandler.MarkUnread)

	router.POST("/push/subscriptions", authMiddleware, pushHandler.Register)
	router.DELETE("/push/subscriptions/:subscription_id", authMiddleware, pushHandler.Deactivate)

	router.GET("/ws/rooms/:room_id", roomWS.Handle)
	router.GET("/ws/directory", directoryWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, tracker, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

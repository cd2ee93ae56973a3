package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"campus-chat/internal/chat"
	"campus-chat/internal/config"
	"campus-chat/internal/crypto"
	"campus-chat/internal/db"
	"campus-chat/internal/handlers"
	"campus-chat/internal/logging"
	"campus-chat/internal/middleware"
	"campus-chat/internal/observability"
	"campus-chat/internal/presence"
	"campus-chat/internal/rabbitmq"
	"campus-chat/internal/repositories"
	"campus-chat/internal/storage"
	"campus-chat/internal/telemetry"
	"campus-chat/internal/ws"
)

// multipartOverhead leaves room for form fields and boundaries around an image.
const multipartOverhead = 64 << 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	database, err := db.Connect(cfg.Database.DSN, db.Options{
		MaxConnections:  cfg.Database.MaxConnections,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	codec, err := crypto.NewCodec(cfg.Chat.Key)
	if err != nil {
		logger.Fatal("failed to init message codec", zap.Error(err))
	}

	var tracker presence.Tracker = presence.NewLocal()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		tracker = presence.NewRedis(rdb)
		logger.Info("presence backed by redis", zap.String("addr", cfg.Redis.Addr))
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, cfg.AMQP.AuditKey, cfg.AMQP.ServiceTag, cfg.Environment, logger)
	logger.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)),
	)

	images, err := storage.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL, cfg.Uploads.MaxImageBytes)
	if err != nil {
		logger.Fatal("failed to init image store", zap.Error(err))
	}

	loungeRepo := repositories.NewLoungeRepo(database)
	matchRepo := repositories.NewMatchRepo(database)
	loungeMessageRepo := repositories.NewLoungeMessageRepo(database)
	privateMessageRepo := repositories.NewPrivateMessageRepo(database)

	hub := ws.NewHub(logger)
	gate := chat.NewGate(loungeRepo, matchRepo)
	svc := chat.NewService(gate, loungeRepo, matchRepo, loungeMessageRepo, privateMessageRepo, codec, hub, logger)

	tokens := middleware.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer)
	loungeHandler := handlers.NewLoungeHandler(svc, audit)
	privateHandler := handlers.NewPrivateChatHandler(svc, images, audit)
	inboxHandler := handlers.NewInboxHandler(svc)
	presenceHandler := handlers.NewPresenceHandler(tracker)
	internalHandler := handlers.NewInternalHandler(svc, audit)
	wsHandler := ws.NewHandler(hub, gate, tokens, tracker, cfg.Server.AllowedOrigins, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(logging.RequestLogger(logger))
	router.Use(observability.HTTPMetricsMiddleware())
	router.MaxMultipartMemory = cfg.Uploads.MaxImageBytes

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", observability.MetricsHandler())
	router.Static("/uploads", cfg.Uploads.Dir)

	authMiddleware := middleware.AuthMiddleware(tokens)
	sendLimit := middleware.RateLimit(cfg.RateLimit.SendRPS, cfg.RateLimit.SendBurst)

	router.GET("/lounges/:surfaceId", authMiddleware, loungeHandler.GetLounge)
	router.POST("/lounges/:surfaceId/join", authMiddleware, loungeHandler.Join)
	router.POST("/lounges/:surfaceId/leave", authMiddleware, loungeHandler.Leave)
	router.GET("/lounges/:surfaceId/messages", authMiddleware, loungeHandler.GetMessages)
	router.POST("/lounges/:surfaceId/messages", authMiddleware, sendLimit, loungeHandler.PostMessage)

	router.POST("/private-chat", authMiddleware, sendLimit, privateHandler.PostMessage)
	router.POST("/private-chat/image", authMiddleware, sendLimit, middleware.BodyLimit(cfg.Uploads.MaxImageBytes+multipartOverhead), privateHandler.PostImage)
	router.GET("/private-chat/:matchId", authMiddleware, privateHandler.GetMessages)

	router.GET("/messages/lounges", authMiddleware, inboxHandler.Lounges)
	router.GET("/messages/matches", authMiddleware, inboxHandler.Matches)
	router.GET("/presence/online", authMiddleware, presenceHandler.Online)

	router.GET("/ws", wsHandler.Handle)

	internal := router.Group("/internal", middleware.InternalToken(cfg.Server.InternalToken))
	internal.POST("/lounges", internalHandler.ProvisionLounge)
	internal.DELETE("/lounges/:parentType/:parentId", internalHandler.DestroyLounge)
	internal.POST("/matches", internalHandler.OpenMatch)

	handlers.RegisterDebugRoutes(router, audit, hub, cfg.Server.DebugRoutes)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		logger.Info("chat service listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", zap.Error(err))
	}
}

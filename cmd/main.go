package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gocial/backend/internal/config"
	"gocial/backend/internal/handler"
	"gocial/backend/internal/model"
	"gocial/backend/internal/notify"
	"gocial/backend/internal/repository"
	"gocial/backend/internal/scheduler"
	"gocial/backend/internal/service"
	jwtpkg "gocial/backend/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize state store (Redis or in-memory)
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		stateStore = repository.NewRedisStateStore(redisClient, cfg.State.KeyPrefix)
		logger.Info("using Redis state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 6. Initialize repositories
	userRepo := repository.NewPGUserRepository(db)
	activityRepo := repository.NewPGActivityRepository(db)
	participationRepo := repository.NewPGParticipationRepository(db)
	likeRepo := repository.NewPGLikeRepository(db)
	friendshipRepo := repository.NewPGFriendshipRepository(db)
	notificationRepo := repository.NewPGNotificationRepository(db)

	// 7. Notifications: publish to RabbitMQ when configured, otherwise store
	// them directly. Delivery runs off the request path.
	store := notify.NewStore(userRepo, notificationRepo)
	var sink notify.Sink = store
	var publisher *notify.RabbitPublisher
	var consumer *notify.Consumer
	if cfg.RabbitMQ.URL != "" {
		publisher, err = notify.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		sink = publisher
		logger.Info("publishing notifications to RabbitMQ", zap.String("exchange", cfg.RabbitMQ.Exchange))

		if cfg.RabbitMQ.Consume {
			consumer, err = notify.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, store, logger)
			if err != nil {
				logger.Fatal("failed to start notification consumer", zap.Error(err))
			}
		}
	}
	dispatcher := notify.NewDispatcher(sink, cfg.RabbitMQ.BufferSize, logger)
	dispatcher.Start()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if consumer != nil {
		if err := consumer.Start(consumerCtx); err != nil {
			logger.Fatal("failed to consume notifications", zap.Error(err))
		}
	}

	// 8. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)

	// 9. Initialize services
	friendService := service.NewFriendService(friendshipRepo)
	activityService := service.NewActivityService(
		cfg.Feed, cfg.State,
		activityRepo, participationRepo, likeRepo, userRepo,
		friendService, stateStore, dispatcher, logger,
	)
	participationService := service.NewParticipationService(
		activityRepo, participationRepo, userRepo,
		friendService, dispatcher, logger,
	)

	// 10. Reminder scheduler
	var reminders *scheduler.ReminderJob
	if cfg.Scheduler.Enabled {
		reminders = scheduler.NewReminderJob(cfg.Scheduler, activityRepo, participationRepo, stateStore, dispatcher, logger)
		if err := reminders.Start(); err != nil {
			logger.Fatal("failed to start reminder scheduler", zap.Error(err))
		}
		logger.Info("reminder scheduler started", zap.Duration("interval", cfg.Scheduler.ReminderInterval))
	}

	// 11. Initialize handlers and router
	activityHandler := handler.NewActivityHandler(activityService, logger)
	participationHandler := handler.NewParticipationHandler(participationService, logger)
	router := handler.SetupRouter(cfg, logger, jwtManager, activityHandler, participationHandler)

	// 12. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 13. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 14. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Producers stop before the dispatcher drains its queue.
	if reminders != nil {
		reminders.Stop()
	}
	if err := dispatcher.Stop(ctx); err != nil {
		logger.Warn("notification queue not drained", zap.Error(err))
	}
	if publisher != nil {
		publisher.Close()
	}
	if consumer != nil {
		consumer.Close()
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

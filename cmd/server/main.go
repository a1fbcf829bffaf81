package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/agrimarket/internal/adapter/handler/http"
	"github.com/wekeepgrowing/agrimarket/internal/config"
	domaingateway "github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
	domainnotification "github.com/wekeepgrowing/agrimarket/internal/domain/notification"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/database"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/gateway"
	grpcServer "github.com/wekeepgrowing/agrimarket/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/agrimarket/internal/infrastructure/http"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/notification"
	"github.com/wekeepgrowing/agrimarket/internal/usecase"
	"github.com/wekeepgrowing/agrimarket/pkg/logger"
	"github.com/wekeepgrowing/agrimarket/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	cipher, err := crypto.NewAESGCMCipher(cfg.Gateway.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("Failed to initialize payment cipher", zap.Error(err))
	}

	// Card outcomes come from Stripe when a key is configured
	var cardDecider domaingateway.Decider
	if cfg.Gateway.StripeSecretKey != "" {
		cardDecider = gateway.NewStripeDecider(cfg.Gateway.StripeSecretKey, cipher, zapLogger)
		zapLogger.Info("Card payments confirmed through Stripe")
	}
	registry := gateway.NewDefaultRegistry(cfg.Gateway, cardDecider, zapLogger)

	channels := []domainnotification.Notifier{notification.NewInboxNotifier(repos.Notification)}

	var redisClient messaging.RedisClient
	if cfg.Notification.Redis.Addr != "" {
		redisClient, err = messaging.NewRedisClient(messaging.Options{
			Addr:     cfg.Notification.Redis.Addr,
			Password: cfg.Notification.Redis.Password,
			DB:       cfg.Notification.Redis.DB,
		})
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		channels = append(channels, notification.NewRedisPublisher(redisClient, cfg.Notification.Channel))
	}

	if cfg.Notification.SMTP.Host != "" {
		recipients := notification.StaticRecipients(cfg.Notification.Recipients)
		channels = append(channels, notification.NewMailer(cfg.Notification.SMTP, recipients, zapLogger))
	}

	dispatcher := notification.NewDispatcher(zapLogger, channels...)
	zapLogger.Info("Notification channels ready", zap.Int("channels", dispatcher.Channels()))

	engine := usecase.NewTransactionEngine(
		repos.Transaction,
		repos.PaymentMethod,
		registry,
		dispatcher,
		cfg.Checkout,
		zapLogger,
	)

	notificationHandler := handlers.NewNotificationHandler(usecase.NewNotificationService(repos.Notification, zapLogger), zapLogger)
	if redisClient != nil {
		notificationHandler.WithStream(redisClient, cfg.Notification.Channel)
	}

	h := handlers.Handlers{
		Checkout:      handlers.NewCheckoutHandler(engine, usecase.NewCheckoutBuilder(cfg.Checkout.Currency), zapLogger),
		Transaction:   handlers.NewTransactionHandler(engine, zapLogger),
		PaymentMethod: handlers.NewPaymentMethodHandler(usecase.NewPaymentMethodService(repos.PaymentMethod, cipher, zapLogger), zapLogger),
		Notification:  notificationHandler,
	}

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger)
	httpSrv := httpServer.NewServer(cfg, zapLogger, h)

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if err := grpcSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	// Let background processing and notifications finish before closing storage
	engine.Wait()

	zapLogger.Info("Servers shut down successfully")
}

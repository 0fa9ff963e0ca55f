package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bistroPulse/internal/config"
	catalog "bistroPulse/internal/modules/catalog/domain"
	catalogclient "bistroPulse/internal/modules/catalog/infrastructure"
	"bistroPulse/internal/modules/console/application/handler"
	"bistroPulse/internal/modules/console/application/usecase"
	"bistroPulse/internal/modules/console/infrastructure"
	transport "bistroPulse/internal/modules/console/interface"
	listingport "bistroPulse/internal/modules/listing/application/port"
	"bistroPulse/internal/platform/broker"
	"bistroPulse/internal/shared/auth"
	"bistroPulse/internal/shared/logging"
	"bistroPulse/internal/shared/metrics"
	"bistroPulse/internal/shared/session"
)

func main() {
	// Local runs read overrides from .env.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logFile, logger, err := logging.Setup(cfg.Logging.Directory, logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID), slog.Any("topics", cfg.Kafka.Topics))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetry := metrics.New(nil)
	store, closeStore := openSessionStore(ctx, cfg.Redis)
	defer closeStore()

	validator := auth.NewJWTValidator(cfg.Security.JWTSecret, cfg.Security.JWTPublicKey)
	client := catalogclient.NewCatalogHTTPClient(cfg.REST.BaseURL, cfg.REST.Timeout, nil)
	gateways := func(sess *session.Session, descriptor catalog.Descriptor) (listingport.Gateway, error) {
		return catalogclient.NewGateway(client, descriptor.Entity, session.NewTokenSource(store, sess.ID), catalogclient.AudienceForRole(sess.Role))
	}

	var audit listingport.AuditSink
	var publisher *broker.AuditPublisher
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.AuditTopic != "" {
		publisher = broker.NewAuditPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		audit = publisher
	}

	hub := infrastructure.NewHub()
	pages, err := usecase.NewPageRegistry(usecase.RegistryConfig{
		Gateways:    gateways,
		Validator:   client.Validator(),
		Broadcaster: hub,
		Sockets:     hub,
		Observer:    telemetry,
		Audit:       audit,
		Gauge:       telemetry,
		PageSize:    cfg.Pages.PageSize,
		LoadTimeout: cfg.REST.Timeout,
		IdleTTL:     cfg.Pages.IdleTTL,
		Logger:      logger,
	})
	if err != nil {
		slog.Error("page registry setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	go pages.Run(ctx)

	// One handler per kafka topic; backend events refetch the mounted pages of their entity.
	registry := infrastructure.NewHandlerRegistry()
	for entity, topics := range cfg.Kafka.Topics {
		for _, topic := range topics {
			registry.Register(handler.NewEntityStreamHandler(entity, topic, cfg.Kafka.ReloadActions, pages))
		}
	}
	if cfg.Kafka.NotificationTopic != "" {
		registry.Register(handler.NewNotificationHandler(cfg.Kafka.NotificationTopic, hub))
	}
	consumers := broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, registry.Topics(), telemetry)

	e := transport.NewRouter(transport.RouterConfig{
		Sessions:          store,
		Validator:         validator,
		Pages:             pages,
		Hub:               hub,
		SessionTTL:        cfg.Redis.SessionTTL,
		SecureCookies:     cfg.Server.SecureCookies,
		SendBuffer:        cfg.Websocket.SendBuffer,
		MutationRateLimit: cfg.Server.MutationRateLimit,
		Metrics:           promhttp.Handler(),
	})

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", slog.Any("error", err))
	}
	cancel()
	consumers.Wait()
	pages.Stop()
	hub.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Warn("audit publisher close", slog.Any("error", err))
		}
	}
}

// openSessionStore uses redis when an address is configured and falls back to memory when
// it is not or the server cannot be reached.
func openSessionStore(ctx context.Context, cfg config.RedisConfig) (session.Store, func()) {
	if cfg.Addr == "" {
		slog.Info("session store: memory")
		return session.NewMemoryStore(cfg.SessionTTL), func() {}
	}
	client, err := session.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		slog.Warn("redis unavailable, keeping sessions in memory", slog.String("addr", cfg.Addr), slog.Any("error", err))
		return session.NewMemoryStore(cfg.SessionTTL), func() {}
	}
	slog.Info("session store: redis", slog.String("addr", cfg.Addr), slog.Int("db", cfg.DB))
	return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }
}

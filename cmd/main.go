package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"

	"github.com/cwrk-planet/chat-service/config"
	"github.com/cwrk-planet/chat-service/internal/events"
	"github.com/cwrk-planet/chat-service/internal/identity"
	"github.com/cwrk-planet/chat-service/internal/memstore"
	"github.com/cwrk-planet/chat-service/internal/metrics"
	"github.com/cwrk-planet/chat-service/internal/postgres"
	"github.com/cwrk-planet/chat-service/internal/redisx"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/telemetry"
	grpcx "github.com/cwrk-planet/chat-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/chat-service/internal/transport/http"
	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("chat-service failed", "err", err)
		os.Exit(1)
	}
}

// run поднимает сервис и блокируется до сигнала; все defer отрабатывают
// и при ошибке старта.
func run() error {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = events.ParseBrokers(v)
	}

	logOut, closeLog, err := logger.OpenOutput(cfg.Logging.Output)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger.Init(logger.Config{
		Env:              logger.ParseEnv(cfg.Logging.Env),
		Service:          cfg.Logging.Service,
		Version:          cfg.Logging.Version,
		Backend:          logger.Backend(cfg.Logging.Backend),
		Level:            logger.ParseLevel(cfg.Logging.Level),
		AddSource:        cfg.Logging.AddSource,
		Debug:            cfg.Logging.Debug,
		SampleInitial:    cfg.Logging.SampleInitial,
		SampleThereafter: cfg.Logging.SampleThereafter,
		Output:           logOut,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx := context.Background()

	// --- telemetry ---
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Service:     cfg.Logging.Service,
		Version:     cfg.Logging.Version,
		Env:         cfg.Logging.Env,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	metrics.Register(prometheus.DefaultRegisterer)

	// --- storage ---
	var st service.Store
	switch cfg.Storage.Driver {
	case "memory":
		db := memstore.New()
		st = service.Store{
			Chats:     db.Chats(),
			Members:   db.Members(),
			Messages:  db.Messages(),
			Reactions: db.Reactions(),
			Reads:     db.Reads(),
		}
	default:
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:               cfg.Postgres.DSN,
			MaxConns:          cfg.Postgres.MaxConns,
			MinConns:          cfg.Postgres.MinConns,
			MaxConnLifetime:   cfg.Postgres.MaxConnLifetime,
			MaxConnIdleTime:   cfg.Postgres.MaxConnIdleTime,
			HealthCheckPeriod: cfg.Postgres.HealthCheckPeriod,
			ApplicationName:   cfg.Postgres.ApplicationName,
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("postgres migrate: %w", err)
			}
		}
		st = service.Store{
			Chats:     postgres.NewChatRepository(pool),
			Members:   postgres.NewMemberRepository(pool),
			Messages:  postgres.NewMessageRepository(pool),
			Reactions: postgres.NewReactionRepository(pool),
			Reads:     postgres.NewReadRepository(pool),
		}
	}

	// --- events ---
	var pub events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kp.Close() }()
		pub = kp
		slog.Info("kafka events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	// --- identity ---
	var resolver identity.Resolver
	switch cfg.Auth.Mode {
	case "header":
		slog.Warn("auth.mode=header: tokens are not verified")
		resolver = identity.HeaderResolver{}
	default:
		key, err := identity.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
		if err != nil {
			return fmt.Errorf("jwt public key: %w", err)
		}
		resolver = identity.NewJWTVerifier(key, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.ClockSkew)
	}

	// --- rate limiter (опционально) ---
	var httpLimiter httpmw.Limiter
	var grpcLimiter grpcx.Limiter
	if cfg.Redis.Addr != "" && cfg.Limits.SendRate > 0 {
		rdb, err := redisx.NewClient(ctx, redisx.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		lim := redisx.NewLimiter(rdb, cfg.Limits.SendRate, cfg.Limits.SendWindow)
		httpLimiter, grpcLimiter = lim, lim
	}

	// --- services ---
	svc := service.NewSet(st, pub, service.Limits{
		MaxMessageLength: cfg.Limits.MaxMessageLength,
		DefaultPageSize:  cfg.Limits.DefaultPageSize,
		MaxPageSize:      cfg.Limits.MaxPageSize,
	})

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:        httpx.NewHandler(svc),
		Resolver:       resolver,
		Limiter:        httpLimiter,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// --- gRPC ---
	grpcServer := grpc.NewServer(grpcx.ServerOptions(grpcx.Options{
		Resolver: resolver,
		Limiter:  grpcLimiter,
		Timeout:  cfg.HTTP.RequestTimeout,
	})...)
	grpcx.Register(grpcServer, grpcx.NewServer(svc))

	// --- run both servers ---
	errCh := make(chan error, 2)
	var serveErr error

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case serveErr = <-errCh:
		slog.Error("server error", "err", serveErr)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		slog.Error("http shutdown", "err", err)
	}
	if err := shutdownTracing(ctxShutdown); err != nil {
		slog.Warn("tracing shutdown", "err", err)
	}
	slog.Info("stopped")
	return serveErr
}

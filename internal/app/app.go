package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/abasta/internal/backend"
	healthcheck "github.com/vladislavdragonenkov/abasta/internal/health"
	"github.com/vladislavdragonenkov/abasta/internal/metrics"
	"github.com/vladislavdragonenkov/abasta/internal/service/compose"
	grpcsvc "github.com/vladislavdragonenkov/abasta/internal/service/grpc"
	"github.com/vladislavdragonenkov/abasta/internal/service/httpapi"
	"github.com/vladislavdragonenkov/abasta/internal/service/idempotency"
	"github.com/vladislavdragonenkov/abasta/internal/service/outbox"
	"github.com/vladislavdragonenkov/abasta/internal/session"
	"github.com/vladislavdragonenkov/abasta/internal/version"
	abastav1 "github.com/vladislavdragonenkov/abasta/proto/abasta/v1"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает хранилище, воркеры, gRPC и HTTP и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if deps.closeFn != nil {
		defer func() {
			if err := deps.closeFn(); err != nil {
				logger.WithError(err).Warn("failed to close storage")
			}
		}()
	}

	composeMetrics := metrics.NewComposeMetricsWithRegisterer(prometheus.DefaultRegisterer)
	client, err := backend.NewClient(cfg.BackendBaseURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(logger.WithField("component", "backend-client")),
		backend.WithObserver(composeMetrics),
	)
	if err != nil {
		return err
	}

	sessions := session.NewManager(client, cfg.SessionTTL, logger.WithField("component", "session-manager"))
	composeSvc := compose.NewService(compose.Dependencies{
		Orders:    client,
		Suppliers: client,
		Catalog:   client,
		Drafts:    deps.repo,
		Timeline:  deps.timelineRepo,
		Outbox:    deps.outboxRepo,
	},
		compose.WithLogger(logger.WithField("component", "compose-service")),
		compose.WithMetrics(composeMetrics),
		compose.WithSearchDebounce(cfg.SearchDebounce),
		compose.WithDefaultPageSize(cfg.DefaultPageSize),
	)
	sessions.Subscribe(composeSvc)

	// Kafka опциональна: без брокеров события outbox логируются, статусы не синхронизируются.
	kafkaProducer, _ := initKafkaProducer(cfg.Brokers(), logger)
	defer closeKafka(kafkaProducer, logger)

	publisher, dlqPublisher := outboxPublishers(kafkaProducer, cfg.KafkaEventsTopic, logger.WithField("component", "outbox-publisher"))
	outboxWorker := outbox.NewWorker(deps.outboxRepo, publisher,
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithMetrics(metrics.NewOutboxMetricsWithRegisterer(prometheus.DefaultRegisterer)),
		outbox.WithDLQPublisher(dlqPublisher),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
	outboxCancel, outboxDone := startBackground(ctx, outboxWorker.Run)
	defer stopBackground("outbox worker", outboxCancel, outboxDone, logger)

	cleanupWorker := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithMetrics(metrics.NewCleanupMetricsWithRegisterer(prometheus.DefaultRegisterer)),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
		idempotency.WithStaleAfter(cfg.IdempotencyStaleAfter),
	)
	cleanupCancel, cleanupDone := startBackground(ctx, cleanupWorker.Run)
	defer stopBackground("idempotency cleanup", cleanupCancel, cleanupDone, logger)

	statusConsumer := startStatusConsumer(cfg, composeSvc, kafkaProducer, logger)
	if statusConsumer != nil {
		if err := statusConsumer.Start(ctx); err != nil {
			logger.WithError(err).Warn("failed to start status consumer")
		}
		defer stopConsumer(statusConsumer, logger)
	}

	grpcMetrics := promgrpc.NewServerMetrics()
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	composeServer := grpcsvc.NewComposeService(composeSvc, sessions, deps.idempotencyRepo, composeMetrics, logger.WithField("layer", "grpc"))
	abastav1.RegisterComposeServiceServer(grpcServer, composeServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	// reflection нужен grpcurl
	reflection.Register(grpcServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(abastav1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	healthHandler := newHealthHandler(deps, client)
	api := httpapi.NewHandler(composeSvc, sessions, logger.WithField("layer", "http"))
	httpSrv := startHTTPServer(ctx, cfg.HTTPAddr, logger, newHTTPRouter(healthHandler, api))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(httpSrv, logger)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", cfg.GRPCAddr)
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.Shutdown()
		stopGRPC(grpcServer, logger)
		shutdownHTTP(httpSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(httpSrv, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// newHealthHandler регистрирует проверки: хранилище критично, backend нет.
func newHealthHandler(deps runtimeDependencies, client *backend.Client) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		handler.RegisterChecker("storage", deps.storageChecker)
	} else {
		handler.RegisterChecker("storage", healthcheck.NewSimpleChecker("memory", func(context.Context) error { return nil }))
	}
	if client != nil {
		handler.RegisterOptional("backend", healthcheck.NewSimpleChecker("backend", client.Ping))
	}
	return handler
}

// stopGRPC ждёт GracefulStop не дольше shutdownTimeout.
func stopGRPC(server *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

// startBackground запускает run в отдельной горутине со своим cancel.
func startBackground(ctx context.Context, run func(context.Context)) (context.CancelFunc, <-chan struct{}) {
	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(workerCtx)
	}()
	return cancel, done
}

// stopBackground отменяет воркер и ждёт его завершения.
func stopBackground(name string, cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logger.WithField("worker", name).Warn("worker did not stop in time")
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/abasta/internal/health"
	"github.com/vladislavdragonenkov/abasta/internal/storage/memory"
	"github.com/vladislavdragonenkov/abasta/internal/storage/postgres"
)

// runtimeDependencies: хранилища, выбранные драйвером.
type runtimeDependencies struct {
	repo            domain.DraftRepository
	outboxRepo      domain.OutboxRepository
	timelineRepo    domain.TimelineRepository
	idempotencyRepo domain.IdempotencyRepository
	// storageChecker задан только для postgres.
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory storage")
		return runtimeDependencies{
			repo:            memory.NewDraftRepository(),
			outboxRepo:      memory.NewOutboxRepository(),
			timelineRepo:    memory.NewTimelineRepository(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
		}, nil
	case StorageDriverPostgres:
		return initPostgresDependencies(ctx, cfg, logger)
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	dsn := strings.TrimSpace(cfg.PostgresDSN)
	if dsn == "" {
		return runtimeDependencies{}, errors.New("postgres dsn is required for postgres storage")
	}

	store, err := postgres.OpenWithOptions(ctx, dsn, cfg.PostgresPool)
	if err != nil {
		return runtimeDependencies{}, err
	}
	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return runtimeDependencies{}, fmt.Errorf("apply postgres migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	logger.Info("using postgres storage")
	return runtimeDependencies{
		repo:            postgres.NewDraftRepository(store),
		outboxRepo:      postgres.NewOutboxRepository(store),
		timelineRepo:    postgres.NewTimelineRepository(store),
		idempotencyRepo: postgres.NewIdempotencyRepository(store),
		storageChecker:  healthcheck.NewSimpleChecker("postgres", store.Ping),
		closeFn:         store.Close,
	}, nil
}

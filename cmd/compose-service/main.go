package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/app"
	"github.com/vladislavdragonenkov/abasta/internal/version"
)

const (
	envFile     = "ABASTA_ENV_FILE"
	envLogLevel = "ABASTA_LOG_LEVEL"

	envGRPCAddr       = "ABASTA_GRPC_ADDR"
	envHTTPAddr       = "ABASTA_HTTP_ADDR"
	envBackendURL     = "ABASTA_BACKEND_URL"
	envBackendTimeout = "ABASTA_BACKEND_TIMEOUT"
	envSessionTTL     = "ABASTA_SESSION_TTL"

	envStorageDriver       = "ABASTA_STORAGE_DRIVER"
	envPostgresDSN         = "ABASTA_POSTGRES_DSN"
	envPostgresAutoMigrate = "ABASTA_POSTGRES_AUTO_MIGRATE"
	envPostgresMaxOpen     = "ABASTA_POSTGRES_MAX_OPEN_CONNS"
	envPostgresMaxIdle     = "ABASTA_POSTGRES_MAX_IDLE_CONNS"

	envKafkaBrokers     = "ABASTA_KAFKA_BROKERS"
	envKafkaEventsTopic = "ABASTA_KAFKA_EVENTS_TOPIC"
	envKafkaStatusTopic = "ABASTA_KAFKA_STATUS_TOPIC"
	envKafkaGroupID     = "ABASTA_KAFKA_GROUP_ID"

	envOutboxPollInterval = "ABASTA_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize    = "ABASTA_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts  = "ABASTA_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay   = "ABASTA_OUTBOX_RETRY_DELAY"

	envIdempotencyCleanupInterval  = "ABASTA_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "ABASTA_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envIdempotencyStaleAfter       = "ABASTA_IDEMPOTENCY_STALE_AFTER"

	envSearchDebounce  = "ABASTA_SEARCH_DEBOUNCE"
	envDefaultPageSize = "ABASTA_DEFAULT_PAGE_SIZE"

	defaultEnvFile = ".env"
)

// envLookup совпадает с os.LookupEnv; в тестах подменяется map.
type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if raw, ok := lookup(envLogLevel); ok && strings.TrimSpace(raw) != "" {
		level, err := log.ParseLevel(strings.TrimSpace(raw))
		if err != nil {
			log.WithError(err).Warnf("invalid %s, using info", envLogLevel)
			return
		}
		log.SetLevel(level)
	}
}

// loadEnvFile подгружает .env. Отсутствие файла по умолчанию не считается ошибкой.
func loadEnvFile(lookup envLookup) error {
	path, explicit := lookup(envFile)
	path = strings.TrimSpace(path)
	if path == "" {
		path, explicit = defaultEnvFile, false
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// readConfigFromEnv накладывает ABASTA_* поверх DefaultConfig.
// Некорректные значения пропускаются с предупреждением, остаётся значение по умолчанию.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string
	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, raw, err))
	}

	setString := func(key string, target *string) {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			*target = strings.TrimSpace(raw)
		}
	}
	setBool := func(key string, target *bool) {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			value, err := parseBool(raw)
			if err != nil {
				warn(key, raw, err)
				return
			}
			*target = value
		}
	}
	setInt := func(key string, target *int, valid func(int) bool, rule string) {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			value, err := parseInt(raw, valid, rule)
			if err != nil {
				warn(key, raw, err)
				return
			}
			*target = value
		}
	}
	setDuration := func(key string, target *time.Duration, valid func(time.Duration) bool, rule string) {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			value, err := parseDuration(raw, valid, rule)
			if err != nil {
				warn(key, raw, err)
				return
			}
			*target = value
		}
	}
	positive := func(v int) bool { return v > 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }
	nonNegativeDuration := func(v time.Duration) bool { return v >= 0 }

	setString(envGRPCAddr, &cfg.GRPCAddr)
	setString(envHTTPAddr, &cfg.HTTPAddr)
	setString(envBackendURL, &cfg.BackendBaseURL)
	setDuration(envBackendTimeout, &cfg.BackendTimeout, nonNegativeDuration, "must be >= 0")
	setDuration(envSessionTTL, &cfg.SessionTTL, nonNegativeDuration, "must be >= 0")

	setString(envStorageDriver, &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	setString(envPostgresDSN, &cfg.PostgresDSN)
	setBool(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	setInt(envPostgresMaxOpen, &cfg.PostgresPool.MaxOpenConns, positive, "must be > 0")
	setInt(envPostgresMaxIdle, &cfg.PostgresPool.MaxIdleConns, positive, "must be > 0")

	setString(envKafkaBrokers, &cfg.KafkaBrokers)
	setString(envKafkaEventsTopic, &cfg.KafkaEventsTopic)
	setString(envKafkaStatusTopic, &cfg.KafkaStatusTopic)
	setString(envKafkaGroupID, &cfg.KafkaGroupID)

	setDuration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	setInt(envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0")
	setInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0")
	setDuration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegativeDuration, "must be >= 0")

	setDuration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0")
	setInt(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positive, "must be > 0")
	setDuration(envIdempotencyStaleAfter, &cfg.IdempotencyStaleAfter, positiveDuration, "must be > 0")

	setDuration(envSearchDebounce, &cfg.SearchDebounce, nonNegativeDuration, "must be >= 0")
	setInt(envDefaultPageSize, &cfg.DefaultPageSize, func(v int) bool {
		return v == 10 || v == 20 || v == 50 || v == 100
	}, "must be one of 10, 20, 50, 100")

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func main() {
	if err := loadEnvFile(os.LookupEnv); err != nil {
		log.WithError(err).Fatal("не удалось загрузить env-файл")
	}
	setupLogger(os.LookupEnv)

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"grpc_addr":      cfg.GRPCAddr,
		"http_addr":      cfg.HTTPAddr,
		"backend_url":    cfg.BackendBaseURL,
		"storage_driver": cfg.StorageDriver,
		"kafka_enabled":  len(cfg.Brokers()) > 0,
		"version":        version.GetVersion(),
	}).Info("запускаем ComposeService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("ComposeService остановлен")
}

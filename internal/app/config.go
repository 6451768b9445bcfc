package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/abasta/internal/service/catalog"
	"github.com/vladislavdragonenkov/abasta/internal/storage/postgres"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска compose-сервиса.
type Config struct {
	GRPCAddr string
	// HTTPAddr обслуживает /metrics, health-пробы и /v1/drafts.
	HTTPAddr string

	BackendBaseURL string
	// BackendTimeout ограничивает один запрос к backend; 0 отключает ограничение.
	BackendTimeout time.Duration
	// SessionTTL: локальный срок жизни сессии пользователя; 0, без истечения.
	SessionTTL time.Duration

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	PostgresPool        postgres.PoolOptions

	// KafkaBrokers: список через запятую; пустой отключает Kafka.
	KafkaBrokers       string
	KafkaEventsTopic   string
	KafkaStatusTopic   string
	KafkaGroupID       string
	KafkaConsumerRetry int

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	// IdempotencyStaleAfter: возраст processing-ключа, после которого его освобождают.
	IdempotencyStaleAfter time.Duration

	SearchDebounce  time.Duration
	DefaultPageSize int
}

// DefaultConfig возвращает конфигурацию для локального запуска с in-memory хранилищем.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:                    ":50051",
		HTTPAddr:                    ":9090",
		BackendBaseURL:              "http://localhost:8080",
		SessionTTL:                  12 * time.Hour,
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		KafkaEventsTopic:            kafka.TopicOrderEvents,
		KafkaStatusTopic:            kafka.TopicOrderStatus,
		KafkaGroupID:                "abasta-compose",
		KafkaConsumerRetry:          3,
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            50 * time.Millisecond,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
		IdempotencyStaleAfter:       5 * time.Minute,
		SearchDebounce:              catalog.DefaultDebounce,
		DefaultPageSize:             domain.DefaultPageSize,
	}
}

// Validate проверяет сочетания параметров до старта зависимостей.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.GRPCAddr) == "" {
		errs = append(errs, errors.New("grpc address is required"))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if parsed, err := url.Parse(c.BackendBaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("backend base url must be absolute: %q", c.BackendBaseURL))
	}
	if c.BackendTimeout < 0 {
		errs = append(errs, errors.New("backend timeout must not be negative"))
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	if len(c.Brokers()) > 0 {
		if c.KafkaEventsTopic == "" || c.KafkaStatusTopic == "" {
			errs = append(errs, errors.New("kafka topics are required when brokers are set"))
		}
		if c.KafkaGroupID == "" {
			errs = append(errs, errors.New("kafka group id is required when brokers are set"))
		}
	}

	if c.OutboxPollInterval <= 0 || c.OutboxBatchSize <= 0 || c.OutboxMaxAttempts <= 0 || c.OutboxRetryDelay < 0 {
		errs = append(errs, errors.New("outbox settings must be positive"))
	}
	if c.IdempotencyCleanupInterval <= 0 || c.IdempotencyCleanupBatchSize <= 0 {
		errs = append(errs, errors.New("idempotency cleanup settings must be positive"))
	}
	if c.IdempotencyStaleAfter <= c.BackendTimeout {
		errs = append(errs, errors.New("idempotency stale-after must exceed backend timeout"))
	}
	if c.SearchDebounce < 0 {
		errs = append(errs, errors.New("search debounce must not be negative"))
	}
	if !domain.ValidPageSize(c.DefaultPageSize) {
		errs = append(errs, domain.ErrInvalidPageSize)
	}
	return errors.Join(errs...)
}

// Brokers разбирает KafkaBrokers, отбрасывая пустые элементы.
func (c Config) Brokers() []string {
	var out []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			out = append(out, broker)
		}
	}
	return out
}

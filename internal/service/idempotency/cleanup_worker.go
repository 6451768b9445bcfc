package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
	"github.com/vladislavdragonenkov/abasta/internal/metrics"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
	// defaultStaleAfter заметно больше таймаута запроса к backend.
	defaultStaleAfter = 5 * time.Minute
)

// CleanupOptions задает параметры воркера очистки ключей SaveDraft/SendOrder.
type CleanupOptions struct {
	Logger    *log.Entry
	Metrics   *metrics.CleanupMetrics
	Interval  time.Duration
	BatchSize int
	// StaleAfter: через сколько processing-запись без обновлений считается брошенной.
	StaleAfter time.Duration
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupOptions)

// WithLogger задает logger для воркера.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(opts *CleanupOptions) { opts.Logger = logger }
}

// WithMetrics задает метрики воркера.
func WithMetrics(m *metrics.CleanupMetrics) CleanupOption {
	return func(opts *CleanupOptions) { opts.Metrics = m }
}

// WithInterval задает интервал между проходами.
func WithInterval(interval time.Duration) CleanupOption {
	return func(opts *CleanupOptions) { opts.Interval = interval }
}

// WithBatchSize задает размер одной порции удаления.
func WithBatchSize(batchSize int) CleanupOption {
	return func(opts *CleanupOptions) { opts.BatchSize = batchSize }
}

// WithStaleAfter задает порог для зависших processing-записей.
func WithStaleAfter(d time.Duration) CleanupOption {
	return func(opts *CleanupOptions) { opts.StaleAfter = d }
}

// SweepResult: итог одного прохода воркера.
type SweepResult struct {
	Expired  int
	Released int
}

// CleanupWorker убирает просроченные ключи и освобождает ключи, чей обработчик
// упал или был перезапущен посреди SaveDraft/SendOrder. Без второго шага клиент
// получает "already processing" на каждый повтор до истечения TTL.
type CleanupWorker struct {
	repo       domain.IdempotencyRepository
	metrics    *metrics.CleanupMetrics
	logger     *log.Entry
	interval   time.Duration
	batchSize  int
	staleAfter time.Duration
}

// NewCleanupWorker создает воркер очистки idempotency ключей.
func NewCleanupWorker(repo domain.IdempotencyRepository, options ...CleanupOption) *CleanupWorker {
	opts := CleanupOptions{}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "idempotency-cleanup-worker")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultCleanupInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultCleanupBatchSize
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultStaleAfter
	}

	return &CleanupWorker{
		repo:       repo,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		interval:   opts.Interval,
		batchSize:  opts.BatchSize,
		staleAfter: opts.StaleAfter,
	}
}

// Run выполняет проход сразу и затем раз в interval до отмены ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup worker is disabled: repo is nil")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx, time.Now().UTC())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *CleanupWorker) runOnce(ctx context.Context, now time.Time) {
	result, err := w.Sweep(ctx, now)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		w.metrics.RecordRun("error", result.Expired)
		w.logger.WithError(err).WithFields(log.Fields{
			"deleted":  result.Expired,
			"released": result.Released,
		}).Warn("idempotency cleanup run failed")
		return
	}

	w.metrics.RecordRun("ok", result.Expired)
	if result.Released > 0 {
		w.logger.WithField("released", result.Released).Warn("released stale processing idempotency keys")
	}
	if result.Expired > 0 {
		w.logger.WithField("deleted", result.Expired).Info("idempotency cleanup completed")
	}
}

// Sweep удаляет записи с ttl <= now и освобождает processing-записи,
// не обновлявшиеся дольше staleAfter.
func (w *CleanupWorker) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var (
		result SweepResult
		err    error
	)
	result.Expired, err = w.DeleteExpired(ctx, now)
	if err != nil {
		return result, err
	}
	result.Released, err = w.ReleaseStale(ctx, now)
	return result, err
}

// DeleteExpired удаляет все записи с ttl <= before порциями batchSize.
func (w *CleanupWorker) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}
	total, err := w.drain(ctx, func(limit int) (int, error) {
		return w.repo.DeleteExpired(before, limit)
	}, w.metrics.AddDeleted)
	if err != nil {
		return total, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	return total, nil
}

// ReleaseStale удаляет processing-записи, не обновлявшиеся с now-staleAfter.
func (w *CleanupWorker) ReleaseStale(ctx context.Context, now time.Time) (int, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	cutoff := now.Add(-w.staleAfter)
	total, err := w.drain(ctx, func(limit int) (int, error) {
		return w.repo.ReleaseStale(cutoff, limit)
	}, w.metrics.AddReleased)
	if err != nil {
		return total, fmt.Errorf("release stale idempotency keys: %w", err)
	}
	return total, nil
}

// drain вызывает step порциями, пока порция не окажется неполной.
func (w *CleanupWorker) drain(ctx context.Context, step func(limit int) (int, error), observe func(int)) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := step(w.batchSize)
		if err != nil {
			return total, err
		}
		total += n
		observe(n)
		if n < w.batchSize {
			return total, nil
		}
	}
}

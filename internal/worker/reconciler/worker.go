package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/PetCare-SlotService/pkg/metrics"
)

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

// Worker периодически сверяет счетчики ledger с числом бронирований,
// которые занимают место. Чинит расхождения после сбоев компенсации
type Worker struct {
	ledger       Ledger
	bookings     BookingCounter
	metrics      MetricsRecorder
	logger       Logger
	timeProvider TimeProvider

	interval    time.Duration
	gracePeriod time.Duration
	batchSize   int
}

// NewWorker создает воркер сверки
// gracePeriod не дает трогать записи, которые могут меняться прямо сейчас
func NewWorker(ledger Ledger, bookings BookingCounter, m MetricsRecorder, logger Logger,
	interval, gracePeriod time.Duration, batchSize int) *Worker {
	if m == nil {
		m = (*metrics.Metrics)(nil)
	}
	return &Worker{
		ledger:       ledger,
		bookings:     bookings,
		metrics:      m,
		logger:       logger,
		timeProvider: realTimeProvider{},
		interval:     interval,
		gracePeriod:  gracePeriod,
		batchSize:    batchSize,
	}
}

// WithTimeProvider подменяет источник времени
func (w *Worker) WithTimeProvider(tp TimeProvider) *Worker {
	w.timeProvider = tp
	return w
}

// Start запускает цикл сверки до отмены ctx
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Reconciler: started with interval %s, grace period %s", w.interval, w.gracePeriod)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reconciler: stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("Reconciler: sweep failed: %v", err)
			}
		}
	}
}

// RunOnce выполняет один проход сверки и возвращает число исправленных записей
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	before := w.timeProvider.Now().Add(-w.gracePeriod)

	entries, err := w.ledger.Stale(ctx, before, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale ledger entries: %w", err)
	}

	adjusted := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return adjusted, ctx.Err()
		}

		actual, err := w.bookings.CountOccupying(ctx, entry.Key)
		if err != nil {
			w.logger.Warn("Reconciler: failed to count bookings for %s: %v", entry.Key, err)
			continue
		}

		// Reconcile помечает запись сверенной даже без расхождения
		applied, err := w.ledger.Reconcile(ctx, entry, actual)
		if err != nil {
			w.logger.Warn("Reconciler: failed to reconcile %s: %v", entry.Key, err)
			continue
		}
		if !applied || actual == entry.Occupied {
			continue
		}

		adjusted++
		w.metrics.RecordReconcileAdjustment(entry.Key.ServiceID.String())
		w.logger.Warn("Reconciler: slot %s corrected from %d to %d", entry.Key, entry.Occupied, actual)
	}

	if adjusted > 0 {
		w.logger.Info("Reconciler: corrected %d of %d entries", adjusted, len(entries))
	}
	return adjusted, nil
}

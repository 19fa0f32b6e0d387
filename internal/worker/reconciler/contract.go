package reconciler

import (
	"context"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

// Ledger счетчики занятости, которые умеют отдавать давно не менявшиеся записи
type Ledger interface {
	Stale(ctx context.Context, before time.Time, limit int) ([]domain.LedgerEntry, error)
	Reconcile(ctx context.Context, entry domain.LedgerEntry, actual int) (bool, error)
}

// BookingCounter источник истины о занятости слота
type BookingCounter interface {
	CountOccupying(ctx context.Context, key domain.SlotKey) (int, error)
}

// MetricsRecorder интерфейс для метрик сверки
type MetricsRecorder interface {
	RecordReconcileAdjustment(serviceID string)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

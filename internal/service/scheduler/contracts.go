package scheduler

import (
	"context"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// CapacityLedger счетчики занятости слотов
// TryReserve возвращает (false, nil), если слот заполнен; ошибки хранилища
// оборачивают domain.ErrStorageUnavailable и никогда не означают «заполнен»
type CapacityLedger interface {
	TryReserve(ctx context.Context, key domain.SlotKey, capacity int) (bool, error)
	Release(ctx context.Context, key domain.SlotKey) error
	OccupiedCount(ctx context.Context, key domain.SlotKey) (int, error)
	Snapshot(ctx context.Context, serviceID domain.ServiceID, date time.Time) (map[types.TimeString]domain.LedgerEntry, error)
	// Transactional true, если операции ledger выполняются в транзакции из контекста
	Transactional() bool
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	GetByServiceDate(ctx context.Context, serviceID domain.ServiceID, date time.Time, includeInactive bool) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error)
	Reschedule(ctx context.Context, current *domain.Booking, to domain.SlotKey, configVersion int) (*domain.Booking, error)
}

// ScheduleStore источник действующей версии расписания
type ScheduleStore interface {
	GetEffective(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error)
}

// CacheInvalidator внешний кэш доступности, который нужно сбросить после изменений
type CacheInvalidator interface {
	Invalidate(ctx context.Context, serviceID domain.ServiceID, dates ...time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder учет операций с ledger
type MetricsRecorder interface {
	RecordLedger(serviceID, operation, result string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

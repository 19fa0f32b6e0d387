package schedule

import (
	"context"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

// ConfigRepository интерфейс хранилища версий расписания
type ConfigRepository interface {
	Create(ctx context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error)
	GetEffective(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error)
	GetByVersion(ctx context.Context, serviceID domain.ServiceID, version int) (*domain.ScheduleConfig, error)
	ListVersions(ctx context.Context, serviceID domain.ServiceID) ([]*domain.ScheduleConfig, error)
}

// CacheInvalidator внешний кэш доступности слотов
type CacheInvalidator interface {
	Invalidate(ctx context.Context, serviceID domain.ServiceID, dates ...time.Time) error
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

package schedule

import (
	"context"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

// Store хранилище версий расписания, которое оборачивает кэш
type Store interface {
	Create(ctx context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error)
	GetEffective(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error)
	GetByVersion(ctx context.Context, serviceID domain.ServiceID, version int) (*domain.ScheduleConfig, error)
	ListVersions(ctx context.Context, serviceID domain.ServiceID) ([]*domain.ScheduleConfig, error)
}

package get_schedule_config

import (
	"context"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/schedule/models"
)

type ScheduleService interface {
	GetEffective(ctx context.Context, serviceID domain.ServiceID, date *time.Time) (*models.ConfigResponse, error)
	GetVersion(ctx context.Context, serviceID domain.ServiceID, version int) (*models.ConfigResponse, error)
	ListVersions(ctx context.Context, serviceID domain.ServiceID) (*models.ConfigListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

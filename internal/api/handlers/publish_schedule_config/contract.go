package publish_schedule_config

import (
	"context"

	"github.com/m04kA/PetCare-SlotService/internal/service/schedule/models"
)

type ScheduleService interface {
	Publish(ctx context.Context, req *models.PublishConfigRequest) (*models.ConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
)

type SlotService interface {
	ListAvailableSlots(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*models.AvailableSlots, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

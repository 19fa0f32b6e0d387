package complete_booking

import (
	"context"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
)

type BookingService interface {
	CompleteBooking(ctx context.Context, bookingID int64, actor models.Actor) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

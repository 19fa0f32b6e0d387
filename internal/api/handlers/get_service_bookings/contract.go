package get_service_bookings

import (
	"context"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

type BookingService interface {
	GetServiceBookings(ctx context.Context, serviceID domain.ServiceID, date time.Time, includeInactive bool) ([]*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

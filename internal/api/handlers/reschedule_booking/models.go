package reschedule_booking

import (
	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *RescheduleBookingRequest) ToServiceRequest(bookingID int64, actor models.Actor) (*models.RescheduleBookingRequest, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &models.RescheduleBookingRequest{
		BookingID: bookingID,
		Actor:     actor,
		Date:      date,
		StartTime: startTime,
	}, nil
}

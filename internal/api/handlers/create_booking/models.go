package create_booking

import (
	"encoding/json"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	Date      string          `json:"date" validate:"required,date"`          // "2026-03-02"
	StartTime string          `json:"startTime" validate:"required,hhmm"`     // "09:30"
	Payload   json.RawMessage `json:"payload,omitempty" validate:"max=16384"` // данные визита
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateBookingRequest) ToServiceRequest(userID int64, serviceID domain.ServiceID) (*models.CreateBookingRequest, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &models.CreateBookingRequest{
		UserID:    userID,
		ServiceID: serviceID,
		Date:      date,
		StartTime: startTime,
		Payload:   r.Payload,
	}, nil
}

package get_available_slots

import (
	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
)

// SlotResponse HTTP модель слота
type SlotResponse struct {
	StartTime string `json:"startTime"`
	Remaining int    `json:"remaining"`
	Capacity  int    `json:"capacity"`
}

// AvailableSlotsResponse HTTP ответ со списком слотов
type AvailableSlotsResponse struct {
	ServiceID     string         `json:"serviceId"`
	Date          string         `json:"date"`
	ConfigVersion int            `json:"configVersion"`
	Slots         []SlotResponse `json:"slots"`
}

// FromServiceResponse конвертирует ответ сервиса в HTTP response
func FromServiceResponse(resp *models.AvailableSlots) *AvailableSlotsResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			StartTime: s.StartTime.String(),
			Remaining: s.Remaining,
			Capacity:  s.Capacity,
		})
	}

	return &AvailableSlotsResponse{
		ServiceID:     resp.ServiceID.String(),
		Date:          resp.Date.Format(domain.DateFormat),
		ConfigVersion: resp.ConfigVersion,
		Slots:         slots,
	}
}

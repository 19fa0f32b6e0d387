package handlers

import (
	"encoding/json"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

// BookingResponse HTTP модель бронирования
type BookingResponse struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	ServiceID     string          `json:"serviceId"`
	Date          string          `json:"date"`
	StartTime     string          `json:"startTime"`
	Status        string          `json:"status"`
	ConfigVersion int             `json:"configVersion"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CancelledAt   *string         `json:"cancelledAt,omitempty"`
	CompletedAt   *string         `json:"completedAt,omitempty"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

// FromDomainBooking конвертирует domain модель в HTTP ответ
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}
	return &BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		ServiceID:     b.ServiceID.String(),
		Date:          b.Date.Format(domain.DateFormat),
		StartTime:     b.StartTime.String(),
		Status:        string(b.Status),
		ConfigVersion: b.ConfigVersion,
		Payload:       b.Payload,
		CancelledAt:   formatOptional(b.CancelledAt),
		CompletedAt:   formatOptional(b.CompletedAt),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.Format(time.RFC3339),
	}
}

// FromDomainBookings конвертирует список бронирований
func FromDomainBookings(bookings []*domain.Booking) []*BookingResponse {
	result := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, FromDomainBooking(b))
	}
	return result
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

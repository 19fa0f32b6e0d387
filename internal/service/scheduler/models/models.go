package models

import (
	"encoding/json"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// Actor пользователь, от имени которого выполняется операция
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// CanAccess владелец бронирования или администратор
func (a Actor) CanAccess(b *domain.Booking) bool {
	return a.IsAdmin || b.UserID == a.UserID
}

// CreateBookingRequest запрос на бронирование слота
type CreateBookingRequest struct {
	UserID    int64
	ServiceID domain.ServiceID
	Date      time.Time
	StartTime types.TimeString
	Payload   json.RawMessage
}

// RescheduleBookingRequest запрос на перенос бронирования
type RescheduleBookingRequest struct {
	BookingID int64
	Actor     Actor
	Date      time.Time
	StartTime types.TimeString
}

// AvailableSlots свободные слоты услуги на дату
type AvailableSlots struct {
	ServiceID     domain.ServiceID
	Date          time.Time
	ConfigVersion int
	Slots         []domain.AvailableSlot
}

package domain

import (
	"encoding/json"
	"time"

	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending     BookingStatus = "pending"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusRescheduled BookingStatus = "rescheduled"
	StatusCancelled   BookingStatus = "cancelled"
	StatusCompleted   BookingStatus = "completed"
)

// IsValid returns true for a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRescheduled, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// In returns true if s is one of statuses
func (s BookingStatus) In(statuses []BookingStatus) bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsActive returns true if the visit is still ahead (pending, confirmed or rescheduled)
func (s BookingStatus) IsActive() bool {
	return s.In(HoldingStatuses)
}

// Booking бронирование слота. Payload хранит данные конкретного типа визита
// (питомец, заметки и т.п.), сервис их не интерпретирует
type Booking struct {
	ID            int64
	UserID        int64
	ServiceID     ServiceID
	Date          time.Time
	StartTime     types.TimeString
	Status        BookingStatus
	ConfigVersion int
	Payload       json.RawMessage

	CancelledAt *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key слот, который занимает бронирование
func (b *Booking) Key() SlotKey {
	return NewSlotKey(b.ServiceID, b.Date, b.StartTime)
}

// IsActive returns true if the booking is still ahead
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status.IsActive()
}

// CanBeRescheduled returns true if the booking can move to another slot
func (b *Booking) CanBeRescheduled() bool {
	return b.Status.In(ReschedulableStatuses)
}

// CanBeCompleted returns true if the visit can be marked completed
func (b *Booking) CanBeCompleted() bool {
	return b.Status.In(CompletableStatuses)
}

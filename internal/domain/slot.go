package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// SlotKey идентификатор слота: услуга, календарная дата и время начала
type SlotKey struct {
	ServiceID ServiceID
	Date      time.Time
	StartTime types.TimeString
}

// NewSlotKey создает ключ, приводя дату к полуночи UTC, а время к виду HH:MM
func NewSlotKey(serviceID ServiceID, date time.Time, start types.TimeString) SlotKey {
	if m := start.Minutes(); m >= 0 {
		start, _ = types.NewTimeStringFromMinutes(m)
	}
	return SlotKey{ServiceID: serviceID, Date: NormalizeDate(date), StartTime: start}
}

// DateString дата в формате YYYY-MM-DD
func (k SlotKey) DateString() string {
	return k.Date.Format(DateFormat)
}

// String формат для логов: vaccination/2026-03-02/09:00
func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ServiceID, k.DateString(), k.StartTime)
}

// Equal сравнивает ключи без учета формата времени и часового пояса даты
func (k SlotKey) Equal(other SlotKey) bool {
	return k.ServiceID == other.ServiceID &&
		k.DateString() == other.DateString() &&
		k.StartTime.Equal(other.StartTime)
}

// LedgerEntry состояние счетчика занятости слота
type LedgerEntry struct {
	Key       SlotKey
	Occupied  int
	Capacity  int
	UpdatedAt time.Time
}

// Remaining свободные места
func (e LedgerEntry) Remaining() int {
	if e.Occupied >= e.Capacity {
		return 0
	}
	return e.Capacity - e.Occupied
}

// AvailableSlot represents a time slot shown to the client
type AvailableSlot struct {
	StartTime types.TimeString
	Capacity  int
	Remaining int
}

// IsFull returns true if the slot has no available spots
func (s *AvailableSlot) IsFull() bool {
	return s.Remaining <= 0
}

// OccupancyRate returns the occupancy rate as a percentage (0-100)
func (s *AvailableSlot) OccupancyRate() float64 {
	if s.Capacity == 0 {
		return 0
	}
	occupied := s.Capacity - s.Remaining
	return float64(occupied) / float64(s.Capacity) * 100
}

// NormalizeDate отбрасывает время и часовой пояс, оставляя календарную дату
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// ScheduleConfig версия правил расписания услуги
// Версии не изменяются после создания: новая версия действует с EffectiveFrom,
// уже забронированные слоты остаются действительными
type ScheduleConfig struct {
	ID                      int64
	ServiceID               ServiceID
	Version                 int
	EffectiveFrom           time.Time // календарная дата
	Start                   types.TimeString
	End                     types.TimeString
	GapMinutes              int
	PerSlotLimit            int
	ClosedWeekdays          WeekdaySet
	DisabledSlots           DisabledSlotList
	MinBookingNoticeMinutes int
	AdvanceBookingDays      int // 0 = unlimited
	CreatedBy               *int64
	CreatedAt               time.Time
}

// Validate проверяет правила расписания
func (c *ScheduleConfig) Validate() error {
	if !c.ServiceID.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidScheduleConfig, ErrUnknownService, c.ServiceID)
	}
	if err := c.Start.Validate(); err != nil {
		return fmt.Errorf("%w: start %q: %v", ErrInvalidScheduleConfig, c.Start, err)
	}
	if err := c.End.Validate(); err != nil {
		return fmt.Errorf("%w: end %q: %v", ErrInvalidScheduleConfig, c.End, err)
	}
	if !c.Start.IsBefore(c.End) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidScheduleConfig, c.Start, c.End)
	}
	if c.GapMinutes < MinGapMinutes || c.GapMinutes > MaxGapMinutes {
		return fmt.Errorf("%w: gap must be between %d and %d minutes, got %d",
			ErrInvalidScheduleConfig, MinGapMinutes, MaxGapMinutes, c.GapMinutes)
	}
	if c.PerSlotLimit < MinPerSlotLimit || c.PerSlotLimit > MaxPerSlotLimit {
		return fmt.Errorf("%w: per slot limit must be between %d and %d, got %d",
			ErrInvalidScheduleConfig, MinPerSlotLimit, MaxPerSlotLimit, c.PerSlotLimit)
	}
	if c.MinBookingNoticeMinutes < MinBookingNoticeMinutes || c.MinBookingNoticeMinutes > MaxBookingNoticeMinutes {
		return fmt.Errorf("%w: min booking notice must be between %d and %d minutes, got %d",
			ErrInvalidScheduleConfig, MinBookingNoticeMinutes, MaxBookingNoticeMinutes, c.MinBookingNoticeMinutes)
	}
	if c.AdvanceBookingDays < MinAdvanceBookingDays || c.AdvanceBookingDays > MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advance booking days must be between %d and %d, got %d",
			ErrInvalidScheduleConfig, MinAdvanceBookingDays, MaxAdvanceBookingDays, c.AdvanceBookingDays)
	}
	if err := c.ClosedWeekdays.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScheduleConfig, err)
	}
	if err := c.DisabledSlots.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScheduleConfig, err)
	}
	return nil
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (c *ScheduleConfig) HasAdvanceBookingLimit() bool {
	return c.AdvanceBookingDays > 0
}

// IsEffectiveOn returns true if this version may apply to date
func (c *ScheduleConfig) IsEffectiveOn(date time.Time) bool {
	return !NormalizeDate(c.EffectiveFrom).After(NormalizeDate(date))
}

// WeekdaySet дни недели, в которые слоты не генерируются
type WeekdaySet []time.Weekday

// Contains returns true if d is in the set
func (s WeekdaySet) Contains(d time.Weekday) bool {
	for _, w := range s {
		if w == d {
			return true
		}
	}
	return false
}

// Validate проверяет диапазон значений (Sunday=0 .. Saturday=6)
func (s WeekdaySet) Validate() error {
	for _, w := range s {
		if w < time.Sunday || w > time.Saturday {
			return fmt.Errorf("weekday %d is out of range", w)
		}
	}
	return nil
}

// Normalize убирает дубликаты и сортирует
func (s WeekdaySet) Normalize() WeekdaySet {
	seen := make(map[time.Weekday]struct{}, len(s))
	out := make(WeekdaySet, 0, len(s))
	for _, w := range s {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ints для хранения в INTEGER[]
func (s WeekdaySet) Ints() []int64 {
	out := make([]int64, len(s))
	for i, w := range s {
		out[i] = int64(w)
	}
	return out
}

// WeekdaySetFromInts обратное преобразование из INTEGER[]
func WeekdaySetFromInts(values []int64) WeekdaySet {
	out := make(WeekdaySet, len(values))
	for i, v := range values {
		out[i] = time.Weekday(v)
	}
	return out
}

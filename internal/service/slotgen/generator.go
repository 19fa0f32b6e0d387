package slotgen

import (
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// Generate возвращает упорядоченный список времен начала слотов на дату
// Слоты идут от Start с шагом GapMinutes, пока начало строго раньше End.
// Закрытый день недели дает пустой список; отключенные времена и диапазоны выбрасываются.
// Прошедшие слоты и минимальное время до записи здесь не учитываются
func Generate(cfg *domain.ScheduleConfig, date time.Time) []types.TimeString {
	if cfg.ClosedWeekdays.Contains(date.Weekday()) {
		return []types.TimeString{}
	}

	start, end := cfg.Start.Minutes(), cfg.End.Minutes()
	if start < 0 || end < 0 || cfg.GapMinutes <= 0 {
		return []types.TimeString{}
	}

	slots := make([]types.TimeString, 0, (end-start)/cfg.GapMinutes+1)
	for m := start; m < end; m += cfg.GapMinutes {
		t, err := types.NewTimeStringFromMinutes(m)
		if err != nil {
			break
		}
		if cfg.DisabledSlots.Blocks(t) {
			continue
		}
		slots = append(slots, t)
	}

	return slots
}

// IsOnGrid возвращает true, если t совпадает с одним из шагов сетки в [Start, End)
// без учета закрытых дней и отключений
func IsOnGrid(cfg *domain.ScheduleConfig, t types.TimeString) bool {
	m := t.Minutes()
	start, end := cfg.Start.Minutes(), cfg.End.Minutes()
	if m < 0 || start < 0 || cfg.GapMinutes <= 0 {
		return false
	}
	return m >= start && m < end && (m-start)%cfg.GapMinutes == 0
}

// Contains возвращает true, если t есть среди слотов Generate(cfg, date)
func Contains(cfg *domain.ScheduleConfig, date time.Time, t types.TimeString) bool {
	if !IsOnGrid(cfg, t) {
		return false
	}
	if cfg.ClosedWeekdays.Contains(date.Weekday()) {
		return false
	}
	return !cfg.DisabledSlots.Blocks(t)
}

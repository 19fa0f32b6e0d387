package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
	"github.com/m04kA/PetCare-SlotService/internal/service/slotgen"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// ListAvailableSlots слоты услуги на дату с оставшейся вместимостью
// Слоты раньше now + MinBookingNoticeMinutes исключаются; заполненные слоты
// показываются с Remaining = 0 или скрываются в зависимости от ShowFullSlots.
// Заполненность никогда не является ошибкой
func (s *Service) ListAvailableSlots(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*models.AvailableSlots, error) {
	if !serviceID.IsValid() {
		return nil, fmt.Errorf("%w: unknown service %q", ErrInvalidInput, serviceID)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	date = domain.NormalizeDate(date)

	s.logger.Info("ListAvailableSlots: service=%s, date=%s", serviceID, date.Format(domain.DateFormat))

	cfg, err := s.effectiveConfig(ctx, "ListAvailableSlots", serviceID, date)
	if err != nil {
		return nil, err
	}

	result := &models.AvailableSlots{
		ServiceID:     serviceID,
		Date:          date,
		ConfigVersion: cfg.Version,
		Slots:         []domain.AvailableSlot{},
	}

	now := s.now()
	if date.Before(s.today()) || isBeyondHorizon(date, now, cfg.AdvanceBookingDays) {
		return result, nil
	}

	candidates := make([]types.TimeString, 0)
	for _, t := range slotgen.Generate(cfg, date) {
		if isBeforeNotice(date, t, now, cfg.MinBookingNoticeMinutes) {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return result, nil
	}

	var entries map[types.TimeString]domain.LedgerEntry
	err = s.retry(ctx, "ListAvailableSlots", func() error {
		var err error
		entries, err = s.ledger.Snapshot(ctx, serviceID, date)
		return err
	})
	if err != nil {
		s.logger.Error("ListAvailableSlots: failed to read ledger for service=%s, date=%s: %v",
			serviceID, date.Format(domain.DateFormat), err)
		return nil, s.storageError("ListAvailableSlots - ledger snapshot", err)
	}

	for _, t := range candidates {
		slot := domain.AvailableSlot{StartTime: t, Capacity: cfg.PerSlotLimit, Remaining: cfg.PerSlotLimit}
		if entry, ok := entries[t]; ok {
			slot.Remaining = max(cfg.PerSlotLimit-entry.Occupied, 0)
		}
		if slot.IsFull() && !s.opts.ShowFullSlots {
			continue
		}
		result.Slots = append(result.Slots, slot)
	}

	s.logger.Info("ListAvailableSlots: %d slots for service=%s, date=%s (config v%d)",
		len(result.Slots), serviceID, date.Format(domain.DateFormat), cfg.Version)
	return result, nil
}

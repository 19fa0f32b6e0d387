package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	bookingRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/booking"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
)

// RescheduleBooking переносит бронирование в другой слот
// Сначала резервируется новый слот, затем обновляется бронирование, затем
// освобождается старый слот. Если новый слот заполнен, бронирование и старый
// резерв не меняются
func (s *Service) RescheduleBooking(ctx context.Context, req *models.RescheduleBookingRequest) (*domain.Booking, error) {
	s.logger.Info("RescheduleBooking: booking id=%d by user=%d to date=%s, time=%s",
		req.BookingID, req.Actor.UserID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRescheduleRequest(req); err != nil {
		s.logger.Warn("RescheduleBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Текущее бронирование и права доступа
	current, err := s.getBooking(ctx, "RescheduleBooking", req.BookingID)
	if err != nil {
		return nil, err
	}
	if !req.Actor.CanAccess(current) {
		s.logger.Warn("RescheduleBooking: access denied for user=%d to booking id=%d", req.Actor.UserID, current.ID)
		return nil, ErrAccessDenied
	}
	if !current.CanBeRescheduled() {
		s.logger.Warn("RescheduleBooking: booking id=%d cannot be rescheduled, status=%s", current.ID, current.Status)
		return nil, fmt.Errorf("%w: cannot reschedule %s booking", ErrInvalidTransition, current.Status)
	}

	oldKey := current.Key()
	newKey := domain.NewSlotKey(current.ServiceID, req.Date, req.StartTime)
	if newKey.Equal(oldKey) {
		s.logger.Warn("RescheduleBooking: booking id=%d already holds slot %s", current.ID, oldKey)
		return nil, fmt.Errorf("%w: booking already holds slot %s", ErrInvalidSlot, oldKey)
	}

	// 3. Новый слот есть в расписании на новую дату
	cfg, err := s.effectiveConfig(ctx, "RescheduleBooking", newKey.ServiceID, newKey.Date)
	if err != nil {
		return nil, err
	}
	if err := checkSlot(cfg, newKey.Date, newKey.StartTime, s.now()); err != nil {
		s.logger.Warn("RescheduleBooking: slot %s rejected: %v", newKey, err)
		return nil, err
	}

	var moved *domain.Booking
	if s.ledger.Transactional() {
		moved, err = s.rescheduleInTx(ctx, current, newKey, cfg)
	} else {
		moved, err = s.rescheduleWithCompensation(ctx, current, newKey, cfg)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, "RescheduleBooking", newKey.ServiceID, oldKey.Date, newKey.Date)

	s.logger.Info("RescheduleBooking: booking id=%d moved from %s to %s", moved.ID, oldKey, newKey)
	return moved, nil
}

func (s *Service) rescheduleInTx(ctx context.Context, current *domain.Booking, newKey domain.SlotKey, cfg *domain.ScheduleConfig) (*domain.Booking, error) {
	oldKey := current.Key()
	var moved *domain.Booking

	err := s.retry(ctx, "RescheduleBooking", func() error {
		return s.txManager.Do(ctx, func(txCtx context.Context) error {
			ok, err := s.reserve(txCtx, newKey, cfg.PerSlotLimit)
			if err != nil {
				s.logger.Error("RescheduleBooking: failed to reserve slot %s for booking id=%d: %v", newKey, current.ID, err)
				return err
			}
			if !ok {
				return ErrSlotFull
			}

			moved, err = s.bookings.Reschedule(txCtx, current, newKey, cfg.Version)
			if err != nil {
				return err
			}

			if err := s.release(txCtx, oldKey); err != nil {
				s.logger.Error("RescheduleBooking: failed to release slot %s for booking id=%d: %v", oldKey, current.ID, err)
				return err
			}
			return nil
		})
	})

	return moved, s.rescheduleError(current, newKey, err)
}

func (s *Service) rescheduleWithCompensation(ctx context.Context, current *domain.Booking, newKey domain.SlotKey, cfg *domain.ScheduleConfig) (*domain.Booking, error) {
	oldKey := current.Key()

	var ok bool
	err := s.retry(ctx, "RescheduleBooking", func() error {
		var err error
		ok, err = s.reserve(ctx, newKey, cfg.PerSlotLimit)
		return err
	})
	if err != nil {
		s.logger.Error("RescheduleBooking: failed to reserve slot %s for booking id=%d: %v", newKey, current.ID, err)
		return nil, s.rescheduleError(current, newKey, err)
	}
	if !ok {
		return nil, s.rescheduleError(current, newKey, ErrSlotFull)
	}

	moved, err := s.bookings.Reschedule(ctx, current, newKey, cfg.Version)
	if err != nil {
		s.compensate(ctx, "RescheduleBooking", newKey, current.ID)
		return nil, s.rescheduleError(current, newKey, err)
	}

	// Бронирование уже перенесено; если старый слот не освободился, его поправит сверка
	err = s.retry(ctx, "RescheduleBooking", func() error {
		return s.release(context.WithoutCancel(ctx), oldKey)
	})
	if err != nil {
		s.logger.Error("RescheduleBooking: failed to release slot %s for booking id=%d: %v", oldKey, current.ID, err)
	}

	return moved, nil
}

func (s *Service) rescheduleError(current *domain.Booking, newKey domain.SlotKey, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSlotFull):
		s.logger.Warn("RescheduleBooking: slot %s is full, booking id=%d unchanged", newKey, current.ID)
		return fmt.Errorf("%w: %s", ErrSlotFull, newKey)
	case errors.Is(err, bookingRepo.ErrStatusConflict):
		s.logger.Warn("RescheduleBooking: booking id=%d changed concurrently", current.ID)
		return fmt.Errorf("%w: booking id=%d changed concurrently", ErrInvalidTransition, current.ID)
	default:
		s.logger.Error("RescheduleBooking: failed for booking id=%d: %v", current.ID, err)
		return s.storageError("RescheduleBooking", err)
	}
}

package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	bookingRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/booking"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
)

// CancelBooking отменяет бронирование и освобождает его слот ровно один раз
// Повторная отмена возвращает бронирование без изменений.
// Завершенное бронирование отменить нельзя
func (s *Service) CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*domain.Booking, error) {
	s.logger.Info("CancelBooking: cancelling booking id=%d by user=%d", bookingID, actor.UserID)

	current, err := s.getBooking(ctx, "CancelBooking", bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(current) {
		s.logger.Warn("CancelBooking: access denied for user=%d to booking id=%d", actor.UserID, bookingID)
		return nil, ErrAccessDenied
	}

	if current.Status == domain.StatusCancelled {
		s.logger.Info("CancelBooking: booking id=%d already cancelled", bookingID)
		return current, nil
	}
	if !current.CanBeCancelled() {
		s.logger.Warn("CancelBooking: booking id=%d cannot be cancelled, status=%s", bookingID, current.Status)
		return nil, fmt.Errorf("%w: cannot cancel %s booking", ErrInvalidTransition, current.Status)
	}

	var cancelled *domain.Booking
	if s.ledger.Transactional() {
		err = s.retry(ctx, "CancelBooking", func() error {
			return s.txManager.Do(ctx, func(txCtx context.Context) error {
				var err error
				cancelled, err = s.bookings.UpdateStatus(txCtx, bookingID, domain.HoldingStatuses, domain.StatusCancelled)
				if err != nil {
					return err
				}
				if err := s.release(txCtx, cancelled.Key()); err != nil {
					s.logger.Error("CancelBooking: failed to release slot %s for booking id=%d: %v",
						cancelled.Key(), bookingID, err)
					return err
				}
				return nil
			})
		})
	} else {
		// Переход статуса гарантирует однократное освобождение
		cancelled, err = s.bookings.UpdateStatus(ctx, bookingID, domain.HoldingStatuses, domain.StatusCancelled)
		if err == nil {
			key := cancelled.Key()
			if relErr := s.retry(ctx, "CancelBooking", func() error {
				return s.release(context.WithoutCancel(ctx), key)
			}); relErr != nil {
				s.logger.Error("CancelBooking: failed to release slot %s for booking id=%d: %v", key, bookingID, relErr)
			}
		}
	}

	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return s.resolveConflict(ctx, "CancelBooking", bookingID, domain.StatusCancelled)
		}
		s.logger.Error("CancelBooking: failed for booking id=%d: %v", bookingID, err)
		return nil, s.storageError("CancelBooking", err)
	}

	s.invalidate(ctx, "CancelBooking", cancelled.ServiceID, cancelled.Date)

	s.logger.Info("CancelBooking: successfully cancelled booking id=%d, released slot %s", bookingID, cancelled.Key())
	return cancelled, nil
}

// CompleteBooking отмечает визит завершенным
// Место в слоте не освобождается: завершенный визит продолжает занимать слот
func (s *Service) CompleteBooking(ctx context.Context, bookingID int64, actor models.Actor) (*domain.Booking, error) {
	s.logger.Info("CompleteBooking: completing booking id=%d by user=%d", bookingID, actor.UserID)

	if !actor.IsAdmin {
		s.logger.Warn("CompleteBooking: user=%d is not an admin", actor.UserID)
		return nil, ErrAccessDenied
	}

	current, err := s.getBooking(ctx, "CompleteBooking", bookingID)
	if err != nil {
		return nil, err
	}

	if current.Status == domain.StatusCompleted {
		s.logger.Info("CompleteBooking: booking id=%d already completed", bookingID)
		return current, nil
	}
	if !current.CanBeCompleted() {
		s.logger.Warn("CompleteBooking: booking id=%d cannot be completed, status=%s", bookingID, current.Status)
		return nil, fmt.Errorf("%w: cannot complete %s booking", ErrInvalidTransition, current.Status)
	}

	completed, err := s.bookings.UpdateStatus(ctx, bookingID, domain.CompletableStatuses, domain.StatusCompleted)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			return s.resolveConflict(ctx, "CompleteBooking", bookingID, domain.StatusCompleted)
		}
		s.logger.Error("CompleteBooking: failed for booking id=%d: %v", bookingID, err)
		return nil, s.storageError("CompleteBooking", err)
	}

	s.logger.Info("CompleteBooking: booking id=%d completed", bookingID)
	return completed, nil
}

// resolveConflict перечитывает бронирование после неудачного CAS:
// если оно уже в целевом статусе, операция идемпотентна, иначе переход недопустим
func (s *Service) resolveConflict(ctx context.Context, op string, bookingID int64, target domain.BookingStatus) (*domain.Booking, error) {
	latest, err := s.getBooking(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if latest.Status == target {
		s.logger.Info("%s: booking id=%d already %s", op, bookingID, target)
		return latest, nil
	}
	s.logger.Warn("%s: booking id=%d changed concurrently to status=%s", op, bookingID, latest.Status)
	return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, latest.Status)
}

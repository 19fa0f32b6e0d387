package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	bookingRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/booking"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
)

// GetBooking получает бронирование по ID
// Пользователь видит только свои бронирования, администратор любые
func (s *Service) GetBooking(ctx context.Context, bookingID int64, actor models.Actor) (*domain.Booking, error) {
	s.logger.Info("GetBooking: fetching booking id=%d for user=%d", bookingID, actor.UserID)

	booking, err := s.getBooking(ctx, "GetBooking", bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(booking) {
		s.logger.Warn("GetBooking: access denied for user=%d to booking id=%d", actor.UserID, bookingID)
		return nil, ErrAccessDenied
	}

	return booking, nil
}

// GetUserBookings история бронирований пользователя, опционально по статусу
func (s *Service) GetUserBookings(ctx context.Context, userID int64, status *string) ([]*domain.Booking, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", userID, status)

	var domainStatus *domain.BookingStatus
	if status != nil {
		st := domain.BookingStatus(*status)
		if !st.IsValid() {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *status, userID)
			return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *status)
		}
		domainStatus = &st
	}

	bookings, err := s.bookings.GetByUserID(ctx, userID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", userID, err)
		return nil, s.storageError("GetUserBookings", err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), userID)
	return bookings, nil
}

// GetServiceBookings бронирования услуги на дату (для администратора)
func (s *Service) GetServiceBookings(ctx context.Context, serviceID domain.ServiceID, date time.Time, includeInactive bool) ([]*domain.Booking, error) {
	s.logger.Info("GetServiceBookings: service=%s, date=%s, includeInactive=%t",
		serviceID, date.Format(domain.DateFormat), includeInactive)

	if !serviceID.IsValid() {
		return nil, fmt.Errorf("%w: unknown service %q", ErrInvalidInput, serviceID)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	bookings, err := s.bookings.GetByServiceDate(ctx, serviceID, date, includeInactive)
	if err != nil {
		s.logger.Error("GetServiceBookings: repository error for service=%s: %v", serviceID, err)
		return nil, s.storageError("GetServiceBookings", err)
	}

	return bookings, nil
}

func (s *Service) getBooking(ctx context.Context, op string, bookingID int64) (*domain.Booking, error) {
	if bookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, bookingID, err)
		return nil, s.storageError(op+" - get booking", err)
	}
	return booking, nil
}

package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
)

// CreateBooking бронирует слот
// Слот должен быть среди кандидатов на дату (защита от устаревшего списка на клиенте).
// Место резервируется до создания записи бронирования: если резерв не удался,
// бронирование не создается. С транзакционным ledger резерв и вставка фиксируются
// одной транзакцией, иначе при ошибке после резерва место возвращается
func (s *Service) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*domain.Booking, error) {
	s.logger.Info("CreateBooking: user=%d, service=%s, date=%s, time=%s",
		req.UserID, req.ServiceID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateCreateRequest(req); err != nil {
		s.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	key := domain.NewSlotKey(req.ServiceID, req.Date, req.StartTime)

	// 2. Действующая на дату версия расписания
	cfg, err := s.effectiveConfig(ctx, "CreateBooking", key.ServiceID, key.Date)
	if err != nil {
		return nil, err
	}

	// 3. Слот есть в расписании и еще не прошел
	if err := checkSlot(cfg, key.Date, key.StartTime, s.now()); err != nil {
		s.logger.Warn("CreateBooking: slot %s rejected: %v", key, err)
		return nil, err
	}

	booking := &domain.Booking{
		UserID:        req.UserID,
		ServiceID:     key.ServiceID,
		Date:          key.Date,
		StartTime:     key.StartTime,
		Status:        s.opts.InitialStatus,
		ConfigVersion: cfg.Version,
		Payload:       req.Payload,
	}

	var created *domain.Booking
	if s.ledger.Transactional() {
		created, err = s.createInTx(ctx, key, cfg.PerSlotLimit, booking)
	} else {
		created, err = s.createWithCompensation(ctx, key, cfg.PerSlotLimit, booking)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, "CreateBooking", key.ServiceID, key.Date)

	s.logger.Info("CreateBooking: successfully created booking id=%d for slot %s", created.ID, key)
	return created, nil
}

// createInTx резерв и вставка в одной транзакции; при недоступности хранилища
// повторяется вся транзакция
func (s *Service) createInTx(ctx context.Context, key domain.SlotKey, capacity int, booking *domain.Booking) (*domain.Booking, error) {
	var created *domain.Booking

	err := s.retry(ctx, "CreateBooking", func() error {
		return s.txManager.Do(ctx, func(txCtx context.Context) error {
			ok, err := s.reserve(txCtx, key, capacity)
			if err != nil {
				s.logger.Error("CreateBooking: failed to reserve slot %s: %v", key, err)
				return err
			}
			if !ok {
				return ErrSlotFull
			}

			created, err = s.bookings.Create(txCtx, booking)
			if err != nil {
				s.logger.Error("CreateBooking: failed to create booking for slot %s: %v", key, err)
				return err
			}
			return nil
		})
	})

	return created, s.createError(key, err)
}

// createWithCompensation резерв, затем вставка; если вставка не удалась, место освобождается
func (s *Service) createWithCompensation(ctx context.Context, key domain.SlotKey, capacity int, booking *domain.Booking) (*domain.Booking, error) {
	var ok bool
	err := s.retry(ctx, "CreateBooking", func() error {
		var err error
		ok, err = s.reserve(ctx, key, capacity)
		return err
	})
	if err != nil {
		s.logger.Error("CreateBooking: failed to reserve slot %s: %v", key, err)
		return nil, s.createError(key, err)
	}
	if !ok {
		return nil, s.createError(key, ErrSlotFull)
	}

	created, err := s.bookings.Create(ctx, booking)
	if err != nil {
		s.logger.Error("CreateBooking: failed to create booking for slot %s, releasing reservation: %v", key, err)
		s.compensate(ctx, "CreateBooking", key, 0)
		return nil, s.createError(key, err)
	}

	return created, nil
}

func (s *Service) createError(key domain.SlotKey, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSlotFull):
		s.logger.Warn("CreateBooking: slot %s is full", key)
		return fmt.Errorf("%w: %s", ErrSlotFull, key)
	default:
		return s.storageError("CreateBooking", err)
	}
}

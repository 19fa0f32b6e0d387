package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	scheduleRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/schedule"
	"github.com/m04kA/PetCare-SlotService/pkg/metrics"
	"github.com/m04kA/PetCare-SlotService/pkg/txmanager"
)

const (
	opReserve = "reserve"
	opRelease = "release"

	defaultRetryInterval = 50 * time.Millisecond
	maxRetryInterval     = time.Second
)

// Options настройки планировщика
type Options struct {
	Location       *time.Location
	ShowFullSlots  bool
	InitialStatus  domain.BookingStatus
	ReserveRetries int
	RetryInterval  time.Duration
}

// Service планировщик бронирований: генерация слотов, резервирование мест
// и переходы статусов бронирования
type Service struct {
	schedules    ScheduleStore
	bookings     BookingRepository
	ledger       CapacityLedger
	txManager    TransactionManager
	invalidator  CacheInvalidator
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
	opts         Options
}

// NewService создает новый экземпляр планировщика
// txManager используется только если ledger транзакционный
func NewService(
	schedules ScheduleStore,
	bookings BookingRepository,
	ledger CapacityLedger,
	txManager TransactionManager,
	invalidator CacheInvalidator,
	m MetricsRecorder,
	logger Logger,
	opts Options,
) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.InitialStatus == "" {
		opts.InitialStatus = domain.StatusConfirmed
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if m == nil {
		m = (*metrics.Metrics)(nil)
	}

	return &Service{
		schedules:    schedules,
		bookings:     bookings,
		ledger:       ledger,
		txManager:    txManager,
		invalidator:  invalidator,
		metrics:      m,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		opts:         opts,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

func (s *Service) now() time.Time {
	return s.timeProvider.Now().In(s.opts.Location)
}

// today календарная дата в часовом поясе сервиса
func (s *Service) today() time.Time {
	return domain.NormalizeDate(s.now())
}

// retry повторяет fn, пока она возвращает ErrStorageUnavailable, не больше ReserveRetries раз
// Остальные ошибки возвращаются сразу
func (s *Service) retry(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.RetryInterval
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		if attempt <= s.opts.ReserveRetries {
			s.logger.Warn("%s: storage unavailable, attempt %d/%d: %v", op, attempt, s.opts.ReserveRetries+1, err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.ReserveRetries)), ctx))

	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) &&
		!errors.Is(err, ErrStorageUnavailable) {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
	}
	return err
}

// reserve резервирует место и пишет метрику результата
func (s *Service) reserve(ctx context.Context, key domain.SlotKey, capacity int) (bool, error) {
	ok, err := s.ledger.TryReserve(ctx, key, capacity)
	switch {
	case err != nil:
		s.metrics.RecordLedger(string(key.ServiceID), opReserve, metrics.ResultError)
	case ok:
		s.metrics.RecordLedger(string(key.ServiceID), opReserve, metrics.ResultReserved)
	default:
		s.metrics.RecordLedger(string(key.ServiceID), opReserve, metrics.ResultFull)
	}
	return ok, err
}

// release освобождает место и пишет метрику результата
func (s *Service) release(ctx context.Context, key domain.SlotKey) error {
	err := s.ledger.Release(ctx, key)
	if err != nil {
		s.metrics.RecordLedger(string(key.ServiceID), opRelease, metrics.ResultError)
		return err
	}
	s.metrics.RecordLedger(string(key.ServiceID), opRelease, metrics.ResultReleased)
	return nil
}

// compensate возвращает место после неудачной операции
// Выполняется и после отмены запроса клиентом, иначе место утечет до сверки
func (s *Service) compensate(ctx context.Context, op string, key domain.SlotKey, bookingID int64) {
	ctx = context.WithoutCancel(ctx)
	err := s.retry(ctx, op, func() error {
		return s.release(ctx, key)
	})
	if err != nil {
		s.logger.Error("%s: failed to release slot %s for booking id=%d: %v", op, key, bookingID, err)
		return
	}
	s.logger.Info("%s: released slot %s for booking id=%d", op, key, bookingID)
}

// effectiveConfig версия расписания, действующая на дату
func (s *Service) effectiveConfig(ctx context.Context, op string, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error) {
	cfg, err := s.schedules.GetEffective(ctx, serviceID, date)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrConfigNotFound) {
			s.logger.Warn("%s: no schedule config for service=%s on %s", op, serviceID, date.Format(domain.DateFormat))
			return nil, ErrConfigNotFound
		}
		s.logger.Error("%s: failed to get schedule config for service=%s: %v", op, serviceID, err)
		return nil, s.storageError(op+" - get schedule config", err)
	}
	return cfg, nil
}

// isRetryable ошибки, после которых операцию можно безопасно повторить
func isRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, txmanager.ErrBeginTx)
}

// storageError переводит ошибку хранилища в ErrStorageUnavailable или ErrInternal
// Ошибка commit не повторяется автоматически: результат транзакции неизвестен
func (s *Service) storageError(op string, err error) error {
	if isRetryable(err) || errors.Is(err, txmanager.ErrCommitTx) {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

// invalidate сбрасывает внешний кэш доступности; ошибка только логируется
func (s *Service) invalidate(ctx context.Context, op string, serviceID domain.ServiceID, dates ...time.Time) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(context.WithoutCancel(ctx), serviceID, dates...); err != nil {
		s.logger.Warn("%s: availability cache invalidation failed for service=%s: %v", op, serviceID, err)
	}
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	scheduleRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/schedule"
	"github.com/m04kA/PetCare-SlotService/internal/service/schedule/models"
)

// publishAttempts сколько раз повторяется публикация при конфликте номера версии
const publishAttempts = 3

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

// Service сервис для работы с версиями расписания услуг
// Опубликованная версия не изменяется; новая версия действует с EffectiveFrom
// и не влияет на уже созданные бронирования
type Service struct {
	configRepo   ConfigRepository
	invalidator  CacheInvalidator
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(configRepo ConfigRepository, location *time.Location, logger Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		configRepo:   configRepo,
		location:     location,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// WithInvalidator включает сброс кэша доступности после публикации версии
func (s *Service) WithInvalidator(inv CacheInvalidator) *Service {
	s.invalidator = inv
	return s
}

func (s *Service) today() time.Time {
	return domain.NormalizeDate(s.timeProvider.Now().In(s.location))
}

// Publish публикует новую версию расписания
// Доступно только администраторам. EffectiveFrom не может быть в прошлом;
// если не указан, версия действует с сегодняшнего дня
func (s *Service) Publish(ctx context.Context, req *models.PublishConfigRequest) (*models.ConfigResponse, error) {
	s.logger.Info("Publish: publishing schedule for service=%s from %s by user=%d",
		req.ServiceID, req.EffectiveFrom.Format(domain.DateFormat), req.UserID)

	// 1. Проверяем права доступа
	if !req.IsAdmin {
		s.logger.Warn("Publish: user=%d is not an admin", req.UserID)
		return nil, ErrAccessDenied
	}

	// 2. Собираем и валидируем конфигурацию
	if req.EffectiveFrom.IsZero() {
		req.EffectiveFrom = s.today()
	}
	cfg, err := req.ToDomainConfig()
	if err != nil {
		s.logger.Warn("Publish: invalid request: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Warn("Publish: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if cfg.EffectiveFrom.Before(s.today()) {
		s.logger.Warn("Publish: effectiveFrom %s is in the past", cfg.EffectiveFrom.Format(domain.DateFormat))
		return nil, fmt.Errorf("%w: effectiveFrom must not be in the past", ErrInvalidInput)
	}

	// 3. Сохраняем; номер версии назначает хранилище
	var created *domain.ScheduleConfig
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		created, err = s.configRepo.Create(ctx, cfg)
		if err == nil || !errors.Is(err, scheduleRepo.ErrVersionConflict) {
			break
		}
		s.logger.Warn("Publish: version conflict for service=%s, attempt %d/%d", req.ServiceID, attempt, publishAttempts)
	}
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		s.logger.Error("Publish: repository error for service=%s: %v", req.ServiceID, err)
		return nil, s.repositoryError("Publish", err)
	}

	s.logger.Info("Publish: published version %d for service=%s, effective from %s",
		created.Version, created.ServiceID, created.EffectiveFrom.Format(domain.DateFormat))
	s.invalidate(ctx, created)
	return models.FromDomainConfig(created), nil
}

// invalidate сбрасывает доступность с EffectiveFrom до конца максимального окна записи.
// Прежняя версия могла разрешать более дальнюю запись, поэтому окно новой версии не используется
func (s *Service) invalidate(ctx context.Context, cfg *domain.ScheduleConfig) {
	if s.invalidator == nil {
		return
	}

	last := s.today().AddDate(0, 0, domain.MaxAdvanceBookingDays)
	dates := make([]time.Time, 0)
	for d := domain.NormalizeDate(cfg.EffectiveFrom); !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return
	}

	if err := s.invalidator.Invalidate(context.WithoutCancel(ctx), cfg.ServiceID, dates...); err != nil {
		s.logger.Warn("Publish: availability cache invalidation failed for service=%s: %v", cfg.ServiceID, err)
	}
}

// GetEffective версия, действующая на дату (по умолчанию сегодня)
func (s *Service) GetEffective(ctx context.Context, serviceID domain.ServiceID, date *time.Time) (*models.ConfigResponse, error) {
	if !serviceID.IsValid() {
		return nil, fmt.Errorf("%w: unknown service %q", ErrInvalidInput, serviceID)
	}

	day := s.today()
	if date != nil {
		day = domain.NormalizeDate(*date)
	}

	s.logger.Info("GetEffective: fetching schedule for service=%s on %s", serviceID, day.Format(domain.DateFormat))

	cfg, err := s.configRepo.GetEffective(ctx, serviceID, day)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrConfigNotFound) {
			s.logger.Warn("GetEffective: no schedule for service=%s on %s", serviceID, day.Format(domain.DateFormat))
			return nil, ErrConfigNotFound
		}
		s.logger.Error("GetEffective: repository error for service=%s: %v", serviceID, err)
		return nil, s.repositoryError("GetEffective", err)
	}

	return models.FromDomainConfig(cfg), nil
}

// GetVersion конкретная версия расписания
func (s *Service) GetVersion(ctx context.Context, serviceID domain.ServiceID, version int) (*models.ConfigResponse, error) {
	if !serviceID.IsValid() || version <= 0 {
		return nil, fmt.Errorf("%w: service %q, version %d", ErrInvalidInput, serviceID, version)
	}

	cfg, err := s.configRepo.GetByVersion(ctx, serviceID, version)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrConfigNotFound) {
			s.logger.Warn("GetVersion: version %d not found for service=%s", version, serviceID)
			return nil, ErrConfigNotFound
		}
		s.logger.Error("GetVersion: repository error for service=%s: %v", serviceID, err)
		return nil, s.repositoryError("GetVersion", err)
	}

	return models.FromDomainConfig(cfg), nil
}

// ListVersions все версии расписания услуги, от новой к старой
func (s *Service) ListVersions(ctx context.Context, serviceID domain.ServiceID) (*models.ConfigListResponse, error) {
	if !serviceID.IsValid() {
		return nil, fmt.Errorf("%w: unknown service %q", ErrInvalidInput, serviceID)
	}

	configs, err := s.configRepo.ListVersions(ctx, serviceID)
	if err != nil {
		s.logger.Error("ListVersions: repository error for service=%s: %v", serviceID, err)
		return nil, s.repositoryError("ListVersions", err)
	}

	s.logger.Info("ListVersions: %d versions for service=%s", len(configs), serviceID)
	return models.FromDomainConfigList(configs), nil
}

func (s *Service) repositoryError(op string, err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/infra/storage/pgerr"
	"github.com/m04kA/PetCare-SlotService/pkg/dbmetrics"
	"github.com/m04kA/PetCare-SlotService/pkg/psqlbuilder"
)

const table = "schedule_config"

var columns = []string{
	"id",
	"service_id",
	"version",
	"effective_from",
	"start_time",
	"end_time",
	"gap_minutes",
	"per_slot_limit",
	"closed_weekdays",
	"disabled_slots",
	"min_booking_notice_minutes",
	"advance_booking_days",
	"created_by",
	"created_at",
}

// Repository репозиторий версий расписания
// Версии только добавляются, существующие строки не изменяются
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новую версию расписания. Номер версии = MAX(version) + 1 для услуги
// При одновременной публикации двух версий одна из них получит ErrVersionConflict
func (r *Repository) Create(ctx context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	nextVersion := squirrel.Expr(
		"(SELECT COALESCE(MAX(version), 0) + 1 FROM "+table+" WHERE service_id = ?)",
		cfg.ServiceID,
	)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"service_id",
			"version",
			"effective_from",
			"start_time",
			"end_time",
			"gap_minutes",
			"per_slot_limit",
			"closed_weekdays",
			"disabled_slots",
			"min_booking_notice_minutes",
			"advance_booking_days",
			"created_by",
		).
		Values(
			cfg.ServiceID,
			nextVersion,
			domain.NormalizeDate(cfg.EffectiveFrom),
			cfg.Start,
			cfg.End,
			cfg.GapMinutes,
			cfg.PerSlotLimit,
			pq.Array(cfg.ClosedWeekdays.Normalize().Ints()),
			cfg.DisabledSlots,
			cfg.MinBookingNoticeMinutes,
			cfg.AdvanceBookingDays,
			cfg.CreatedBy,
		).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created, err := scanConfig(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: service %s", ErrVersionConflict, cfg.ServiceID)
		}
		return nil, pgerr.Wrap(ErrExecQuery, "Create - execute insert", err)
	}

	return created, nil
}

// GetEffective версия, действующая на дату: максимальная версия с effective_from <= date
func (r *Repository) GetEffective(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"service_id": serviceID}).
		Where(squirrel.LtOrEq{"effective_from": domain.NormalizeDate(date)}).
		OrderBy("version DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetEffective - build select query: %v", ErrBuildQuery, err)
	}

	return r.getOne(ctx, "GetEffective", query, args)
}

// GetByVersion конкретная версия расписания
func (r *Repository) GetByVersion(ctx context.Context, serviceID domain.ServiceID, version int) (*domain.ScheduleConfig, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"service_id": serviceID, "version": version}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByVersion - build select query: %v", ErrBuildQuery, err)
	}

	return r.getOne(ctx, "GetByVersion", query, args)
}

// ListVersions все версии услуги, от новой к старой
func (r *Repository) ListVersions(ctx context.Context, serviceID domain.ServiceID) ([]*domain.ScheduleConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"service_id": serviceID}).
		OrderBy("version DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListVersions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "ListVersions - execute query", err)
	}
	defer rows.Close()

	configs := make([]*domain.ScheduleConfig, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListVersions - scan row: %v", ErrScanRow, err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(ErrScanRow, "ListVersions - rows error", err)
	}

	return configs, nil
}

func (r *Repository) getOne(ctx context.Context, op, query string, args []interface{}) (*domain.ScheduleConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	cfg, err := scanConfig(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, pgerr.Wrap(ErrScanRow, op+" - scan config", err)
	}

	return cfg, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfig(row rowScanner) (*domain.ScheduleConfig, error) {
	var (
		cfg       domain.ScheduleConfig
		serviceID string
		weekdays  []int64
		createdBy sql.NullInt64
		createdAt sql.NullTime
	)

	err := row.Scan(
		&cfg.ID,
		&serviceID,
		&cfg.Version,
		&cfg.EffectiveFrom,
		&cfg.Start,
		&cfg.End,
		&cfg.GapMinutes,
		&cfg.PerSlotLimit,
		pq.Array(&weekdays),
		&cfg.DisabledSlots,
		&cfg.MinBookingNoticeMinutes,
		&cfg.AdvanceBookingDays,
		&createdBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.ServiceID = domain.ServiceID(serviceID)
	cfg.EffectiveFrom = domain.NormalizeDate(cfg.EffectiveFrom)
	cfg.ClosedWeekdays = domain.WeekdaySetFromInts(weekdays)
	if createdBy.Valid {
		cfg.CreatedBy = &createdBy.Int64
	}
	cfg.CreatedAt = createdAt.Time

	return &cfg, nil
}

package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/infra/storage/pgerr"
	"github.com/m04kA/PetCare-SlotService/pkg/dbmetrics"
	"github.com/m04kA/PetCare-SlotService/pkg/psqlbuilder"
)

const table = "bookings"

var columns = []string{
	"id",
	"user_id",
	"service_id",
	"booking_date",
	"start_time",
	"status",
	"config_version",
	"payload",
	"cancelled_at",
	"completed_at",
	"created_at",
	"updated_at",
}

var returningColumns = "RETURNING " + strings.Join(columns, ", ")

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция, запрос выполняется в ней
// (резервирование места и вставка бронирования фиксируются вместе)
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	payload := booking.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"user_id",
			"service_id",
			"booking_date",
			"start_time",
			"status",
			"config_version",
			"payload",
		).
		Values(
			booking.UserID,
			booking.ServiceID,
			domain.NormalizeDate(booking.Date),
			booking.StartTime,
			booking.Status,
			booking.ConfigVersion,
			string(payload),
		).
		Suffix(returningColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "Create - execute insert", err)
	}

	return created, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, pgerr.Wrap(ErrScanRow, "GetByID - scan booking", err)
	}

	return booking, nil
}

// UpdateStatus переводит бронирование в статус to, только если текущий статус входит в from.
// Возвращает ErrStatusConflict, если статус уже другой (или бронирования нет)
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update(table).
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()"))

	switch to {
	case domain.StatusCancelled:
		builder = builder.Set("cancelled_at", squirrel.Expr("NOW()"))
	case domain.StatusCompleted:
		builder = builder.Set("completed_at", squirrel.Expr("NOW()"))
	}

	query, args, err := builder.
		Where(squirrel.Eq{"id": id, "status": statusStrings(from)}).
		Suffix(returningColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "UpdateStatus - execute update", err)
	}

	return booking, nil
}

// Reschedule переносит бронирование в новый слот и ставит статус rescheduled.
// Условие: бронирование все еще в статусе и слоте current
func (r *Repository) Reschedule(ctx context.Context, current *domain.Booking, to domain.SlotKey, configVersion int) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("booking_date", to.Date).
		Set("start_time", to.StartTime).
		Set("config_version", configVersion).
		Set("status", domain.StatusRescheduled).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":           current.ID,
			"status":       current.Status,
			"booking_date": domain.NormalizeDate(current.Date),
			"start_time":   current.StartTime,
		}).
		Suffix(returningColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Reschedule - build update query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "Reschedule - execute update", err)
	}

	return booking, nil
}

// CountOccupying количество бронирований, учитываемых в ledger для слота
func (r *Repository) CountOccupying(ctx context.Context, key domain.SlotKey) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{
			"service_id":   key.ServiceID,
			"booking_date": key.Date,
			"start_time":   key.StartTime,
			"status":       statusStrings(domain.OccupyingStatuses),
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountOccupying - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, pgerr.Wrap(ErrScanRow, "CountOccupying - scan count", err)
	}

	return count, nil
}

// GetByUserID получает список бронирований пользователя
// Опционально фильтрует по статусу
func (r *Repository) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("booking_date DESC, start_time DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "GetByUserID - execute query", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetByServiceDate бронирования услуги на дату, по времени начала
// Без includeInactive возвращаются только занимающие место (pending/confirmed/rescheduled)
func (r *Repository) GetByServiceDate(ctx context.Context, serviceID domain.ServiceID, date time.Time, includeInactive bool) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"service_id": serviceID, "booking_date": domain.NormalizeDate(date)}).
		OrderBy("start_time ASC", "id ASC")

	if !includeInactive {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(domain.HoldingStatuses)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByServiceDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "GetByServiceDate - execute query", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking              domain.Booking
		serviceID, status    string
		payload              []byte
		cancelledAt, complAt sql.NullTime
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&serviceID,
		&booking.Date,
		&booking.StartTime,
		&status,
		&booking.ConfigVersion,
		&payload,
		&cancelledAt,
		&complAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.ServiceID = domain.ServiceID(serviceID)
	booking.Status = domain.BookingStatus(status)
	booking.Date = domain.NormalizeDate(booking.Date)
	booking.Payload = payload
	if cancelledAt.Valid {
		booking.CancelledAt = &cancelledAt.Time
	}
	if complAt.Valid {
		booking.CompletedAt = &complAt.Time
	}
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(ErrScanRow, "scanBookings - rows error", err)
	}

	return bookings, nil
}

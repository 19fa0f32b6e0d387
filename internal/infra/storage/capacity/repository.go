package capacity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/infra/storage/pgerr"
	"github.com/m04kA/PetCare-SlotService/pkg/dbmetrics"
	"github.com/m04kA/PetCare-SlotService/pkg/psqlbuilder"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

const table = "slot_capacity"

// Атомарное резервирование одним запросом: строка создается с occupied = 1,
// а существующая увеличивается только если occupied меньше переданной вместимости.
// capacity в строке обновляется до лимита действующей версии конфигурации.
// Если условие не выполнено, RETURNING не вернет строк
const reserveConflictSuffix = "ON CONFLICT (service_id, slot_date, start_time) DO UPDATE " +
	"SET occupied = slot_capacity.occupied + 1, capacity = EXCLUDED.capacity, updated_at = NOW() " +
	"WHERE slot_capacity.occupied < EXCLUDED.capacity " +
	"RETURNING occupied"

// Repository ledger занятости слотов в PostgreSQL
// Работает внутри транзакции из контекста, если она есть
type Repository struct {
	db      DBExecutor
	timeout time.Duration
}

// NewRepository создает ledger; timeout ограничивает каждую операцию
func NewRepository(db DBExecutor, timeout time.Duration) *Repository {
	return &Repository{db: db, timeout: timeout}
}

// Transactional возвращает true: резервирование можно объединить с созданием бронирования
func (r *Repository) Transactional() bool {
	return true
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// TryReserve занимает одно место в слоте. false, nil - слот заполнен
func (r *Repository) TryReserve(ctx context.Context, key domain.SlotKey, capacity int) (bool, error) {
	if capacity <= 0 {
		return false, fmt.Errorf("%w: TryReserve - %s capacity=%d", ErrInvalidCapacity, key, capacity)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("service_id", "slot_date", "start_time", "occupied", "capacity", "updated_at").
		Values(key.ServiceID, key.Date, key.StartTime, 1, capacity, squirrel.Expr("NOW()")).
		Suffix(reserveConflictSuffix).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: TryReserve - build insert query: %v", ErrBuildQuery, err)
	}

	var occupied int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&occupied)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, pgerr.Wrap(ErrExecQuery, "TryReserve - execute upsert", err)
	}

	return true, nil
}

// Release освобождает одно место; без записи или при occupied = 0 ничего не делает
func (r *Repository) Release(ctx context.Context, key domain.SlotKey) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("occupied", squirrel.Expr("occupied - 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(keyCondition(key)).
		Where(squirrel.Gt{"occupied": 0}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Release - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return pgerr.Wrap(ErrExecQuery, "Release - execute update", err)
	}

	return nil
}

// OccupiedCount текущее количество занятых мест, 0 если записи нет
func (r *Repository) OccupiedCount(ctx context.Context, key domain.SlotKey) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("occupied").
		From(table).
		Where(keyCondition(key)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: OccupiedCount - build select query: %v", ErrBuildQuery, err)
	}

	var occupied int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&occupied)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, pgerr.Wrap(ErrScanRow, "OccupiedCount - scan occupied", err)
	}

	return occupied, nil
}

// Snapshot все записи для услуги на дату, ключ - время начала слота
func (r *Repository) Snapshot(ctx context.Context, serviceID domain.ServiceID, date time.Time) (map[types.TimeString]domain.LedgerEntry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("service_id", "slot_date", "start_time", "occupied", "capacity", "updated_at").
		From(table).
		Where(squirrel.Eq{"service_id": serviceID, "slot_date": domain.NormalizeDate(date)}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Snapshot - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "Snapshot - execute query", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	result := make(map[types.TimeString]domain.LedgerEntry, len(entries))
	for _, e := range entries {
		result[e.Key.StartTime] = e
	}
	return result, nil
}

// Stale записи, не менявшиеся с before и не сверенные после последнего изменения
func (r *Repository) Stale(ctx context.Context, before time.Time, limit int) ([]domain.LedgerEntry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("service_id", "slot_date", "start_time", "occupied", "capacity", "updated_at").
		From(table).
		Where(squirrel.Lt{"updated_at": before}).
		Where(squirrel.Or{
			squirrel.Eq{"reconciled_at": nil},
			squirrel.Expr("reconciled_at < updated_at"),
		}).
		OrderBy("updated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Stale - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgerr.Wrap(ErrExecQuery, "Stale - execute query", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Reconcile устанавливает occupied = actual, если запись не менялась с момента чтения entry.
// actual может превышать capacity: после уменьшения лимита старые бронирования остаются.
// Возвращает false, если запись успела измениться
func (r *Repository) Reconcile(ctx context.Context, entry domain.LedgerEntry, actual int) (bool, error) {
	if actual < 0 {
		actual = 0
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("occupied", actual).
		Set("reconciled_at", squirrel.Expr("NOW()")).
		Where(keyCondition(entry.Key)).
		Where(squirrel.Eq{"occupied": entry.Occupied, "updated_at": entry.UpdatedAt}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Reconcile - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, pgerr.Wrap(ErrExecQuery, "Reconcile - execute update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Reconcile - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

func keyCondition(key domain.SlotKey) squirrel.Eq {
	return squirrel.Eq{
		"service_id": key.ServiceID,
		"slot_date":  key.Date,
		"start_time": key.StartTime,
	}
}

func scanEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var (
			serviceID string
			date      time.Time
			start     types.TimeString
			e         domain.LedgerEntry
		)
		if err := rows.Scan(&serviceID, &date, &start, &e.Occupied, &e.Capacity, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", ErrScanRow, err)
		}
		e.Key = domain.NewSlotKey(domain.ServiceID(serviceID), date, start)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(ErrScanRow, "rows error", err)
	}

	return entries, nil
}

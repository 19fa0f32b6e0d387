package capacity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

const (
	keyPrefix  = "slotcap"
	touchedKey = keyPrefix + ":touched"

	// Сколько хранить счетчики после даты слота
	retentionAfterDate = 8 * 24 * time.Hour
)

// Ledger счетчики занятости слотов в Redis.
// Резервирование, освобождение и сверка выполняются Lua скриптами, атомарно на сервере.
// Скрипты обращаются к нескольким ключам, поэтому нужен одиночный Redis (не Cluster)
type Ledger struct {
	client  redis.Cmdable
	timeout time.Duration
	now     func() time.Time
}

// NewLedger создает ledger; timeout ограничивает каждую операцию
func NewLedger(client redis.Cmdable, timeout time.Duration) *Ledger {
	return &Ledger{client: client, timeout: timeout, now: time.Now}
}

// Transactional возвращает false: ledger не участвует в транзакциях БД
func (l *Ledger) Transactional() bool {
	return false
}

func (l *Ledger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.timeout)
}

func entryKey(key domain.SlotKey) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, key.ServiceID, key.DateString(), key.StartTime)
}

func dayIndexKey(serviceID domain.ServiceID, date string) string {
	return fmt.Sprintf("%s:idx:%s:%s", keyPrefix, serviceID, date)
}

// member элемента zset изменений: service|date|HH:MM
func touchedMember(key domain.SlotKey) string {
	return fmt.Sprintf("%s|%s|%s", key.ServiceID, key.DateString(), key.StartTime)
}

func parseTouchedMember(member string) (domain.SlotKey, error) {
	parts := strings.Split(member, "|")
	if len(parts) != 3 {
		return domain.SlotKey{}, fmt.Errorf("%w: member %q", ErrCorruptEntry, member)
	}
	date, err := domain.ParseDate(parts[1])
	if err != nil {
		return domain.SlotKey{}, fmt.Errorf("%w: member %q: %v", ErrCorruptEntry, member, err)
	}
	start, err := types.NewTimeStringFromString(parts[2])
	if err != nil {
		return domain.SlotKey{}, fmt.Errorf("%w: member %q: %v", ErrCorruptEntry, member, err)
	}
	return domain.NewSlotKey(domain.ServiceID(parts[0]), date, start), nil
}

func normalize(key domain.SlotKey) domain.SlotKey {
	return domain.NewSlotKey(key.ServiceID, key.Date, key.StartTime)
}

// TryReserve занимает одно место в слоте. false, nil - слот заполнен
func (l *Ledger) TryReserve(ctx context.Context, key domain.SlotKey, capacity int) (bool, error) {
	if capacity <= 0 {
		return false, fmt.Errorf("%w: %s capacity=%d", ErrInvalidCapacity, key, capacity)
	}
	key = normalize(key)

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	expireAt := key.Date.Add(retentionAfterDate).Unix()
	res, err := reserveScript.Run(ctx, l.client,
		[]string{entryKey(key), dayIndexKey(key.ServiceID, key.DateString()), touchedKey},
		capacity, l.now().UnixMilli(), key.StartTime.String(), touchedMember(key), expireAt,
	).Int64()
	if err != nil {
		return false, wrap("TryReserve", err)
	}

	return res > 0, nil
}

// Release освобождает одно место; без записи или при occupied = 0 ничего не делает
func (l *Ledger) Release(ctx context.Context, key domain.SlotKey) error {
	key = normalize(key)

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	err := releaseScript.Run(ctx, l.client,
		[]string{entryKey(key), touchedKey},
		l.now().UnixMilli(), touchedMember(key),
	).Err()
	if err != nil {
		return wrap("Release", err)
	}
	return nil
}

// OccupiedCount текущее количество занятых мест, 0 если записи нет
func (l *Ledger) OccupiedCount(ctx context.Context, key domain.SlotKey) (int, error) {
	key = normalize(key)

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	n, err := l.client.HGet(ctx, entryKey(key), "occupied").Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("OccupiedCount", err)
	}
	return n, nil
}

// Snapshot все записи для услуги на дату
func (l *Ledger) Snapshot(ctx context.Context, serviceID domain.ServiceID, date time.Time) (map[types.TimeString]domain.LedgerEntry, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	day := domain.NormalizeDate(date)
	starts, err := l.client.SMembers(ctx, dayIndexKey(serviceID, day.Format(domain.DateFormat))).Result()
	if err != nil {
		return nil, wrap("Snapshot - read index", err)
	}

	keys := make([]domain.SlotKey, 0, len(starts))
	for _, s := range starts {
		start, err := types.NewTimeStringFromString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: index member %q", ErrCorruptEntry, s)
		}
		keys = append(keys, domain.NewSlotKey(serviceID, day, start))
	}

	entries, _, err := l.load(ctx, keys)
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
func (l *Ledger) Stale(ctx context.Context, before time.Time, limit int) ([]domain.LedgerEntry, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	members, err := l.client.ZRangeByScore(ctx, touchedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(before.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, wrap("Stale - read touched", err)
	}

	keys := make([]domain.SlotKey, 0, len(members))
	for _, m := range members {
		key, err := parseTouchedMember(m)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	entries, missing, err := l.load(ctx, keys)
	if err != nil {
		return nil, err
	}

	// счетчики истекших дат больше не нужно сверять
	if len(missing) > 0 {
		stale := make([]interface{}, len(missing))
		for i, key := range missing {
			stale[i] = touchedMember(key)
		}
		if err := l.client.ZRem(ctx, touchedKey, stale...).Err(); err != nil {
			return nil, wrap("Stale - drop expired", err)
		}
	}

	return entries, nil
}

// Reconcile устанавливает occupied = actual, если запись не менялась с момента чтения entry.
// actual не ограничивается capacity: после уменьшения лимита старые бронирования остаются
func (l *Ledger) Reconcile(ctx context.Context, entry domain.LedgerEntry, actual int) (bool, error) {
	key := normalize(entry.Key)

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	res, err := reconcileScript.Run(ctx, l.client,
		[]string{entryKey(key), touchedKey},
		entry.Occupied, entry.UpdatedAt.UnixMilli(), actual, touchedMember(key),
	).Int64()
	if err != nil {
		return false, wrap("Reconcile", err)
	}
	return res == 1, nil
}

// load читает записи одним pipeline; ключи отсутствующих (истекших) записей возвращаются отдельно
func (l *Ledger) load(ctx context.Context, keys []domain.SlotKey) ([]domain.LedgerEntry, []domain.SlotKey, error) {
	if len(keys) == 0 {
		return []domain.LedgerEntry{}, nil, nil
	}

	pipe := l.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, entryKey(key))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, nil, wrap("load entries", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(keys))
	var missing []domain.SlotKey
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			missing = append(missing, keys[i])
			continue
		}
		e, err := parseEntry(keys[i], fields)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
	}
	return entries, missing, nil
}

func parseEntry(key domain.SlotKey, fields map[string]string) (domain.LedgerEntry, error) {
	occupied, err := strconv.Atoi(fields["occupied"])
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %s occupied=%q", ErrCorruptEntry, key, fields["occupied"])
	}
	capacity, err := strconv.Atoi(fields["capacity"])
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %s capacity=%q", ErrCorruptEntry, key, fields["capacity"])
	}

	e := domain.LedgerEntry{Key: key, Occupied: occupied, Capacity: capacity}
	if updated, err := strconv.ParseInt(fields["updated"], 10, 64); err == nil {
		e.UpdatedAt = time.UnixMilli(updated).UTC()
	}
	return e, nil
}

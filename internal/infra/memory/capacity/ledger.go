package capacity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// ErrInvalidCapacity возвращается при попытке создать слот с неположительной вместимостью
var ErrInvalidCapacity = errors.New("capacity.memory: capacity must be positive")

// RetentionAfterDate сколько хранятся счетчики после даты слота
const RetentionAfterDate = 8 * 24 * time.Hour

type entry struct {
	mu         sync.Mutex
	key        domain.SlotKey
	occupied   int
	capacity   int
	updatedAt  time.Time
	reconciled bool
}

func (e *entry) snapshot() domain.LedgerEntry {
	return domain.LedgerEntry{Key: e.key, Occupied: e.occupied, Capacity: e.capacity, UpdatedAt: e.updatedAt}
}

type day struct {
	mu    sync.RWMutex
	date  time.Time
	slots map[types.TimeString]*entry
}

// Ledger хранит счетчики в памяти процесса. Каждый слот защищен своим мьютексом,
// операции над разными слотами не блокируют друг друга.
// Подходит для одного экземпляра сервиса и тестов
type Ledger struct {
	entries sync.Map // SlotKey.String() -> *entry
	days    sync.Map // dayKey -> *day
	now     func() time.Time
}

type dayKey struct {
	serviceID domain.ServiceID
	date      string
}

// NewLedger создает пустой ledger
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Transactional возвращает false: ledger не участвует в транзакциях БД
func (l *Ledger) Transactional() bool {
	return false
}

func (l *Ledger) load(key domain.SlotKey) (*entry, bool) {
	v, ok := l.entries.Load(key.String())
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (l *Ledger) loadOrCreate(key domain.SlotKey, capacity int) *entry {
	if e, ok := l.load(key); ok {
		return e
	}

	v, loaded := l.entries.LoadOrStore(key.String(), &entry{key: key, capacity: capacity})
	e := v.(*entry)
	if !loaded {
		dk := dayKey{serviceID: key.ServiceID, date: key.DateString()}
		dv, _ := l.days.LoadOrStore(dk, &day{date: key.Date, slots: make(map[types.TimeString]*entry)})
		d := dv.(*day)
		d.mu.Lock()
		d.slots[key.StartTime] = e
		d.mu.Unlock()
	}
	return e
}

// TryReserve занимает одно место в слоте. false, nil - слот заполнен
func (l *Ledger) TryReserve(ctx context.Context, key domain.SlotKey, capacity int) (bool, error) {
	if capacity <= 0 {
		return false, fmt.Errorf("%w: %s capacity=%d", ErrInvalidCapacity, key, capacity)
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	key = domain.NewSlotKey(key.ServiceID, key.Date, key.StartTime)
	e := l.loadOrCreate(key, capacity)

	e.mu.Lock()
	defer e.mu.Unlock()

	// лимит действующей версии конфигурации, а не сохраненный в записи
	e.capacity = capacity
	if e.occupied >= capacity {
		return false, nil
	}
	e.occupied++
	e.updatedAt = l.now()
	e.reconciled = false
	return true, nil
}

// Release освобождает одно место; без записи или при occupied = 0 ничего не делает
func (l *Ledger) Release(ctx context.Context, key domain.SlotKey) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	e, ok := l.load(domain.NewSlotKey(key.ServiceID, key.Date, key.StartTime))
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.occupied > 0 {
		e.occupied--
		e.updatedAt = l.now()
		e.reconciled = false
	}
	return nil
}

// OccupiedCount текущее количество занятых мест, 0 если записи нет
func (l *Ledger) OccupiedCount(_ context.Context, key domain.SlotKey) (int, error) {
	e, ok := l.load(domain.NewSlotKey(key.ServiceID, key.Date, key.StartTime))
	if !ok {
		return 0, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.occupied, nil
}

// Snapshot все записи для услуги на дату
func (l *Ledger) Snapshot(_ context.Context, serviceID domain.ServiceID, date time.Time) (map[types.TimeString]domain.LedgerEntry, error) {
	result := make(map[types.TimeString]domain.LedgerEntry)

	dv, ok := l.days.Load(dayKey{serviceID: serviceID, date: domain.NormalizeDate(date).Format(domain.DateFormat)})
	if !ok {
		return result, nil
	}
	d := dv.(*day)

	d.mu.RLock()
	slots := make([]*entry, 0, len(d.slots))
	for _, e := range d.slots {
		slots = append(slots, e)
	}
	d.mu.RUnlock()

	for _, e := range slots {
		e.mu.Lock()
		result[e.key.StartTime] = e.snapshot()
		e.mu.Unlock()
	}
	return result, nil
}

// Stale записи, не менявшиеся с before и не сверенные после последнего изменения.
// Заодно удаляет счетчики дат старше RetentionAfterDate
func (l *Ledger) Stale(_ context.Context, before time.Time, limit int) ([]domain.LedgerEntry, error) {
	l.prune(before)

	stale := make([]domain.LedgerEntry, 0)

	l.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if !e.reconciled && !e.updatedAt.IsZero() && e.updatedAt.Before(before) {
			stale = append(stale, e.snapshot())
		}
		e.mu.Unlock()
		return true
	})

	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

// prune удаляет дни, срок хранения которых истек к моменту now
func (l *Ledger) prune(now time.Time) {
	l.days.Range(func(k, v any) bool {
		d := v.(*day)
		if !d.date.Add(RetentionAfterDate).Before(now) {
			return true
		}

		d.mu.Lock()
		for _, e := range d.slots {
			l.entries.Delete(e.key.String())
		}
		d.mu.Unlock()
		l.days.Delete(k)
		return true
	})
}

// Reconcile устанавливает occupied = actual, если запись не менялась с момента чтения entry.
// actual не ограничивается capacity: после уменьшения лимита старые бронирования остаются
func (l *Ledger) Reconcile(_ context.Context, snap domain.LedgerEntry, actual int) (bool, error) {
	e, ok := l.load(domain.NewSlotKey(snap.Key.ServiceID, snap.Key.Date, snap.Key.StartTime))
	if !ok {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.occupied != snap.Occupied || !e.updatedAt.Equal(snap.UpdatedAt) {
		return false, nil
	}

	if actual < 0 {
		actual = 0
	}
	e.occupied = actual
	e.reconciled = true
	return true, nil
}

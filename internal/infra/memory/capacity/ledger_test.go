package capacity

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

var slotDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func key(start string) domain.SlotKey {
	return domain.NewSlotKey(domain.ServiceVaccination, slotDate, types.MustTimeString(start))
}

func TestTryReserve_UntilFull(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.TryReserve(ctx, key("09:00"), 2)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := l.TryReserve(ctx, key("09:00"), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := l.OccupiedCount(ctx, key("09:00"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTryReserve_RaisedCapacityApplies(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	ok, _ := l.TryReserve(ctx, key("09:00"), 1)
	require.True(t, ok)
	require.NoError(t, l.Release(ctx, key("09:00")))

	// новая версия конфигурации с лимитом 3
	for i := 0; i < 3; i++ {
		ok, err := l.TryReserve(ctx, key("09:00"), 3)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := l.TryReserve(ctx, key("09:00"), 3)
	require.NoError(t, err)
	assert.False(t, ok)

	snap, err := l.Snapshot(ctx, domain.ServiceVaccination, slotDate)
	require.NoError(t, err)
	assert.Equal(t, 3, snap["09:00"].Capacity)
}

func TestTryReserve_LoweredCapacityApplies(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _ := l.TryReserve(ctx, key("09:00"), 3)
		require.True(t, ok)
	}

	// лимит уменьшен до 1: существующие два места сохраняются, новых нет
	ok, err := l.TryReserve(ctx, key("09:00"), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	n, _ := l.OccupiedCount(ctx, key("09:00"))
	assert.Equal(t, 2, n)

	require.NoError(t, l.Release(ctx, key("09:00")))
	ok, _ = l.TryReserve(ctx, key("09:00"), 1)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, key("09:00")))
	ok, _ = l.TryReserve(ctx, key("09:00"), 1)
	assert.True(t, ok)
}

func TestTryReserve_CancelledContext(t *testing.T) {
	l := NewLedger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := l.TryReserve(ctx, key("09:00"), 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestTryReserve_Concurrent(t *testing.T) {
	const (
		capacity = 3
		workers  = 64
	)
	l := NewLedger()

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := l.TryReserve(context.Background(), key("09:00"), capacity)
			assert.NoError(t, err)
			if ok {
				successes.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(capacity), successes.Load())
	n, _ := l.OccupiedCount(context.Background(), key("09:00"))
	assert.Equal(t, capacity, n)
}

func TestRelease(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	// без записи
	require.NoError(t, l.Release(ctx, key("09:00")))
	n, _ := l.OccupiedCount(ctx, key("09:00"))
	assert.Zero(t, n)

	ok, _ := l.TryReserve(ctx, key("09:00"), 2)
	require.True(t, ok)
	require.NoError(t, l.Release(ctx, key("09:00")))
	require.NoError(t, l.Release(ctx, key("09:00")))

	n, _ = l.OccupiedCount(ctx, key("09:00"))
	assert.Zero(t, n)
}

func TestKeyFormatsAreEquivalent(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	ok, _ := l.TryReserve(ctx, domain.SlotKey{ServiceID: domain.ServiceVaccination, Date: slotDate.Add(5 * time.Hour), StartTime: "09:00:00"}, 2)
	require.True(t, ok)

	n, _ := l.OccupiedCount(ctx, key("09:00"))
	assert.Equal(t, 1, n)
}

func TestSnapshot(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	l.TryReserve(ctx, key("09:00"), 2)
	l.TryReserve(ctx, key("09:30"), 1)
	l.TryReserve(ctx, domain.NewSlotKey(domain.ServiceGrooming, slotDate, "09:00"), 1)

	snap, err := l.Snapshot(ctx, domain.ServiceVaccination, slotDate)
	require.NoError(t, err)

	require.Len(t, snap, 2)
	assert.Equal(t, 1, snap["09:00"].Remaining())
	assert.Equal(t, 0, snap["09:30"].Remaining())
}

func TestStaleAndReconcile(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.TryReserve(ctx, key("09:00"), 3)
	l.TryReserve(ctx, key("09:00"), 3)

	stale, err := l.Stale(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, 2, stale[0].Occupied)

	// запись изменилась после чтения - CAS не проходит
	now = now.Add(time.Second)
	l.TryReserve(ctx, key("09:00"), 3)
	ok, err := l.Reconcile(ctx, stale[0], 1)
	require.NoError(t, err)
	assert.False(t, ok)

	stale, _ = l.Stale(ctx, now.Add(time.Minute), 10)
	require.Len(t, stale, 1)
	ok, err = l.Reconcile(ctx, stale[0], 1)
	require.NoError(t, err)
	assert.True(t, ok)

	n, _ := l.OccupiedCount(ctx, key("09:00"))
	assert.Equal(t, 1, n)

	// сверенная запись больше не считается устаревшей
	stale, _ = l.Stale(ctx, now.Add(time.Minute), 10)
	assert.Empty(t, stale)
}

func TestReconcile_KeepsCountAboveLoweredCapacity(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.TryReserve(ctx, key("09:00"), 1)

	stale, err := l.Stale(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	// в хранилище бронирований три записи, оставшиеся от версии с лимитом 3
	ok, err := l.Reconcile(ctx, stale[0], 3)
	require.NoError(t, err)
	assert.True(t, ok)

	n, _ := l.OccupiedCount(ctx, key("09:00"))
	assert.Equal(t, 3, n)
}

func TestStale_PrunesExpiredDates(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.TryReserve(ctx, key("09:00"), 2)
	upcoming := domain.NewSlotKey(domain.ServiceVaccination, slotDate.AddDate(0, 0, 30), "09:00")
	l.TryReserve(ctx, upcoming, 2)

	now = slotDate.Add(RetentionAfterDate + time.Hour)

	_, err := l.Stale(ctx, now, 10)
	require.NoError(t, err)

	snap, _ := l.Snapshot(ctx, domain.ServiceVaccination, slotDate)
	assert.Empty(t, snap)
	n, _ := l.OccupiedCount(ctx, key("09:00"))
	assert.Zero(t, n)

	n, _ = l.OccupiedCount(ctx, upcoming)
	assert.Equal(t, 1, n)
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

func slotTimes(slots []domain.AvailableSlot) []types.TimeString {
	out := make([]types.TimeString, len(slots))
	for i, s := range slots {
		out[i] = s.StartTime
	}
	return out
}

func TestListAvailableSlots_AllFree(t *testing.T) {
	f := newFixture(testConfig(), Options{})

	res, err := f.svc.ListAvailableSlots(context.Background(), domain.ServiceVaccination, testDate)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ConfigVersion)
	assert.Equal(t, []types.TimeString{"09:00", "09:30", "10:00", "10:30"}, slotTimes(res.Slots))
	for _, s := range res.Slots {
		assert.Equal(t, 2, s.Capacity)
		assert.Equal(t, 2, s.Remaining)
	}
}

func TestListAvailableSlots_RemainingReflectsLedger(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, createReq(1, "09:30"))
	require.NoError(t, err)

	res, err := f.svc.ListAvailableSlots(ctx, domain.ServiceVaccination, testDate)
	require.NoError(t, err)
	require.Len(t, res.Slots, 4)
	assert.Equal(t, 1, res.Slots[1].Remaining)
	assert.Equal(t, 2, res.Slots[0].Remaining)
}

func TestListAvailableSlots_FullSlotDisplayFlag(t *testing.T) {
	cfg := testConfig()
	cfg.PerSlotLimit = 1
	ctx := context.Background()

	tests := []struct {
		name     string
		showFull bool
		want     []types.TimeString
	}{
		{"hidden", false, []types.TimeString{"09:30", "10:00", "10:30"}},
		{"shown with zero remaining", true, []types.TimeString{"09:00", "09:30", "10:00", "10:30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(cfg, Options{ShowFullSlots: tt.showFull})
			_, err := f.svc.CreateBooking(ctx, createReq(1, "09:00"))
			require.NoError(t, err)

			res, err := f.svc.ListAvailableSlots(ctx, domain.ServiceVaccination, testDate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slotTimes(res.Slots))
			if tt.showFull {
				assert.True(t, res.Slots[0].IsFull())
			}
		})
	}
}

func TestListAvailableSlots_ExcludesSlotsInsideLeadTime(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	// 08:40 + 60 минут = 09:40: 09:00 и 09:30 уже нельзя забронировать
	f.svc.WithTimeProvider(fixedTime{t: testDate.Add(8*time.Hour + 40*time.Minute)})

	res, err := f.svc.ListAvailableSlots(context.Background(), domain.ServiceVaccination, testDate)
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"10:00", "10:30"}, slotTimes(res.Slots))
}

func TestListAvailableSlots_UsesServiceTimezone(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	f := newFixture(testConfig(), Options{Location: moscow})
	// 06:10 UTC = 09:10 MSK, с учетом 60 минут остается 10:30
	f.svc.WithTimeProvider(fixedTime{t: testDate.Add(6*time.Hour + 10*time.Minute)})

	res, err := f.svc.ListAvailableSlots(context.Background(), domain.ServiceVaccination, testDate)
	require.NoError(t, err)
	assert.Equal(t, []types.TimeString{"10:30"}, slotTimes(res.Slots))
}

func TestListAvailableSlots_EmptyLists(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	t.Run("past date", func(t *testing.T) {
		res, err := f.svc.ListAvailableSlots(ctx, domain.ServiceVaccination, testDate.AddDate(0, 0, -3))
		require.NoError(t, err)
		assert.Empty(t, res.Slots)
	})

	t.Run("closed weekday", func(t *testing.T) {
		res, err := f.svc.ListAvailableSlots(ctx, domain.ServiceVaccination, testDate.AddDate(0, 0, 6))
		require.NoError(t, err)
		assert.Empty(t, res.Slots)
	})

	t.Run("beyond booking horizon", func(t *testing.T) {
		res, err := f.svc.ListAvailableSlots(ctx, domain.ServiceVaccination, testDate.AddDate(0, 2, 0))
		require.NoError(t, err)
		assert.Empty(t, res.Slots)
	})
}

func TestListAvailableSlots_Errors(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	_, err := f.svc.ListAvailableSlots(ctx, "dentist", testDate)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ListAvailableSlots(ctx, domain.ServiceGrooming, testDate)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestNewVersionLimitAppliesToTouchedSlot(t *testing.T) {
	cfg := testConfig()
	cfg.PerSlotLimit = 1
	f := newFixture(cfg, Options{})
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)
	_, err = f.svc.CancelBooking(ctx, b.ID, owner)
	require.NoError(t, err)

	// опубликована версия 2 с лимитом 3
	cfg.Version = 2
	cfg.PerSlotLimit = 3

	res, err := f.svc.ListAvailableSlots(ctx, domain.ServiceVaccination, testDate)
	require.NoError(t, err)
	require.NotEmpty(t, res.Slots)
	assert.Equal(t, types.TimeString("09:00"), res.Slots[0].StartTime)
	assert.Equal(t, 3, res.Slots[0].Capacity)
	assert.Equal(t, 3, res.Slots[0].Remaining)

	for user := int64(1); user <= 3; user++ {
		_, err := f.svc.CreateBooking(ctx, createReq(user, "09:00"))
		require.NoError(t, err)
	}
	_, err = f.svc.CreateBooking(ctx, createReq(4, "09:00"))
	assert.ErrorIs(t, err, ErrSlotFull)
	assert.Equal(t, 3, f.occupied("09:00"))
}

func TestLoweredLimitHidesSurplusCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.PerSlotLimit = 3
	f := newFixture(cfg, Options{ShowFullSlots: true})
	ctx := context.Background()

	for user := int64(1); user <= 2; user++ {
		_, err := f.svc.CreateBooking(ctx, createReq(user, "09:00"))
		require.NoError(t, err)
	}

	// версия 2 уменьшает лимит до 1: две записи остаются, новых мест нет
	cfg.Version = 2
	cfg.PerSlotLimit = 1

	res, err := f.svc.ListAvailableSlots(ctx, domain.ServiceVaccination, testDate)
	require.NoError(t, err)
	require.NotEmpty(t, res.Slots)
	assert.Equal(t, 1, res.Slots[0].Capacity)
	assert.Equal(t, 0, res.Slots[0].Remaining)

	_, err = f.svc.CreateBooking(ctx, createReq(3, "09:00"))
	assert.ErrorIs(t, err, ErrSlotFull)
	assert.Equal(t, 2, f.occupied("09:00"))
}

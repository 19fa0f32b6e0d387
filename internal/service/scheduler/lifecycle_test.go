package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

var owner = models.Actor{UserID: 7}

func rescheduleReq(id int64, start string) *models.RescheduleBookingRequest {
	return &models.RescheduleBookingRequest{
		BookingID: id,
		Actor:     owner,
		Date:      testDate,
		StartTime: types.TimeString(start),
	}
}

func TestRescheduleBooking_MovesCapacity(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)
	require.Equal(t, 1, f.occupied("09:00"))

	moved, err := f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "09:30"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRescheduled, moved.Status)
	assert.Equal(t, types.TimeString("09:30"), moved.StartTime)
	assert.Equal(t, 0, f.occupied("09:00"))
	assert.Equal(t, 1, f.occupied("09:30"))

	// повторный перенос из rescheduled разрешен
	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "10:00"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.occupied("09:30"))
	assert.Equal(t, 1, f.occupied("10:00"))
}

func TestRescheduleBooking_TargetFullLeavesBookingUntouched(t *testing.T) {
	cfg := testConfig()
	cfg.PerSlotLimit = 1
	f := newFixture(cfg, Options{})
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, createReq(8, "09:30"))
	require.NoError(t, err)

	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "09:30"))
	assert.ErrorIs(t, err, ErrSlotFull)

	assert.Equal(t, domain.StatusConfirmed, f.bookings.status(b.ID))
	assert.Equal(t, 1, f.occupied("09:00"))
	assert.Equal(t, 1, f.occupied("09:30"))
}

func TestRescheduleBooking_Rejections(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)

	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "09:00"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "09:10"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	req := rescheduleReq(b.ID, "09:30")
	req.Actor = models.Actor{UserID: 99}
	_, err = f.svc.RescheduleBooking(ctx, req)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(12345, "09:30"))
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.svc.CancelBooking(ctx, b.ID, owner)
	require.NoError(t, err)
	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "09:30"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, f.occupied("09:30"))
}

func TestRescheduleBooking_PendingCannotBeRescheduled(t *testing.T) {
	f := newFixture(testConfig(), Options{InitialStatus: domain.StatusPending})
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)

	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "09:30"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBooking_Twice(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	// два бронирования, чтобы двойное освобождение было видно по счетчику
	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, createReq(8, "09:00"))
	require.NoError(t, err)
	require.Equal(t, 2, f.occupied("09:00"))

	first, err := f.svc.CancelBooking(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, first.Status)
	assert.NotNil(t, first.CancelledAt)
	assert.Equal(t, 1, f.occupied("09:00"))

	second, err := f.svc.CancelBooking(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, second.Status)
	assert.Equal(t, 1, f.occupied("09:00"))
}

func TestCancelBooking_ReleasesCurrentSlotAfterReschedule(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)
	_, err = f.svc.RescheduleBooking(ctx, rescheduleReq(b.ID, "10:30"))
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, b.ID, models.Actor{UserID: 1, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, 0, f.occupied("09:00"))
	assert.Equal(t, 0, f.occupied("10:30"))
}

func TestCancelBooking_CompletedIsInvalidTransition(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()
	admin := models.Actor{UserID: 1, IsAdmin: true}

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)
	_, err = f.svc.CompleteBooking(ctx, b.ID, admin)
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, b.ID, owner)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, f.occupied("09:00"))
}

func TestCompleteBooking(t *testing.T) {
	ctx := context.Background()
	admin := models.Actor{UserID: 1, IsAdmin: true}

	t.Run("keeps capacity and is idempotent", func(t *testing.T) {
		f := newFixture(testConfig(), Options{})
		b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
		require.NoError(t, err)

		done, err := f.svc.CompleteBooking(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, done.Status)
		assert.Equal(t, 1, f.occupied("09:00"))

		again, err := f.svc.CompleteBooking(ctx, b.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, again.Status)
	})

	t.Run("pending cannot be completed", func(t *testing.T) {
		f := newFixture(testConfig(), Options{InitialStatus: domain.StatusPending})
		b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.CompleteBooking(ctx, b.ID, admin)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("requires admin", func(t *testing.T) {
		f := newFixture(testConfig(), Options{})
		b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
		require.NoError(t, err)

		_, err = f.svc.CompleteBooking(ctx, b.ID, owner)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestGetBooking_Access(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, createReq(7, "09:00"))
	require.NoError(t, err)

	got, err := f.svc.GetBooking(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetBooking(ctx, b.ID, models.Actor{UserID: 8})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.GetBooking(ctx, b.ID, models.Actor{UserID: 8, IsAdmin: true})
	assert.NoError(t, err)
}

func TestGetUserBookings_InvalidStatus(t *testing.T) {
	f := newFixture(testConfig(), Options{})
	status := "archived"

	_, err := f.svc.GetUserBookings(context.Background(), 7, &status)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

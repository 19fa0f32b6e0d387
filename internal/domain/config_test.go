package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *ScheduleConfig {
	return &ScheduleConfig{
		ServiceID:               ServiceVaccination,
		Version:                 1,
		EffectiveFrom:           time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Start:                   "09:00",
		End:                     "11:00",
		GapMinutes:              30,
		PerSlotLimit:            2,
		MinBookingNoticeMinutes: 60,
	}
}

func TestScheduleConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *ScheduleConfig)
		wantErr bool
	}{
		{"valid", func(c *ScheduleConfig) {}, false},
		{"unknown service", func(c *ScheduleConfig) { c.ServiceID = "dentistry" }, true},
		{"start equals end", func(c *ScheduleConfig) { c.End = "09:00" }, true},
		{"start after end", func(c *ScheduleConfig) { c.Start = "12:00" }, true},
		{"bad start format", func(c *ScheduleConfig) { c.Start = "9am" }, true},
		{"zero gap", func(c *ScheduleConfig) { c.GapMinutes = 0 }, true},
		{"gap too large", func(c *ScheduleConfig) { c.GapMinutes = MaxGapMinutes + 1 }, true},
		{"zero limit", func(c *ScheduleConfig) { c.PerSlotLimit = 0 }, true},
		{"limit too large", func(c *ScheduleConfig) { c.PerSlotLimit = MaxPerSlotLimit + 1 }, true},
		{"negative notice", func(c *ScheduleConfig) { c.MinBookingNoticeMinutes = -1 }, true},
		{"advance too far", func(c *ScheduleConfig) { c.AdvanceBookingDays = 400 }, true},
		{"bad weekday", func(c *ScheduleConfig) { c.ClosedWeekdays = WeekdaySet{7} }, true},
		{"bad disabled range", func(c *ScheduleConfig) {
			c.DisabledSlots = DisabledSlotList{DisabledRange{Start: "10:00", End: "09:00"}}
		}, true},
		{"closed weekend", func(c *ScheduleConfig) {
			c.ClosedWeekdays = WeekdaySet{time.Saturday, time.Sunday}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidScheduleConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleConfig_IsEffectiveOn(t *testing.T) {
	cfg := validConfig()

	assert.False(t, cfg.IsEffectiveOn(time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC)))
	assert.True(t, cfg.IsEffectiveOn(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cfg.IsEffectiveOn(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestWeekdaySet_Normalize(t *testing.T) {
	set := WeekdaySet{time.Sunday, time.Saturday, time.Sunday}.Normalize()

	assert.Equal(t, WeekdaySet{time.Sunday, time.Saturday}, set)
	assert.Equal(t, []int64{0, 6}, set.Ints())
	assert.Equal(t, set, WeekdaySetFromInts([]int64{0, 6}))
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.True(t, StatusRescheduled.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusCompleted.IsActive())

	assert.True(t, StatusCompleted.In(OccupyingStatuses))
	assert.False(t, StatusCancelled.In(OccupyingStatuses))

	b := &Booking{Status: StatusPending}
	assert.True(t, b.CanBeCancelled())
	assert.False(t, b.CanBeRescheduled())
	assert.False(t, b.CanBeCompleted())
}

func TestSlotKey(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	k := NewSlotKey(ServiceGrooming, time.Date(2026, 3, 2, 22, 30, 0, 0, loc), "09:00")

	assert.Equal(t, "grooming/2026-03-02/09:00", k.String())
	assert.True(t, k.Equal(NewSlotKey(ServiceGrooming, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "09:00:00")))
	assert.False(t, k.Equal(NewSlotKey(ServiceGrooming, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), "09:00")))
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	memcapacity "github.com/m04kA/PetCare-SlotService/internal/infra/memory/capacity"
	bookingRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/PetCare-SlotService/internal/infra/storage/schedule"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
	"github.com/m04kA/PetCare-SlotService/pkg/logger"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// Понедельник
var testDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

// fakeBookings хранилище бронирований в памяти с теми же CAS правилами, что и PostgreSQL
type fakeBookings struct {
	mu        sync.Mutex
	nextID    int64
	items     map[int64]*domain.Booking
	createErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{items: make(map[int64]*domain.Booking)}
}

func (f *fakeBookings) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	created := *b
	created.ID = f.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	f.items[created.ID] = &created
	out := created
	return &out, nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

func (f *fakeBookings) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Booking, 0)
	for _, b := range f.items {
		if b.UserID == userID && (status == nil || b.Status == *status) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBookings) GetByServiceDate(ctx context.Context, serviceID domain.ServiceID, date time.Time, includeInactive bool) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Booking, 0)
	for _, b := range f.items {
		if b.ServiceID == serviceID && b.Date.Equal(domain.NormalizeDate(date)) && (includeInactive || b.IsActive()) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id int64, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok || !b.Status.In(from) {
		return nil, bookingRepo.ErrStatusConflict
	}
	b.Status = to
	now := time.Now()
	switch to {
	case domain.StatusCancelled:
		b.CancelledAt = &now
	case domain.StatusCompleted:
		b.CompletedAt = &now
	}
	out := *b
	return &out, nil
}

func (f *fakeBookings) Reschedule(ctx context.Context, current *domain.Booking, to domain.SlotKey, version int) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[current.ID]
	if !ok || b.Status != current.Status || !b.Key().Equal(current.Key()) {
		return nil, bookingRepo.ErrStatusConflict
	}
	b.Date = to.Date
	b.StartTime = to.StartTime
	b.ConfigVersion = version
	b.Status = domain.StatusRescheduled
	out := *b
	return &out, nil
}

func (f *fakeBookings) status(id int64) domain.BookingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Status
}

// staticSchedule одна версия расписания на любую дату
type staticSchedule struct {
	cfg *domain.ScheduleConfig
}

func (s staticSchedule) GetEffective(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error) {
	if s.cfg == nil || s.cfg.ServiceID != serviceID {
		return nil, scheduleRepo.ErrConfigNotFound
	}
	return s.cfg, nil
}

// flakyLedger возвращает ErrStorageUnavailable на первых failures вызовах TryReserve
type flakyLedger struct {
	*memcapacity.Ledger
	failures      int32
	calls         int32
	transactional bool
}

func (l *flakyLedger) TryReserve(ctx context.Context, key domain.SlotKey, capacity int) (bool, error) {
	if atomic.AddInt32(&l.calls, 1) <= atomic.LoadInt32(&l.failures) {
		return false, fmt.Errorf("%w: connection refused", domain.ErrStorageUnavailable)
	}
	return l.Ledger.TryReserve(ctx, key, capacity)
}

func (l *flakyLedger) Transactional() bool { return l.transactional }

// countingTx выполняет fn без реальной транзакции и считает вызовы
type countingTx struct {
	calls int32
}

func (tx *countingTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	atomic.AddInt32(&tx.calls, 1)
	return fn(ctx)
}

type MockInvalidator struct{ mock.Mock }

func (m *MockInvalidator) Invalidate(ctx context.Context, serviceID domain.ServiceID, dates ...time.Time) error {
	return m.Called(ctx, serviceID, dates).Error(0)
}

func testConfig() *domain.ScheduleConfig {
	return &domain.ScheduleConfig{
		ID:                      1,
		ServiceID:               domain.ServiceVaccination,
		Version:                 1,
		EffectiveFrom:           testDate.AddDate(0, -1, 0),
		Start:                   types.MustTimeString("09:00"),
		End:                     types.MustTimeString("11:00"),
		GapMinutes:              30,
		PerSlotLimit:            2,
		ClosedWeekdays:          domain.WeekdaySet{time.Sunday},
		DisabledSlots:           domain.DisabledSlotList{},
		MinBookingNoticeMinutes: 60,
		AdvanceBookingDays:      30,
	}
}

type fixture struct {
	svc      *Service
	ledger   *memcapacity.Ledger
	bookings *fakeBookings
}

func newFixture(cfg *domain.ScheduleConfig, opts Options) *fixture {
	ledger := memcapacity.NewLedger()
	bookings := newFakeBookings()
	svc := NewService(staticSchedule{cfg: cfg}, bookings, ledger, nil, nil, nil, logger.NewNop(), opts).
		WithTimeProvider(fixedTime{t: testDate.Add(-12 * time.Hour)})
	return &fixture{svc: svc, ledger: ledger, bookings: bookings}
}

func (f *fixture) occupied(start string) int {
	n, _ := f.ledger.OccupiedCount(context.Background(),
		domain.NewSlotKey(domain.ServiceVaccination, testDate, types.TimeString(start)))
	return n
}

func createReq(userID int64, start string) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		UserID:    userID,
		ServiceID: domain.ServiceVaccination,
		Date:      testDate,
		StartTime: types.TimeString(start),
	}
}

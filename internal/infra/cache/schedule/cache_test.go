package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

type MockStore struct{ mock.Mock }

func (m *MockStore) Create(ctx context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleConfig), args.Error(1)
}

func (m *MockStore) GetEffective(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error) {
	args := m.Called(ctx, serviceID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleConfig), args.Error(1)
}

func (m *MockStore) GetByVersion(ctx context.Context, serviceID domain.ServiceID, version int) (*domain.ScheduleConfig, error) {
	args := m.Called(ctx, serviceID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleConfig), args.Error(1)
}

func (m *MockStore) ListVersions(ctx context.Context, serviceID domain.ServiceID) ([]*domain.ScheduleConfig, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleConfig), args.Error(1)
}

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestGetEffective_ReadThrough(t *testing.T) {
	store := new(MockStore)
	c := New(store, time.Minute, time.Minute)
	ctx := context.Background()

	v1 := &domain.ScheduleConfig{ServiceID: domain.ServiceGrooming, Version: 1}
	store.On("GetEffective", ctx, domain.ServiceGrooming, day).Return(v1, nil).Once()

	first, err := c.GetEffective(ctx, domain.ServiceGrooming, day)
	require.NoError(t, err)
	second, err := c.GetEffective(ctx, domain.ServiceGrooming, day.Add(10*time.Hour))
	require.NoError(t, err)

	assert.Same(t, v1, first)
	assert.Same(t, v1, second)
	store.AssertExpectations(t)
}

func TestGetEffective_ErrorsAreNotCached(t *testing.T) {
	store := new(MockStore)
	c := New(store, time.Minute, time.Minute)
	ctx := context.Background()

	boom := errors.New("db down")
	store.On("GetEffective", ctx, domain.ServiceImaging, day).Return(nil, boom).Twice()

	_, err := c.GetEffective(ctx, domain.ServiceImaging, day)
	assert.ErrorIs(t, err, boom)
	_, err = c.GetEffective(ctx, domain.ServiceImaging, day)
	assert.ErrorIs(t, err, boom)
	store.AssertExpectations(t)
}

func TestCreate_EvictsEffectiveForService(t *testing.T) {
	store := new(MockStore)
	c := New(store, time.Minute, time.Minute)
	ctx := context.Background()

	v1 := &domain.ScheduleConfig{ServiceID: domain.ServiceGrooming, Version: 1}
	v2 := &domain.ScheduleConfig{ServiceID: domain.ServiceGrooming, Version: 2}
	other := &domain.ScheduleConfig{ServiceID: domain.ServiceImaging, Version: 5}

	store.On("GetEffective", ctx, domain.ServiceGrooming, day).Return(v1, nil).Once()
	store.On("GetEffective", ctx, domain.ServiceImaging, day).Return(other, nil).Once()
	store.On("Create", ctx, mock.Anything).Return(v2, nil).Once()

	_, err := c.GetEffective(ctx, domain.ServiceGrooming, day)
	require.NoError(t, err)
	_, err = c.GetEffective(ctx, domain.ServiceImaging, day)
	require.NoError(t, err)

	_, err = c.Create(ctx, &domain.ScheduleConfig{ServiceID: domain.ServiceGrooming})
	require.NoError(t, err)

	store.On("GetEffective", ctx, domain.ServiceGrooming, day).Return(v2, nil).Once()

	got, err := c.GetEffective(ctx, domain.ServiceGrooming, day)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)

	// другая услуга осталась в кэше
	got, err = c.GetEffective(ctx, domain.ServiceImaging, day)
	require.NoError(t, err)
	assert.Same(t, other, got)

	// созданная версия доступна без обращения к хранилищу
	got, err = c.GetByVersion(ctx, domain.ServiceGrooming, 2)
	require.NoError(t, err)
	assert.Same(t, v2, got)

	store.AssertExpectations(t)
}

package get_service_bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler"
	"github.com/m04kA/PetCare-SlotService/pkg/logger"
)

type MockBookingService struct{ mock.Mock }

func (m *MockBookingService) GetServiceBookings(ctx context.Context, serviceID domain.ServiceID, date time.Time, includeInactive bool) ([]*domain.Booking, error) {
	args := m.Called(ctx, serviceID, date, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

var bookingDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

var onBookingDate = mock.MatchedBy(func(d time.Time) bool { return d.Equal(bookingDate) })

func doRequest(svc BookingService, path string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/services/{serviceId}/bookings", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandle(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("GetServiceBookings", mock.Anything, domain.ServiceGrooming, onBookingDate, true).Return([]*domain.Booking{
		{ID: 3, UserID: 5, ServiceID: domain.ServiceGrooming, Date: bookingDate, StartTime: "09:00", Status: domain.StatusCancelled},
		{ID: 4, UserID: 6, ServiceID: domain.ServiceGrooming, Date: bookingDate, StartTime: "09:00", Status: domain.StatusConfirmed},
	}, nil).Once()

	rec := doRequest(svc, "/services/grooming/bookings?date=2026-03-02&includeInactive=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []handlers.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "cancelled", resp[0].Status)
	svc.AssertExpectations(t)
}

func TestHandle_DefaultsToActiveOnly(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("GetServiceBookings", mock.Anything, domain.ServiceVaccination, onBookingDate, false).
		Return([]*domain.Booking{}, nil).Once()

	rec := doRequest(svc, "/services/vaccination/bookings?date=2026-03-02")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandle_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"unknown service", "/services/surgery/bookings?date=2026-03-02"},
		{"missing date", "/services/grooming/bookings"},
		{"bad date", "/services/grooming/bookings?date=02-03-2026"},
		{"bad flag", "/services/grooming/bookings?date=2026-03-02&includeInactive=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingService)

			rec := doRequest(svc, tt.path)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "GetServiceBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandle_StorageUnavailable(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("GetServiceBookings", mock.Anything, domain.ServiceGrooming, onBookingDate, false).
		Return(nil, scheduler.ErrStorageUnavailable).Once()

	rec := doRequest(svc, "/services/grooming/bookings?date=2026-03-02")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

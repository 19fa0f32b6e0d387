package get_booking

import (
	"net/http"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/api/middleware"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgMissingUserID    = "отсутствует ID пользователя"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings/{bookingId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := handlers.BookingIDFromPath(r)
	if !ok {
		h.logger.Warn("GET /bookings/{id} - Invalid booking ID: %q", r.URL.Path)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), bookingID, actor)
	if err != nil {
		if handlers.RespondSchedulerError(w, err) {
			h.logger.Warn("GET /bookings/{id} - Rejected: booking_id=%d, user_id=%d: %v", bookingID, actor.UserID, err)
		} else {
			h.logger.Error("GET /bookings/{id} - Failed: booking_id=%d, user_id=%d, error=%v", bookingID, actor.UserID, err)
		}
		return
	}

	h.logger.Info("GET /bookings/{id} - Booking retrieved: booking_id=%d, user_id=%d, status=%s",
		bookingID, actor.UserID, booking.Status)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromDomainBooking(booking))
}

package reschedule_booking

import (
	"net/http"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/api/middleware"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
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

// Handle PUT /api/v1/bookings/{bookingId}/reschedule
// Место в новом слоте занимается до освобождения старого
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := handlers.BookingIDFromPath(r)
	if !ok {
		h.logger.Warn("PUT /bookings/{id}/reschedule - Invalid booking ID: %q", r.URL.Path)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("PUT /bookings/{id}/reschedule - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("PUT /bookings/{id}/reschedule - %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	serviceReq, err := req.ToServiceRequest(bookingID, actor)
	if err != nil {
		h.logger.Warn("PUT /bookings/{id}/reschedule - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.service.RescheduleBooking(r.Context(), serviceReq)
	if err != nil {
		if handlers.RespondSchedulerError(w, err) {
			h.logger.Warn("PUT /bookings/{id}/reschedule - Rejected: booking_id=%d, target=%s %s: %v",
				bookingID, req.Date, req.StartTime, err)
		} else {
			h.logger.Error("PUT /bookings/{id}/reschedule - Failed: booking_id=%d, error=%v", bookingID, err)
		}
		return
	}

	h.logger.Info("PUT /bookings/{id}/reschedule - Booking moved: booking_id=%d, slot=%s %s",
		bookingID, req.Date, req.StartTime)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromDomainBooking(booking))
}

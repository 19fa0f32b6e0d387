package create_booking

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/api/middleware"
	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

const (
	msgUnknownService     = "неизвестная услуга"
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

// Handle POST /api/v1/services/{serviceId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID := domain.ServiceID(mux.Vars(r)["serviceId"])
	if !serviceID.IsValid() {
		h.logger.Warn("POST /services/{id}/bookings - Unknown service: %q", serviceID)
		handlers.RespondBadRequest(w, msgUnknownService)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /services/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /services/{id}/bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("POST /services/{id}/bookings - %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	serviceReq, err := req.ToServiceRequest(userID, serviceID)
	if err != nil {
		h.logger.Warn("POST /services/{id}/bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), serviceReq)
	if err != nil {
		if handlers.RespondSchedulerError(w, err) {
			h.logger.Warn("POST /services/{id}/bookings - Rejected: user_id=%d, service_id=%s, slot=%s %s: %v",
				userID, serviceID, req.Date, req.StartTime, err)
		} else {
			h.logger.Error("POST /services/{id}/bookings - Failed to create booking: user_id=%d, service_id=%s, error=%v",
				userID, serviceID, err)
		}
		return
	}

	h.logger.Info("POST /services/{id}/bookings - Booking created: booking_id=%d, user_id=%d, service_id=%s",
		booking.ID, userID, serviceID)
	handlers.RespondJSON(w, http.StatusCreated, handlers.FromDomainBooking(booking))
}

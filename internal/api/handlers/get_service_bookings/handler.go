package get_service_bookings

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

const (
	msgUnknownService  = "неизвестная услуга"
	msgInvalidDate     = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidInactive = "параметр includeInactive должен быть true или false"
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

// Handle GET /api/v1/services/{serviceId}/bookings?date=YYYY-MM-DD&includeInactive=false
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID := domain.ServiceID(mux.Vars(r)["serviceId"])
	if !serviceID.IsValid() {
		h.logger.Warn("GET /services/{id}/bookings - Unknown service: %q", serviceID)
		handlers.RespondBadRequest(w, msgUnknownService)
		return
	}

	query := r.URL.Query()
	date, err := domain.ParseDate(query.Get("date"))
	if err != nil {
		h.logger.Warn("GET /services/{id}/bookings - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	includeInactive := false
	if raw := query.Get("includeInactive"); raw != "" {
		includeInactive, err = strconv.ParseBool(raw)
		if err != nil {
			handlers.RespondBadRequest(w, msgInvalidInactive)
			return
		}
	}

	result, err := h.service.GetServiceBookings(r.Context(), serviceID, date, includeInactive)
	if err != nil {
		if !handlers.RespondSchedulerError(w, err) {
			h.logger.Error("GET /services/{id}/bookings - Failed to get bookings: service_id=%s, error=%v", serviceID, err)
		}
		return
	}

	h.logger.Info("GET /services/{id}/bookings - Bookings retrieved: service_id=%s, date=%s, count=%d",
		serviceID, date.Format(domain.DateFormat), len(result))
	handlers.RespondJSON(w, http.StatusOK, handlers.FromDomainBookings(result))
}

package get_available_slots

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

const (
	msgUnknownService = "неизвестная услуга"
	msgMissingDate    = "дата обязательна"
	msgInvalidDate    = "некорректный формат даты, ожидается YYYY-MM-DD"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/services/{serviceId}/slots?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID := domain.ServiceID(mux.Vars(r)["serviceId"])
	if !serviceID.IsValid() {
		h.logger.Warn("GET /services/{id}/slots - Unknown service: %q", serviceID)
		handlers.RespondBadRequest(w, msgUnknownService)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /services/{id}/slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := domain.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /services/{id}/slots - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.service.ListAvailableSlots(r.Context(), serviceID, date)
	if err != nil {
		if handlers.RespondSchedulerError(w, err) {
			h.logger.Warn("GET /services/{id}/slots - service_id=%s, date=%s: %v", serviceID, dateStr, err)
		} else {
			h.logger.Error("GET /services/{id}/slots - Failed to get slots: service_id=%s, date=%s, error=%v",
				serviceID, dateStr, err)
		}
		return
	}

	h.logger.Info("GET /services/{id}/slots - Slots retrieved: service_id=%s, date=%s, slots_count=%d",
		serviceID, dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromServiceResponse(result))
}

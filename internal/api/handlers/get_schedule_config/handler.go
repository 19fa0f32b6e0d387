package get_schedule_config

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

const (
	msgUnknownService = "неизвестная услуга"
	msgInvalidDate    = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidVersion = "некорректный номер версии"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/services/{serviceId}/schedule-config?date=YYYY-MM-DD
// Без даты возвращается версия, действующая сегодня
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	var date *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			h.logger.Warn("GET /services/{id}/schedule-config - Invalid date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		date = &parsed
	}

	cfg, err := h.service.GetEffective(r.Context(), serviceID, date)
	if err != nil {
		if !handlers.RespondScheduleError(w, err) {
			h.logger.Error("GET /services/{id}/schedule-config - Failed: service_id=%s, error=%v", serviceID, err)
		}
		return
	}

	h.logger.Info("GET /services/{id}/schedule-config - Config retrieved: service_id=%s, version=%d", serviceID, cfg.Version)
	handlers.RespondJSON(w, http.StatusOK, cfg)
}

// HandleVersions GET /api/v1/services/{serviceId}/schedule-config/versions
func (h *Handler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListVersions(r.Context(), serviceID)
	if err != nil {
		if !handlers.RespondScheduleError(w, err) {
			h.logger.Error("GET /services/{id}/schedule-config/versions - Failed: service_id=%s, error=%v", serviceID, err)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}

// HandleVersion GET /api/v1/services/{serviceId}/schedule-config/versions/{version}
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	version, err := strconv.Atoi(mux.Vars(r)["version"])
	if err != nil || version <= 0 {
		handlers.RespondBadRequest(w, msgInvalidVersion)
		return
	}

	cfg, err := h.service.GetVersion(r.Context(), serviceID, version)
	if err != nil {
		if !handlers.RespondScheduleError(w, err) {
			h.logger.Error("GET /services/{id}/schedule-config/versions/{v} - Failed: service_id=%s, version=%d, error=%v",
				serviceID, version, err)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cfg)
}

func (h *Handler) serviceID(w http.ResponseWriter, r *http.Request) (domain.ServiceID, bool) {
	serviceID := domain.ServiceID(mux.Vars(r)["serviceId"])
	if !serviceID.IsValid() {
		h.logger.Warn("%s %s - Unknown service: %q", r.Method, r.URL.Path, serviceID)
		handlers.RespondBadRequest(w, msgUnknownService)
		return "", false
	}
	return serviceID, true
}

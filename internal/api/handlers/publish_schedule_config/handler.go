package publish_schedule_config

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/PetCare-SlotService/internal/api/handlers"
	"github.com/m04kA/PetCare-SlotService/internal/api/middleware"
	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/schedule"
)

const (
	msgUnknownService     = "неизвестная услуга"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
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

// Handle POST /api/v1/services/{serviceId}/schedule-config
// Публикует новую версию; существующие бронирования не затрагиваются
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID := domain.ServiceID(mux.Vars(r)["serviceId"])
	if !serviceID.IsValid() {
		h.logger.Warn("POST /services/{id}/schedule-config - Unknown service: %q", serviceID)
		handlers.RespondBadRequest(w, msgUnknownService)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req PublishConfigRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /services/{id}/schedule-config - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("POST /services/{id}/schedule-config - %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	serviceReq, err := req.ToServiceRequest(userID, middleware.IsAdmin(r.Context()), serviceID)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	cfg, err := h.service.Publish(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidInput) {
			h.logger.Warn("POST /services/{id}/schedule-config - Invalid config: service_id=%s: %v", serviceID, err)
			handlers.RespondBadRequest(w, err.Error())
			return
		}
		if handlers.RespondScheduleError(w, err) {
			h.logger.Warn("POST /services/{id}/schedule-config - Rejected: service_id=%s: %v", serviceID, err)
		} else {
			h.logger.Error("POST /services/{id}/schedule-config - Failed to publish: service_id=%s, error=%v", serviceID, err)
		}
		return
	}

	h.logger.Info("POST /services/{id}/schedule-config - Version published: service_id=%s, version=%d, effective_from=%s",
		serviceID, cfg.Version, cfg.EffectiveFrom)
	handlers.RespondJSON(w, http.StatusCreated, cfg)
}

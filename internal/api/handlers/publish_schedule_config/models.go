package publish_schedule_config

import (
	"encoding/json"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/schedule/models"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// PublishConfigRequest HTTP request model
// Необязательные поля заполняются значениями по умолчанию
type PublishConfigRequest struct {
	EffectiveFrom           string          `json:"effectiveFrom,omitempty" validate:"omitempty,date"`
	Start                   string          `json:"start" validate:"required,hhmm"`
	End                     string          `json:"end" validate:"required,hhmm"`
	GapBetween              *int            `json:"gapBetween,omitempty" validate:"omitempty,min=1"`
	PerGapLimitBooking      *int            `json:"perGapLimitBooking,omitempty" validate:"omitempty,min=1"`
	ClosedWeekdays          []int           `json:"closedWeekdays,omitempty" validate:"omitempty,max=7,dive,min=0,max=6"`
	DisabledSlots           json.RawMessage `json:"disabledSlots,omitempty"`
	MinBookingNoticeMinutes *int            `json:"minBookingNoticeMinutes,omitempty" validate:"omitempty,min=0"`
	AdvanceBookingDays      *int            `json:"advanceBookingDays,omitempty" validate:"omitempty,min=0"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *PublishConfigRequest) ToServiceRequest(userID int64, isAdmin bool, serviceID domain.ServiceID) (*models.PublishConfigRequest, error) {
	var effectiveFrom time.Time
	if r.EffectiveFrom != "" {
		parsed, err := domain.ParseDate(r.EffectiveFrom)
		if err != nil {
			return nil, err
		}
		effectiveFrom = parsed
	}

	return &models.PublishConfigRequest{
		UserID:                  userID,
		IsAdmin:                 isAdmin,
		ServiceID:               serviceID,
		EffectiveFrom:           effectiveFrom,
		Start:                   types.TimeString(r.Start),
		End:                     types.TimeString(r.End),
		GapMinutes:              r.GapBetween,
		PerSlotLimit:            r.PerGapLimitBooking,
		ClosedWeekdays:          r.ClosedWeekdays,
		DisabledSlots:           r.DisabledSlots,
		MinBookingNoticeMinutes: r.MinBookingNoticeMinutes,
		AdvanceBookingDays:      r.AdvanceBookingDays,
	}, nil
}

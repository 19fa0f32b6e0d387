package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// Request модели

// PublishConfigRequest запрос на публикацию новой версии расписания
// Пустые поля заполняются значениями по умолчанию
type PublishConfigRequest struct {
	UserID                  int64
	IsAdmin                 bool
	ServiceID               domain.ServiceID
	EffectiveFrom           time.Time
	Start                   types.TimeString
	End                     types.TimeString
	GapMinutes              *int
	PerSlotLimit            *int
	ClosedWeekdays          []int
	DisabledSlots           json.RawMessage
	MinBookingNoticeMinutes *int
	AdvanceBookingDays      *int
}

// ToDomainConfig конвертирует запрос в domain модель (без номера версии)
func (r *PublishConfigRequest) ToDomainConfig() (*domain.ScheduleConfig, error) {
	cfg := &domain.ScheduleConfig{
		ServiceID:               r.ServiceID,
		EffectiveFrom:           domain.NormalizeDate(r.EffectiveFrom),
		Start:                   r.Start,
		End:                     r.End,
		GapMinutes:              valueOr(r.GapMinutes, domain.DefaultGapMinutes),
		PerSlotLimit:            valueOr(r.PerSlotLimit, domain.DefaultPerSlotLimit),
		ClosedWeekdays:          make(domain.WeekdaySet, 0, len(r.ClosedWeekdays)),
		DisabledSlots:           domain.DisabledSlotList{},
		MinBookingNoticeMinutes: valueOr(r.MinBookingNoticeMinutes, domain.DefaultMinBookingNoticeMinutes),
		AdvanceBookingDays:      valueOr(r.AdvanceBookingDays, domain.DefaultAdvanceBookingDays),
	}
	if r.UserID > 0 {
		userID := r.UserID
		cfg.CreatedBy = &userID
	}

	for _, d := range r.ClosedWeekdays {
		cfg.ClosedWeekdays = append(cfg.ClosedWeekdays, time.Weekday(d))
	}
	cfg.ClosedWeekdays = cfg.ClosedWeekdays.Normalize()

	if len(r.DisabledSlots) > 0 {
		if err := json.Unmarshal(r.DisabledSlots, &cfg.DisabledSlots); err != nil {
			return nil, fmt.Errorf("disabledSlots: %w", err)
		}
	}

	return cfg, nil
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Response модели

// ConfigResponse ответ с данными версии расписания
type ConfigResponse struct {
	ID                      int64                   `json:"id"`
	ServiceID               domain.ServiceID        `json:"serviceId"`
	Version                 int                     `json:"version"`
	EffectiveFrom           string                  `json:"effectiveFrom"`
	Start                   types.TimeString        `json:"start"`
	End                     types.TimeString        `json:"end"`
	GapMinutes              int                     `json:"gapBetween"`
	PerSlotLimit            int                     `json:"perGapLimitBooking"`
	ClosedWeekdays          []int                   `json:"closedWeekdays"`
	DisabledSlots           domain.DisabledSlotList `json:"disabledSlots"`
	MinBookingNoticeMinutes int                     `json:"minBookingNoticeMinutes"`
	AdvanceBookingDays      int                     `json:"advanceBookingDays"`
	CreatedBy               *int64                  `json:"createdBy,omitempty"`
	CreatedAt               time.Time               `json:"createdAt"`
}

// ConfigListResponse ответ со списком версий
type ConfigListResponse struct {
	Versions []ConfigResponse `json:"versions"`
}

// Методы конвертации

// FromDomainConfig конвертирует domain модель в DTO
func FromDomainConfig(c *domain.ScheduleConfig) *ConfigResponse {
	if c == nil {
		return nil
	}

	weekdays := make([]int, len(c.ClosedWeekdays))
	for i, w := range c.ClosedWeekdays {
		weekdays[i] = int(w)
	}

	disabled := c.DisabledSlots
	if disabled == nil {
		disabled = domain.DisabledSlotList{}
	}

	return &ConfigResponse{
		ID:                      c.ID,
		ServiceID:               c.ServiceID,
		Version:                 c.Version,
		EffectiveFrom:           c.EffectiveFrom.Format(domain.DateFormat),
		Start:                   c.Start,
		End:                     c.End,
		GapMinutes:              c.GapMinutes,
		PerSlotLimit:            c.PerSlotLimit,
		ClosedWeekdays:          weekdays,
		DisabledSlots:           disabled,
		MinBookingNoticeMinutes: c.MinBookingNoticeMinutes,
		AdvanceBookingDays:      c.AdvanceBookingDays,
		CreatedBy:               c.CreatedBy,
		CreatedAt:               c.CreatedAt,
	}
}

// FromDomainConfigList конвертирует список domain моделей в DTO
func FromDomainConfigList(configs []*domain.ScheduleConfig) *ConfigListResponse {
	resp := &ConfigListResponse{
		Versions: make([]ConfigResponse, 0, len(configs)),
	}

	for _, cfg := range configs {
		if configResp := FromDomainConfig(cfg); configResp != nil {
			resp.Versions = append(resp.Versions, *configResp)
		}
	}

	return resp
}

package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler/models"
	"github.com/m04kA/PetCare-SlotService/internal/service/slotgen"
	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// validateCreateRequest валидирует входные данные запроса
func validateCreateRequest(req *models.CreateBookingRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}
	if !req.ServiceID.IsValid() {
		return fmt.Errorf("%w: unknown service %q", ErrInvalidInput, req.ServiceID)
	}
	if err := validateSlotInput(req.Date, req.StartTime); err != nil {
		return err
	}
	return validatePayload(req.Payload)
}

// validateRescheduleRequest валидирует входные данные переноса
func validateRescheduleRequest(req *models.RescheduleBookingRequest) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	return validateSlotInput(req.Date, req.StartTime)
}

func validateSlotInput(date time.Time, start types.TimeString) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if start.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}
	if err := start.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidSlot, err)
	}
	return nil
}

// validatePayload payload необязателен, но если передан, это JSON объект ограниченного размера
func validatePayload(payload json.RawMessage) error {
	if len(payload) == 0 {
		return nil
	}
	if len(payload) > domain.MaxPayloadBytes {
		return fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidInput, domain.MaxPayloadBytes)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return fmt.Errorf("%w: payload must be a JSON object: %v", ErrInvalidInput, err)
	}
	return nil
}

// checkSlot проверяет, что слот есть среди кандидатов на дату и его еще можно забронировать
//
// Порядок проверок:
// 1. Выходной день, время вне рабочих часов или отключенный слот - ErrSlotClosed
// 2. Время внутри часов, но не на сетке - ErrInvalidSlot
// 3. Раньше now + MinBookingNoticeMinutes - ErrSlotInPast
// 4. Дальше горизонта AdvanceBookingDays - ErrDateTooFarInFuture
func checkSlot(cfg *domain.ScheduleConfig, date time.Time, start types.TimeString, now time.Time) error {
	if cfg.ClosedWeekdays.Contains(date.Weekday()) {
		return fmt.Errorf("%w: %s is a closed weekday", ErrSlotClosed, date.Weekday())
	}

	m := start.Minutes()
	if m < cfg.Start.Minutes() || m >= cfg.End.Minutes() {
		return fmt.Errorf("%w: %s is outside working hours %s-%s", ErrSlotClosed, start, cfg.Start, cfg.End)
	}
	if !slotgen.IsOnGrid(cfg, start) {
		return fmt.Errorf("%w: %s is not on the %d minute grid from %s", ErrInvalidSlot, start, cfg.GapMinutes, cfg.Start)
	}
	if cfg.DisabledSlots.Blocks(start) {
		return fmt.Errorf("%w: %s is disabled", ErrSlotClosed, start)
	}

	if isBeforeNotice(date, start, now, cfg.MinBookingNoticeMinutes) {
		return fmt.Errorf("%w: must book at least %d minutes in advance", ErrSlotInPast, cfg.MinBookingNoticeMinutes)
	}

	if isBeyondHorizon(date, now, cfg.AdvanceBookingDays) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, cfg.AdvanceBookingDays)
	}

	return nil
}

// isBeforeNotice true, если начало слота раньше now + notice
// now должен быть в часовом поясе сервиса
func isBeforeNotice(date time.Time, start types.TimeString, now time.Time, noticeMinutes int) bool {
	slotStart := start.OnDate(date, now.Location())
	return slotStart.Before(now.Add(time.Duration(noticeMinutes) * time.Minute))
}

// isBeyondHorizon true, если дата позже сегодня + advanceBookingDays (0 = без ограничений)
func isBeyondHorizon(date, now time.Time, advanceBookingDays int) bool {
	if advanceBookingDays <= 0 {
		return false
	}
	maxDate := domain.NormalizeDate(now).AddDate(0, 0, advanceBookingDays)
	return domain.NormalizeDate(date).After(maxDate)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/PetCare-SlotService/internal/service/schedule"
	"github.com/m04kA/PetCare-SlotService/internal/service/scheduler"
)

// Причины ошибок в теле ответа
const (
	ReasonSlotFull           = "SlotFull"
	ReasonSlotClosed         = "SlotClosed"
	ReasonSlotInPast         = "SlotInPast"
	ReasonInvalidSlot        = "InvalidSlot"
	ReasonDateTooFar         = "DateTooFarInFuture"
	ReasonStorageUnavailable = "StorageUnavailable"
	ReasonInvalidTransition  = "InvalidTransition"
	ReasonBookingNotFound    = "BookingNotFound"
	ReasonConfigNotFound     = "ConfigNotFound"
	ReasonAccessDenied       = "AccessDenied"
	ReasonInvalidInput       = "InvalidInput"
	ReasonVersionConflict    = "VersionConflict"
	ReasonRateLimited        = "RateLimited"
)

const (
	msgSlotFull           = "в выбранном слоте нет свободных мест"
	msgSlotClosed         = "выбранный слот закрыт для записи"
	msgSlotInPast         = "слишком поздно для записи на этот слот"
	msgInvalidSlot        = "некорректный временной слот"
	msgDateTooFar         = "дата записи слишком далеко в будущем"
	msgStorageUnavailable = "сервис временно недоступен, повторите запрос позже"
	msgInvalidTransition  = "недопустимое изменение статуса бронирования"
	msgBookingNotFound    = "бронирование не найдено"
	msgConfigNotFound     = "расписание услуги не найдено"
	msgForbidden          = "доступ запрещен"
	msgInvalidInput       = "некорректные входные данные"
	msgVersionConflict    = "версия расписания публикуется параллельно, повторите запрос"
)

type errorMapping struct {
	err     error
	status  int
	reason  string
	message string
}

var schedulerErrors = []errorMapping{
	{scheduler.ErrSlotFull, http.StatusConflict, ReasonSlotFull, msgSlotFull},
	{scheduler.ErrSlotClosed, http.StatusConflict, ReasonSlotClosed, msgSlotClosed},
	{scheduler.ErrSlotInPast, http.StatusConflict, ReasonSlotInPast, msgSlotInPast},
	{scheduler.ErrInvalidSlot, http.StatusBadRequest, ReasonInvalidSlot, msgInvalidSlot},
	{scheduler.ErrDateTooFarInFuture, http.StatusBadRequest, ReasonDateTooFar, msgDateTooFar},
	{scheduler.ErrInvalidTransition, http.StatusConflict, ReasonInvalidTransition, msgInvalidTransition},
	{scheduler.ErrBookingNotFound, http.StatusNotFound, ReasonBookingNotFound, msgBookingNotFound},
	{scheduler.ErrConfigNotFound, http.StatusNotFound, ReasonConfigNotFound, msgConfigNotFound},
	{scheduler.ErrAccessDenied, http.StatusForbidden, ReasonAccessDenied, msgForbidden},
	{scheduler.ErrInvalidInput, http.StatusBadRequest, ReasonInvalidInput, msgInvalidInput},
	{scheduler.ErrStorageUnavailable, http.StatusServiceUnavailable, ReasonStorageUnavailable, msgStorageUnavailable},
}

var scheduleErrors = []errorMapping{
	{schedule.ErrConfigNotFound, http.StatusNotFound, ReasonConfigNotFound, msgConfigNotFound},
	{schedule.ErrAccessDenied, http.StatusForbidden, ReasonAccessDenied, msgForbidden},
	{schedule.ErrInvalidInput, http.StatusBadRequest, ReasonInvalidInput, msgInvalidInput},
	{schedule.ErrVersionConflict, http.StatusConflict, ReasonVersionConflict, msgVersionConflict},
	{schedule.ErrStorageUnavailable, http.StatusServiceUnavailable, ReasonStorageUnavailable, msgStorageUnavailable},
}

// RespondSchedulerError отвечает по ошибке сервиса бронирований.
// Возвращает false для неизвестной ошибки, ответ в этом случае 500
func RespondSchedulerError(w http.ResponseWriter, err error) bool {
	return respondMapped(w, schedulerErrors, err)
}

func respondMapped(w http.ResponseWriter, mappings []errorMapping, err error) bool {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			RespondReason(w, m.status, m.reason, m.message)
			return true
		}
	}
	RespondInternalError(w)
	return false
}

// RespondScheduleError отвечает по ошибке сервиса расписаний
func RespondScheduleError(w http.ResponseWriter, err error) bool {
	return respondMapped(w, scheduleErrors, err)
}

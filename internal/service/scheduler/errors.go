package scheduler

import (
	"errors"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

var (
	// ErrSlotClosed время не входит в расписание: выходной, отключенный слот или вне рабочих часов
	ErrSlotClosed = errors.New("slot is closed")

	// ErrSlotInPast слот раньше текущего времени плюс минимальное время до записи
	ErrSlotInPast = errors.New("slot is in the past")

	// ErrSlotFull в слоте не осталось мест
	ErrSlotFull = errors.New("slot is full")

	// ErrInvalidSlot время не совпадает с сеткой слотов (или перенос в тот же слот)
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrDateTooFarInFuture дата дальше разрешенного горизонта записи
	ErrDateTooFarInFuture = errors.New("date is too far in the future")

	// ErrStorageUnavailable хранилище недоступно, запрос можно повторить позже
	ErrStorageUnavailable = domain.ErrStorageUnavailable

	// ErrInvalidTransition переход статуса бронирования недопустим
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrConfigNotFound для услуги нет версии расписания, действующей на дату
	ErrConfigNotFound = errors.New("schedule config not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("scheduler: internal error")
)

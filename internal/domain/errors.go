package domain

import "errors"

var (
	// ErrInvalidScheduleConfig возвращается, когда конфигурация расписания не проходит валидацию
	ErrInvalidScheduleConfig = errors.New("domain: invalid schedule config")

	// ErrUnknownService возвращается для неизвестного идентификатора услуги
	ErrUnknownService = errors.New("domain: unknown service")

	// ErrInvalidDisabledSlot возвращается при некорректном описании отключенного слота
	ErrInvalidDisabledSlot = errors.New("domain: invalid disabled slot")

	// ErrStorageUnavailable возвращается хранилищами, когда бэкенд недоступен или не ответил вовремя.
	// Никогда не означает "слот занят"
	ErrStorageUnavailable = errors.New("domain: storage unavailable")
)

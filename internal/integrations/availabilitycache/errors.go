package availabilitycache

import "errors"

var (
	// ErrInvalidate возвращается, когда не удалось удалить ключи кэша
	ErrInvalidate = errors.New("availabilitycache client: failed to invalidate")
)

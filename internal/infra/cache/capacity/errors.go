package capacity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

var (
	// ErrRedis возвращается при ошибке выполнения команды Redis
	ErrRedis = errors.New("capacity.redis: command failed")

	// ErrInvalidCapacity возвращается при попытке создать слот с неположительной вместимостью
	ErrInvalidCapacity = errors.New("capacity.redis: capacity must be positive")

	// ErrCorruptEntry возвращается, когда данные слота в Redis не разбираются
	ErrCorruptEntry = errors.New("capacity.redis: corrupt entry")
)

// Ответы сервера, после которых имеет смысл повторить запрос
var retryableReplies = []string{"LOADING", "READONLY", "MASTERDOWN", "CLUSTERDOWN", "TRYAGAIN", "BUSY"}

// isUnavailable различает ответ сервера об ошибке в скрипте и недоступность Redis
func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
		return true
	}

	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		msg := replyErr.Error()
		for _, prefix := range retryableReplies {
			if strings.HasPrefix(msg, prefix) {
				return true
			}
		}
		return false
	}

	// ошибки сети, пула соединений и таймауты
	return true
}

func wrap(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w: %s: %v", ErrRedis, domain.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrRedis, op, err)
}

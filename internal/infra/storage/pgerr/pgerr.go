package pgerr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

const uniqueViolation = "23505"

// IsUnavailable возвращает true для ошибок соединения и таймаутов
// (в отличие от логических ошибок запроса)
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case strings.HasPrefix(code, "08"): // connection exception
			return true
		case strings.HasPrefix(code, "53"): // insufficient resources
			return true
		case code == "57P01", code == "57P02", code == "57P03": // admin/crash shutdown, cannot connect now
			return true
		case code == "57014": // query_canceled (statement_timeout)
			return true
		}
	}

	return false
}

// IsUniqueViolation возвращает true для нарушения уникального индекса
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// Wrap оборачивает ошибку в base, добавляя domain.ErrStorageUnavailable для ошибок соединения
func Wrap(base error, op string, err error) error {
	if IsUnavailable(err) {
		return fmt.Errorf("%w: %w: %s: %v", base, domain.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", base, op, err)
}

package availabilitycache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
	"github.com/m04kA/PetCare-SlotService/pkg/metrics"
)

// Client удаляет закэшированные ответы о доступности слотов.
// Кэш заполняет внешний слой (read-through на Redis), сервис его только сбрасывает
type Client struct {
	redis   redis.Cmdable
	prefix  string
	timeout time.Duration
	metrics MetricsRecorder
	log     Logger
}

// NewClient создает клиент инвалидации; metrics может быть nil
func NewClient(rdb redis.Cmdable, prefix string, timeout time.Duration, m MetricsRecorder, log Logger) *Client {
	if m == nil {
		m = (*metrics.Metrics)(nil)
	}
	return &Client{
		redis:   rdb,
		prefix:  prefix,
		timeout: timeout,
		metrics: m,
		log:     log,
	}
}

// Key ключ кэша доступности: availability:vaccination:2026-03-02
func (c *Client) Key(serviceID domain.ServiceID, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, serviceID, domain.NormalizeDate(date).Format(domain.DateFormat))
}

// Invalidate удаляет ключи доступности для услуги на указанные даты
func (c *Client) Invalidate(ctx context.Context, serviceID domain.ServiceID, dates ...time.Time) error {
	if len(dates) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		k := c.Key(serviceID, d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.metrics.RecordCacheInvalidation(metrics.ResultError)
		return fmt.Errorf("%w: keys=%v: %v", ErrInvalidate, keys, err)
	}

	c.metrics.RecordCacheInvalidation(metrics.ResultOK)
	c.log.Info("Availability cache invalidated: %v", keys)
	return nil
}

// Nop инвалидатор для запуска без внешнего кэша
type Nop struct{}

func (Nop) Invalidate(context.Context, domain.ServiceID, ...time.Time) error {
	return nil
}

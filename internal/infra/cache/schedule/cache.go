package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/m04kA/PetCare-SlotService/internal/domain"
)

// Cache read-through кэш версий расписания поверх Store
// Версии неизменяемы, поэтому GetByVersion кэшируется без инвалидации.
// Ответы GetEffective сбрасываются для услуги при публикации новой версии
// на этом инстансе; на остальных инстансах новая версия станет видна через ttl
type Cache struct {
	store Store
	items *cache.Cache
}

// New создает кэш. ttl время жизни записи, cleanup интервал удаления просроченных
func New(store Store, ttl, cleanup time.Duration) *Cache {
	return &Cache{
		store: store,
		items: cache.New(ttl, cleanup),
	}
}

// Create сохраняет версию и сбрасывает кэш действующих версий услуги
func (c *Cache) Create(ctx context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error) {
	created, err := c.store.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.evictEffective(created.ServiceID)
	c.items.SetDefault(versionKey(created.ServiceID, created.Version), created)

	return created, nil
}

// GetEffective версия, действующая на дату
func (c *Cache) GetEffective(ctx context.Context, serviceID domain.ServiceID, date time.Time) (*domain.ScheduleConfig, error) {
	key := effectiveKey(serviceID, date)
	if cached, ok := c.items.Get(key); ok {
		return cached.(*domain.ScheduleConfig), nil
	}

	cfg, err := c.store.GetEffective(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}

	c.items.SetDefault(key, cfg)
	return cfg, nil
}

// GetByVersion конкретная версия
func (c *Cache) GetByVersion(ctx context.Context, serviceID domain.ServiceID, version int) (*domain.ScheduleConfig, error) {
	key := versionKey(serviceID, version)
	if cached, ok := c.items.Get(key); ok {
		return cached.(*domain.ScheduleConfig), nil
	}

	cfg, err := c.store.GetByVersion(ctx, serviceID, version)
	if err != nil {
		return nil, err
	}

	c.items.SetDefault(key, cfg)
	return cfg, nil
}

// ListVersions не кэшируется (админский запрос)
func (c *Cache) ListVersions(ctx context.Context, serviceID domain.ServiceID) ([]*domain.ScheduleConfig, error) {
	return c.store.ListVersions(ctx, serviceID)
}

func (c *Cache) evictEffective(serviceID domain.ServiceID) {
	prefix := effectivePrefix(serviceID)
	for key := range c.items.Items() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
		}
	}
}

func effectivePrefix(serviceID domain.ServiceID) string {
	return fmt.Sprintf("effective:%s:", serviceID)
}

func effectiveKey(serviceID domain.ServiceID, date time.Time) string {
	return effectivePrefix(serviceID) + domain.NormalizeDate(date).Format(domain.DateFormat)
}

func versionKey(serviceID domain.ServiceID, version int) string {
	return fmt.Sprintf("version:%s:%d", serviceID, version)
}

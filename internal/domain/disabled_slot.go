package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/m04kA/PetCare-SlotService/pkg/types"
)

// DisabledSlotType тип отключенного слота в JSON представлении
type DisabledSlotType string

const (
	DisabledSlotSingle DisabledSlotType = "single"
	DisabledSlotRange  DisabledSlotType = "range"
)

// DisabledSlot ручное отключение слотов: одно время или диапазон [Start, End)
// Реализации: DisabledSingle, DisabledRange
type DisabledSlot interface {
	Type() DisabledSlotType
	// Blocks возвращает true, если слот, начинающийся в t, отключен
	Blocks(t types.TimeString) bool
	Validate() error

	disabledSlot()
}

// DisabledSingle отключает один слот, начинающийся ровно в Time
type DisabledSingle struct {
	Time types.TimeString
}

func (DisabledSingle) Type() DisabledSlotType { return DisabledSlotSingle }

func (d DisabledSingle) Blocks(t types.TimeString) bool {
	return d.Time.Equal(t)
}

func (d DisabledSingle) Validate() error {
	if err := d.Time.Validate(); err != nil {
		return fmt.Errorf("%w: single time %q: %v", ErrInvalidDisabledSlot, d.Time, err)
	}
	return nil
}

func (DisabledSingle) disabledSlot() {}

// DisabledRange отключает все слоты, начало которых попадает в [Start, End)
type DisabledRange struct {
	Start types.TimeString
	End   types.TimeString
}

func (DisabledRange) Type() DisabledSlotType { return DisabledSlotRange }

func (d DisabledRange) Blocks(t types.TimeString) bool {
	m := t.Minutes()
	return m >= d.Start.Minutes() && m < d.End.Minutes()
}

func (d DisabledRange) Validate() error {
	if err := d.Start.Validate(); err != nil {
		return fmt.Errorf("%w: range start %q: %v", ErrInvalidDisabledSlot, d.Start, err)
	}
	if err := d.End.Validate(); err != nil {
		return fmt.Errorf("%w: range end %q: %v", ErrInvalidDisabledSlot, d.End, err)
	}
	if !d.Start.IsBefore(d.End) {
		return fmt.Errorf("%w: range start %s must be before end %s", ErrInvalidDisabledSlot, d.Start, d.End)
	}
	return nil
}

func (DisabledRange) disabledSlot() {}

// DisabledSlotList упорядоченный список отключений
// Хранится в JSONB как [{"type":"single","time":"10:00"}, {"type":"range","start":"12:00","end":"13:00"}]
type DisabledSlotList []DisabledSlot

// Blocks возвращает true, если хотя бы одно отключение блокирует t
func (l DisabledSlotList) Blocks(t types.TimeString) bool {
	for _, d := range l {
		if d.Blocks(t) {
			return true
		}
	}
	return false
}

// Validate проверяет каждый элемент списка
func (l DisabledSlotList) Validate() error {
	if len(l) > MaxDisabledSlots {
		return fmt.Errorf("%w: at most %d disabled slots allowed", ErrInvalidDisabledSlot, MaxDisabledSlots)
	}
	for i, d := range l {
		if d == nil {
			return fmt.Errorf("%w: item %d is empty", ErrInvalidDisabledSlot, i)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

type disabledSlotJSON struct {
	Type  DisabledSlotType `json:"type"`
	Time  types.TimeString `json:"time,omitempty"`
	Start types.TimeString `json:"start,omitempty"`
	End   types.TimeString `json:"end,omitempty"`
}

// MarshalJSON реализует json.Marshaler
func (l DisabledSlotList) MarshalJSON() ([]byte, error) {
	items := make([]disabledSlotJSON, 0, len(l))
	for _, d := range l {
		switch v := d.(type) {
		case DisabledSingle:
			items = append(items, disabledSlotJSON{Type: DisabledSlotSingle, Time: v.Time})
		case DisabledRange:
			items = append(items, disabledSlotJSON{Type: DisabledSlotRange, Start: v.Start, End: v.End})
		default:
			return nil, fmt.Errorf("%w: unsupported variant %T", ErrInvalidDisabledSlot, d)
		}
	}
	return json.Marshal(items)
}

// UnmarshalJSON реализует json.Unmarshaler
func (l *DisabledSlotList) UnmarshalJSON(data []byte) error {
	var items []disabledSlotJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	list := make(DisabledSlotList, 0, len(items))
	for i, item := range items {
		switch item.Type {
		case DisabledSlotSingle:
			if item.Time.IsZero() {
				return fmt.Errorf("%w: item %d: single requires time", ErrInvalidDisabledSlot, i)
			}
			list = append(list, DisabledSingle{Time: item.Time})
		case DisabledSlotRange:
			if item.Start.IsZero() || item.End.IsZero() {
				return fmt.Errorf("%w: item %d: range requires start and end", ErrInvalidDisabledSlot, i)
			}
			list = append(list, DisabledRange{Start: item.Start, End: item.End})
		default:
			return fmt.Errorf("%w: item %d: unknown type %q", ErrInvalidDisabledSlot, i, item.Type)
		}
	}

	*l = list
	return nil
}

// Value реализует driver.Valuer для JSONB колонки
// Возвращает строку: []byte lib/pq передал бы как bytea
func (l DisabledSlotList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan реализует sql.Scanner для JSONB колонки
func (l *DisabledSlotList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = DisabledSlotList{}
		return nil
	case []byte:
		return l.UnmarshalJSON(v)
	case string:
		return l.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidDisabledSlot, src)
	}
}

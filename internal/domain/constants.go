package domain

// Default configuration values
const (
	DefaultGapMinutes              = 30
	DefaultPerSlotLimit            = 1
	DefaultAdvanceBookingDays      = 0  // 0 = unlimited
	DefaultMinBookingNoticeMinutes = 60 // 1 hour
)

// Business validation constants
const (
	MinGapMinutes           = 5
	MaxGapMinutes           = 480 // 8 hours
	MinPerSlotLimit         = 1
	MaxPerSlotLimit         = 100
	MinAdvanceBookingDays   = 0
	MaxAdvanceBookingDays   = 365 // 1 year
	MinBookingNoticeMinutes = 0
	MaxBookingNoticeMinutes = 10080 // 1 week
	MaxDisabledSlots        = 200
	MaxPayloadBytes         = 16 * 1024
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// HoldingStatuses активные статусы: визит еще впереди, бронирование можно отменить
var HoldingStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusRescheduled,
}

// OccupyingStatuses статусы, учитываемые в ledger: завершенный визит место не освобождает
var OccupyingStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusRescheduled,
	StatusCompleted,
}

// ReschedulableStatuses статусы, из которых разрешен перенос
var ReschedulableStatuses = []BookingStatus{
	StatusConfirmed,
	StatusRescheduled,
}

// CompletableStatuses статусы, из которых визит можно завершить
var CompletableStatuses = []BookingStatus{
	StatusConfirmed,
	StatusRescheduled,
}

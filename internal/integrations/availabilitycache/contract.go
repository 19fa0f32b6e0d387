package availabilitycache

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// MetricsRecorder учет результатов инвалидации
type MetricsRecorder interface {
	RecordCacheInvalidation(result string)
}

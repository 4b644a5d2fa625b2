package logger

// Logger is the minimal structured logging contract used across the
// redaction pipeline. The component name identifies the emitting subsystem
// (capture, detect, redact, config).
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{})   {}
func (nopLogger) Info(string, string, map[string]interface{})    {}
func (nopLogger) Warning(string, string, map[string]interface{}) {}
func (nopLogger) Error(string, error, map[string]interface{})    {}

// Nop returns a Logger that discards everything. Used by tests and as the
// fallback when callers pass nil.
func Nop() Logger {
	return nopLogger{}
}

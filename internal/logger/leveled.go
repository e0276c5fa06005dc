package logger

import "github.com/charmbracelet/log"

// Leveled adapts a charm logger to the leveled logger interface used by
// go-retryablehttp. Retry chatter is demoted one level.
type Leveled struct {
	L *log.Logger
}

func (l Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.L.Warn(msg, keysAndValues...)
}

func (l Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.L.Warn(msg, keysAndValues...)
}

func (l Leveled) Info(msg string, keysAndValues ...interface{}) {
	l.L.Debug(msg, keysAndValues...)
}

func (l Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.L.Debug(msg, keysAndValues...)
}

package logger

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

// Callback receives one rendered log line per call.
// It is the minimal sink shape for callers that bridge go-ecat diagnostics
// into a foreign logging system and do not want a structured handler.
type Callback func(level Level, message string)

// CallbackLogger adapts a plain Callback function to the Logger interface.
// Key-value pairs are rendered into the message as "key=value" fields.
type CallbackLogger struct {
	cb    Callback
	level atomic.Int32
	attrs []any
}

var _ Logger = (*CallbackLogger)(nil)

// NewCallback creates a Logger that forwards every enabled log record to cb.
// A nil cb discards all messages.
func NewCallback(cb Callback) *CallbackLogger {
	l := &CallbackLogger{cb: cb}
	l.level.Store(int32(InfoLevel))
	return l
}

func (l *CallbackLogger) Debug(msg string, keysAndValues ...any) {
	l.emit(DebugLevel, msg, keysAndValues)
}

func (l *CallbackLogger) Info(msg string, keysAndValues ...any) {
	l.emit(InfoLevel, msg, keysAndValues)
}

func (l *CallbackLogger) Warn(msg string, keysAndValues ...any) {
	l.emit(WarnLevel, msg, keysAndValues)
}

func (l *CallbackLogger) Error(msg string, keysAndValues ...any) {
	l.emit(ErrorLevel, msg, keysAndValues)
}

func (l *CallbackLogger) Fatal(msg string, keysAndValues ...any) {
	l.emit(FatalLevel, msg, keysAndValues)
	os.Exit(1)
}

func (l *CallbackLogger) With(keyValues ...any) Logger {
	child := &CallbackLogger{
		cb:    l.cb,
		attrs: append(append([]any{}, l.attrs...), keyValues...),
	}
	child.level.Store(l.level.Load())
	return child
}

func (l *CallbackLogger) Level() Level {
	return Level(l.level.Load())
}

func (l *CallbackLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *CallbackLogger) emit(level Level, msg string, keysAndValues []any) {
	if l.cb == nil || level < l.Level() {
		return
	}

	fields := make([]any, 0, len(l.attrs)+len(keysAndValues))
	fields = append(fields, l.attrs...)
	fields = append(fields, keysAndValues...)
	if len(fields) == 0 {
		l.cb(level, msg)
		return
	}

	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&sb, " %v=<missing>", fields[len(fields)-1])
	}
	l.cb(level, sb.String())
}

package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter writes one event per call. Context attached with With comes
// before the per-call fields.
type ZerologAdapter struct {
	logger zerolog.Logger
}

func NewZerolog(writer io.Writer, level LogLevel) *ZerologAdapter {
	logger := zerolog.New(writer).
		Level(level.zerolog()).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

// NewConsoleLogger writes human-readable events to stderr.
func NewConsoleLogger(level LogLevel) *ZerologAdapter {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return NewZerolog(consoleWriter, level)
}

func (z *ZerologAdapter) With(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return z
	}
	return &ZerologAdapter{logger: z.logger.With().Fields(fields).Logger()}
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	emit(z.logger.Debug(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	emit(z.logger.Info(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	emit(z.logger.Warn(), component, fields).Msg(message)
}

// Error logs err with the message "<component> failed".
func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	emit(z.logger.Error(), component, fields).Err(err).Msg(component + " failed")
}

// emit tags e with component and fields. A disabled event is returned as is.
func emit(e *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	if !e.Enabled() {
		return e
	}
	e = e.Str("component", component)
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	return e
}

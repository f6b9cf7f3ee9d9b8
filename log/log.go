// Wraps zerolog logger, ensuring the timestamp goes in the beginning.
package log

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var Base zerolog.Logger

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.DurationFieldInteger = true
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Base = newBaseLogger()
}

type Logger interface {
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
}

func Info() *zerolog.Event {
	return Base.Info().Timestamp()
}

func Warn() *zerolog.Event {
	return Base.Warn().Timestamp()
}

func Error() *zerolog.Event {
	return Base.Error().Timestamp()
}

// Logger for code outside of a request, with a fixed component tag
type TaskLogger struct {
	Component string
}

func (l *TaskLogger) Info() *zerolog.Event {
	return Info().Str("component", l.Component)
}

func (l *TaskLogger) Warn() *zerolog.Event {
	return Warn().Str("component", l.Component)
}

func (l *TaskLogger) Error() *zerolog.Event {
	return Error().Str("component", l.Component)
}

var _ Logger = (*TaskLogger)(nil)

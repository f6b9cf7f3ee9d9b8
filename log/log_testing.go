//go:build testing

package log

import (
	"os"

	"github.com/rs/zerolog"
)

func newBaseLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Stack().Logger()
}

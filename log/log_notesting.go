//go:build !testing

package log

import (
	"os"

	"github.com/rs/zerolog"
)

func newBaseLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Stack().Logger()
}

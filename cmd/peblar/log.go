package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// zeroLogProvider modbus.LogProvider over zerolog.
type zeroLogProvider struct {
	l zerolog.Logger
}

func (sf zeroLogProvider) Errorf(format string, v ...interface{}) {
	sf.l.Error().Msgf(format, v...)
}

func (sf zeroLogProvider) Debugf(format string, v ...interface{}) {
	sf.l.Debug().Msgf(format, v...)
}

package logger

import (
	"io"
	"time"
)

// NewTestLogger returns a console Logger writing to w at the given level,
// for tests that need to assert on or silence log output.
func NewTestLogger(w io.Writer, level LogLevel) Logger {
	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: string(level),
		Timezone:     time.UTC.String(),
		Console:      &ConsoleOutput{Enabled: true, Level: string(level)},
	}, WithConsoleWriter(w))
	if err != nil {
		// UTC and a console-only config cannot fail
		panic(err)
	}
	return cl.Module("test")
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return NewTestLogger(io.Discard, LogLevelError)
}

package logger

import (
	"io"
	"log/slog"
	"time"
)

// newTextHandler creates the console handler. Output looks like:
//
//	time=2026-10-19T14:02:11 level=INFO msg="asset saved" module=assetstore name=goblin
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	if tz == nil {
		tz = time.Local
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return redactAttr(a)
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String(slog.TimeKey, a.Value.Time().In(tz).Format(consoleTimeFormat))
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= traceLevelValue {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return redactAttr(a)
		},
	})
}

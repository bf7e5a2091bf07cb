package httpserver

import (
	"fmt"
	"io"

	echolog "github.com/labstack/gommon/log"

	"github.com/vtttools/mediastore/internal/logger"
)

// echoLogger adapts logger.Logger to echo.Logger so framework messages are
// routed through the central logger. Output, prefix, level and header are
// owned by the central logger configuration and cannot be changed here.
type echoLogger struct {
	logger logger.Logger
}

func newEchoLogger(l logger.Logger) *echoLogger {
	return &echoLogger{logger: l}
}

func (a *echoLogger) Output() io.Writer { return io.Discard }
func (a *echoLogger) SetOutput(io.Writer) {}
func (a *echoLogger) Prefix() string { return "" }
func (a *echoLogger) SetPrefix(string) {}
func (a *echoLogger) Level() echolog.Lvl { return echolog.INFO }
func (a *echoLogger) SetLevel(echolog.Lvl) {}
func (a *echoLogger) SetHeader(string) {}
func (a *echoLogger) Print(i ...any) { a.logger.Info(fmt.Sprint(i...)) }
func (a *echoLogger) Printf(f string, v ...any) { a.logger.Info(fmt.Sprintf(f, v...)) }
func (a *echoLogger) Printj(j echolog.JSON) { a.logger.Info("echo", logger.Any("data", j)) }
func (a *echoLogger) Debug(i ...any) { a.logger.Debug(fmt.Sprint(i...)) }
func (a *echoLogger) Debugf(f string, v ...any) { a.logger.Debug(fmt.Sprintf(f, v...)) }
func (a *echoLogger) Debugj(j echolog.JSON) { a.logger.Debug("echo", logger.Any("data", j)) }
func (a *echoLogger) Info(i ...any) { a.logger.Info(fmt.Sprint(i...)) }
func (a *echoLogger) Infof(f string, v ...any) { a.logger.Info(fmt.Sprintf(f, v...)) }
func (a *echoLogger) Infoj(j echolog.JSON) { a.logger.Info("echo", logger.Any("data", j)) }
func (a *echoLogger) Warn(i ...any) { a.logger.Warn(fmt.Sprint(i...)) }
func (a *echoLogger) Warnf(f string, v ...any) { a.logger.Warn(fmt.Sprintf(f, v...)) }
func (a *echoLogger) Warnj(j echolog.JSON) { a.logger.Warn("echo", logger.Any("data", j)) }
func (a *echoLogger) Error(i ...any) { a.logger.Error(fmt.Sprint(i...)) }
func (a *echoLogger) Errorf(f string, v ...any) { a.logger.Error(fmt.Sprintf(f, v...)) }
func (a *echoLogger) Errorj(j echolog.JSON) { a.logger.Error("echo", logger.Any("data", j)) }

// Fatal and Panic log at error level and panic; echo's Recover middleware
// turns the panic into a 500 inside handlers.
func (a *echoLogger) Fatal(i ...any) { a.Panic(i...) }

func (a *echoLogger) Fatalf(f string, v ...any) { a.Panicf(f, v...) }

func (a *echoLogger) Fatalj(j echolog.JSON) { a.Panicj(j) }

func (a *echoLogger) Panic(i ...any) {
	msg := fmt.Sprint(i...)
	a.logger.Error(msg)
	panic(msg)
}

func (a *echoLogger) Panicf(f string, v ...any) {
	msg := fmt.Sprintf(f, v...)
	a.logger.Error(msg)
	panic(msg)
}

func (a *echoLogger) Panicj(j echolog.JSON) {
	a.logger.Error("echo", logger.Any("data", j))
	panic(fmt.Sprintf("%v", j))
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vtttools/mediastore/cmd"
	"github.com/vtttools/mediastore/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version   = buildinfo.UnknownValue
	buildDate = buildinfo.UnknownValue
	commit    = buildinfo.UnknownValue
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	build := buildinfo.NewContext(version, buildDate, commit)
	err := cmd.RootCommand(build).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

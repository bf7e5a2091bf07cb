// Package app assembles the stores and their supporting services from
// loaded settings.
package app

import (
	"io"
	"time"

	"github.com/vtttools/mediastore/internal/assetstore"
	"github.com/vtttools/mediastore/internal/buildinfo"
	"github.com/vtttools/mediastore/internal/conf"
	"github.com/vtttools/mediastore/internal/entitystore"
	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/observability"
	"github.com/vtttools/mediastore/internal/secrets"
)

const telemetryFlushTimeout = 2 * time.Second

// Context holds the application state shared by the commands.
type Context struct {
	Build    *buildinfo.Context
	Settings *conf.Settings
	Assets   *assetstore.Store
	Entities *entitystore.Store
	Metrics  *observability.Metrics // nil unless metrics are enabled

	central   *logger.CentralLogger
	telemetry bool
}

// NewContext returns an uninitialized context; Init populates it once
// settings are loaded.
func NewContext(build *buildinfo.Context) *Context {
	return &Context{Build: build}
}

// Option configures Init.
type Option func(*initOptions)

type initOptions struct {
	console io.Writer
}

// WithConsole redirects console logging, mainly for tests.
func WithConsole(w io.Writer) Option {
	return func(o *initOptions) {
		o.console = w
	}
}

// Init installs the central logger, optional telemetry and metrics, and
// opens both stores.
func (c *Context) Init(settings *conf.Settings, opts ...Option) error {
	var o initOptions
	for _, opt := range opts {
		opt(&o)
	}

	var logOpts []logger.Option
	if o.console != nil {
		logOpts = append(logOpts, logger.WithConsoleWriter(o.console))
	}
	central, err := logger.NewCentralLogger(&settings.Logging, logOpts...)
	if err != nil {
		return err
	}
	logger.SetGlobal(central)
	c.central = central
	c.Settings = settings

	log := GetLogger()

	if settings.Telemetry.Enabled {
		dsn, err := secrets.Resolve(settings.Telemetry.DSNFile, settings.Telemetry.DSN)
		if err != nil {
			return err
		}
		if err := errors.InitSentry(dsn, c.Build.Release()); err != nil {
			return err
		}
		c.telemetry = true
		log.Info("error telemetry enabled")
	}

	var assetOpts []assetstore.Option
	var entityOpts []entitystore.Option
	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return errors.New(err).
				Component("app").
				Category(errors.CategoryConfiguration).
				Context("operation", "init_metrics").
				Build()
		}
		c.Metrics = m
		assetOpts = append(assetOpts, assetstore.WithRecorder(m.Store))
		entityOpts = append(entityOpts, entitystore.WithRecorder(m.Store))
	}

	c.Assets, err = assetstore.New(settings.Storage.Assets.Root, assetOpts...)
	if err != nil {
		return err
	}

	entityOpts = append(entityOpts,
		entitystore.WithStrict(settings.Storage.Entities.Strict),
		entitystore.WithDefaultGenre(settings.Storage.Entities.DefaultGenre))
	c.Entities, err = entitystore.New(settings.Storage.Entities.Root, entityOpts...)
	if err != nil {
		return err
	}

	log.Debug("stores opened",
		logger.String("assets_root", c.Assets.Root()),
		logger.String("entities_root", c.Entities.Root()),
		logger.Bool("strict", c.Entities.Strict()),
		logger.Bool("metrics", c.Metrics != nil))
	return nil
}

// Close flushes telemetry and closes the log file.
func (c *Context) Close() error {
	if c.telemetry {
		errors.FlushSentry(telemetryFlushTimeout)
	}
	if err := c.central.Flush(); err != nil {
		return err
	}
	return c.central.Close()
}

// GetLogger returns the application logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("app")
}

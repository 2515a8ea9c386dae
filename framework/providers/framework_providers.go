package providers

import (
	"io"
	"log/slog"
	"os"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/inspect"
	"github.com/km-arc/go-beans/framework/logging"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/tracing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// binds it into the container as "config".
//
// Bound ids:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string

	// Config, when set, is bound as-is and no .env file is read.
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if p.Config != nil {
		app.Instance("config", p.Config)
	} else {
		envFiles := p.EnvFiles
		app.Singleton("config", func(container.Resolver) (any, error) {
			return config.Load(envFiles...), nil
		})
	}
	app.Alias("config", "configuration")
	return nil
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider binds the structured logger and hands it to the
// container for build diagnostics.
//
// Bound ids:
//   - "logger"  → *slog.Logger (depends on "config")
type LogServiceProvider struct {
	container.BaseProvider
	Writer io.Writer // default: os.Stderr
}

func (p *LogServiceProvider) Register(app *container.Container) error {
	w := p.Writer
	if w == nil {
		w = os.Stderr
	}
	return app.Register("logger", func(deps []any) (any, error) {
		return logging.New(deps[0].(*config.Config), w), nil
	}, "config")
}

func (p *LogServiceProvider) Boot(app *container.Container) error {
	logger, err := container.Resolve[*slog.Logger](app, "logger")
	if err != nil {
		return err
	}
	app.Configure(container.WithLogger(logger))
	return nil
}

// ── TracingServiceProvider ────────────────────────────────────────────────────

// TracingServiceProvider builds the OpenTelemetry provider from the trace
// config and points the container's build spans at it.
//
// Bound ids:
//   - "tracing"  → *tracing.Provider
type TracingServiceProvider struct {
	container.BaseProvider
	Writer io.Writer // stdout exporter target, default: os.Stdout
}

func (p *TracingServiceProvider) Register(app *container.Container) error {
	w := p.Writer
	app.Singleton("tracing", func(r container.Resolver) (any, error) {
		cfg, err := container.Resolve[*config.Config](r, "config")
		if err != nil {
			return nil, err
		}
		return tracing.NewProvider(r.Context(), cfg.Trace, w)
	})
	return nil
}

func (p *TracingServiceProvider) Boot(app *container.Container) error {
	tp, err := container.Resolve[*tracing.Provider](app, "tracing")
	if err != nil {
		return err
	}
	if tp.Enabled() {
		tp.Install()
		app.Configure(container.WithTracer(tp.Tracer()))
	}
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router with request logging.
//
// Bound ids:
//   - "router"  → *routing.Router (depends on "logger")
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	return app.Register("router", func(deps []any) (any, error) {
		r := routing.New()
		r.Middleware(routing.RequestLogger(deps[0].(*slog.Logger)))
		return r, nil
	}, "logger")
}

// ── InspectorServiceProvider ──────────────────────────────────────────────────

// InspectorServiceProvider exposes the container over HTTP. Routes are
// mounted on the router during Boot.
//
// Bound ids:
//   - "inspector"  → *inspect.Inspector (depends on "container", "logger")
type InspectorServiceProvider struct {
	container.BaseProvider
}

func (p *InspectorServiceProvider) Register(app *container.Container) error {
	return app.Register("inspector", func(deps []any) (any, error) {
		return inspect.New(deps[0].(*container.Container), deps[1].(*slog.Logger)), nil
	}, "container", "logger")
}

func (p *InspectorServiceProvider) Boot(app *container.Container) error {
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	ins, err := container.Resolve[*inspect.Inspector](app, "inspector")
	if err != nil {
		return err
	}
	ins.Mount(router)
	return nil
}

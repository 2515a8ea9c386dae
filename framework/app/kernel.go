package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/km-arc/go-beans/framework/config"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/manifest"
	"github.com/km-arc/go-beans/framework/providers"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/tracing"
)

const shutdownTimeout = 5 * time.Second

// Options tune how New assembles the application.
type Options struct {
	EnvFiles []string
	// Config replaces .env loading entirely.
	Config *config.Config
	// LogWriter defaults to os.Stderr, TraceWriter to os.Stdout.
	LogWriter   io.Writer
	TraceWriter io.Writer
}

// Application is the top-level application container.
// It embeds the Container and ProviderRegistry so user code can call
// app.Register(), app.Singleton(), app.Resolve() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	kinds  manifest.Catalog
	booted bool
}

// New creates the application and registers the framework providers.
func New(envFiles ...string) *Application {
	return NewWithOptions(Options{EnvFiles: envFiles})
}

// NewWithOptions is New with explicit writers and config.
func NewWithOptions(opts Options) *Application {
	c := container.New()
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
		kinds:     manifest.Catalog{},
	}
	c.Instance("app", app)

	// Framework providers never fail to register into a fresh container.
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: opts.EnvFiles, Config: opts.Config},
		&providers.LogServiceProvider{Writer: opts.LogWriter},
		&providers.TracingServiceProvider{Writer: opts.TraceWriter},
		&providers.RoutingServiceProvider{},
		&providers.InspectorServiceProvider{},
	} {
		if err := registry.Register(p); err != nil {
			panic(err)
		}
	}
	return app
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// RegisterKinds makes constructors available to the bean manifest.
func (a *Application) RegisterKinds(kinds manifest.Catalog) {
	for k, ctor := range kinds {
		a.kinds[k] = ctor
	}
}

// Boot applies the bean manifest (if configured), boots every provider,
// validates the graph and, with BEANS_EAGER, builds all singletons.
// Calling Boot again is a no-op.
func (a *Application) Boot(ctx context.Context) error {
	if a.booted {
		return nil
	}
	cfg, err := container.Resolve[*config.Config](a, "config")
	if err != nil {
		return err
	}

	if cfg.Beans.Manifest != "" {
		m, err := manifest.Load(cfg.Beans.Manifest)
		if err != nil {
			return err
		}
		if err := m.Apply(a.Container, a.kinds); err != nil {
			return fmt.Errorf("apply %s: %w", cfg.Beans.Manifest, err)
		}
	}

	if err := a.Providers.Boot(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if cfg.Beans.Eager {
		if err := a.Preinstantiate(ctx); err != nil {
			return err
		}
	}
	a.booted = true

	a.Logger().Info("application booted",
		"container", a.ID().String(),
		"beans", len(a.Bindings()),
		"env", cfg.App.Env)
	return nil
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a, "config")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a, "router")
}

// Logger resolves the application logger.
func (a *Application) Logger() *slog.Logger {
	return container.MustResolve[*slog.Logger](a, "logger")
}

// Run boots the application (if needed) and serves HTTP on APP_PORT until
// ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Boot(ctx); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", ":"+a.Config().App.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It shuts the server down gracefully
// and flushes traces once ctx is done.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Boot(ctx); err != nil {
		return err
	}
	cfg := a.Config()
	logger := a.Logger()

	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("server started", "addr", ln.Addr().String(), "env", cfg.App.Env)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}
	if tp, tpErr := container.Resolve[*tracing.Provider](a, "tracing"); tpErr == nil {
		err = errors.Join(err, tp.Shutdown(shutdownCtx))
	}
	logger.Info("server stopped")
	return err
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.1.0" }

package container

import "fmt"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations, like a configuration class.
//
// Register is called as soon as the provider is added and must only register
// definitions. Boot is called after ALL providers have been registered, so it
// is safe to resolve other beans there.
//
//	type ZooProvider struct{ container.BaseProvider }
//
//	func (p *ZooProvider) Register(app *container.Container) error {
//	    return app.Register("dog", newDog)
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the ids this provider registers. It is only consulted
	// for deferred providers.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// the first time one of its Provides() ids is resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred. Embed it and only override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // id → provider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method unless it is
// deferred. Registering the same provider twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		r.deferProvider(provider)
		return nil
	}

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("register %T: %w", provider, err)
	}
	r.eager = append(r.eager, provider)

	// If already booted, boot this provider immediately
	if r.booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// deferProvider hands the container a loader for every id the provider
// offers. The first resolution of any of them registers (and, after boot,
// boots) the provider.
func (r *ProviderRegistry) deferProvider(provider ServiceProvider) {
	ids := provider.Provides()
	for _, id := range ids {
		r.deferred[id] = provider
	}
	r.app.Defer(func(c *Container) error {
		for _, id := range ids {
			delete(r.deferred, id)
		}
		if err := provider.Register(c); err != nil {
			return fmt.Errorf("register %T: %w", provider, err)
		}
		if r.booted {
			if err := provider.Boot(c); err != nil {
				return fmt.Errorf("boot %T: %w", provider, err)
			}
		}
		return nil
	}, ids...)
}

// Boot calls Boot on all eager providers, in registration order.
// Must be called after ALL providers have been registered.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Deferred reports whether id is still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred(id string) bool {
	_, ok := r.deferred[id]
	return ok
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

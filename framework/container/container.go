package container

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/km-arc/go-beans/framework/container"

// deferral loads the definitions for a group of ids on first use.
type deferral struct {
	ids  []string
	load func(c *Container) error
	once sync.Once
	err  error
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the bean registry plus its singleton cache.
//
// It supports:
//   - Register / Provide (declared dependencies, duplicate ids rejected)
//   - Bind / Singleton / Instance / Alias (Laravel-style, re-binding allowed)
//   - Resolve / ResolveContext / Make and the generic helpers
//   - Tags, Extend (decorators), contextual binding
//   - Validate / Order / Preinstantiate over the declared graph
//
// A Container is safe for concurrent use. Concurrent first resolutions of the
// same singleton wait for a single build. A caller only skips the wait when
// the builder is itself waiting on that caller, in which case both sides
// report the cycle instead of blocking.
type Container struct {
	mu sync.RWMutex

	id     uuid.UUID
	tracer trace.Tracer
	logger *slog.Logger

	// id → definition
	definitions map[string]*Definition

	// id → resolved singleton instance
	instances map[string]any

	// alias → id (canonical key)
	aliases map[string]string

	// id → extender funcs
	extenders map[string][]Extender

	// tag → []id
	tags map[string][]string

	// contextual: when[concrete][abstract] = factory
	contextual map[string]map[string]Factory

	// id → lazy loader registered by deferred providers
	deferred map[string]*deferral

	// id → singleton build in progress
	inflight map[string]*flight

	// resolved callbacks: []func(id, instance)
	afterResolving []func(string, any)
}

// Option configures a Container.
type Option func(*Container)

// WithTracer sets the tracer used for per-bean build spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Container) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty container. The container is registered in itself
// under "container".
func New(opts ...Option) *Container {
	c := &Container{
		id:          uuid.New(),
		tracer:      otel.Tracer(tracerName),
		logger:      slog.New(slog.DiscardHandler),
		definitions: make(map[string]*Definition),
		instances:   make(map[string]any),
		aliases:     make(map[string]string),
		extenders:   make(map[string][]Extender),
		tags:        make(map[string][]string),
		contextual:  make(map[string]map[string]Factory),
		deferred:    make(map[string]*deferral),
		inflight:    make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Instance("container", c)
	return c
}

// Configure applies opts to a live container. Builds already running keep
// the tracer and logger they started with.
func (c *Container) Configure(opts ...Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, opt := range opts {
		opt(c)
	}
}

// ID identifies this container instance in logs and the inspector.
func (c *Container) ID() uuid.UUID { return c.id }

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds a singleton definition whose constructor receives the
// resolved dependencies in the order they are listed.
//
//	c.Register("human", func(deps []any) (any, error) {
//	    return &Human{Dog: deps[0].(*Dog)}, nil
//	}, "dog")
func (c *Container) Register(id string, ctor Constructor, dependencies ...string) error {
	return c.RegisterDefinition(id, LifetimeSingleton, ctor, dependencies...)
}

// RegisterDefinition is Register with an explicit lifetime.
func (c *Container) RegisterDefinition(id string, lifetime Lifetime, ctor Constructor, dependencies ...string) error {
	if id == "" {
		return &InvalidDefinitionError{ID: id, Reason: "empty id"}
	}
	if ctor == nil {
		return &InvalidDefinitionError{ID: id, Reason: "nil constructor"}
	}
	for _, dep := range dependencies {
		if dep == "" {
			return &InvalidDefinitionError{ID: id, Reason: "empty dependency id"}
		}
	}
	deps := append([]string(nil), dependencies...)
	return c.add(&Definition{
		ID:           id,
		Dependencies: deps,
		Lifetime:     lifetime,
		Source:       sourceRegister,
		build:        constructorBuild(id, deps, ctor),
	})
}

// add stores def, refusing ids that already have a definition.
func (c *Container) add(def *Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(def.ID)
	if _, exists := c.definitions[key]; exists {
		return &DuplicateDefinitionError{ID: def.ID}
	}
	def.ID = key
	c.definitions[key] = def
	return nil
}

// Bind registers a transient factory, replacing any previous binding.
//
//	c.Bind("request-id", func(r container.Resolver) (any, error) {
//	    return uuid.NewString(), nil
//	})
func (c *Container) Bind(id string, factory Factory) {
	c.bind(id, factory, LifetimeTransient)
}

// Singleton registers a factory whose result is cached after first
// resolution, replacing any previous binding.
func (c *Container) Singleton(id string, factory Factory) {
	c.bind(id, factory, LifetimeSingleton)
}

func (c *Container) bind(id string, factory Factory, lifetime Lifetime) {
	if id == "" || factory == nil {
		panic(fmt.Sprintf("container: cannot bind [%s] without id and factory", id))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)

	// Drop existing singleton instance so it's rebuilt with the new factory
	delete(c.instances, key)

	c.definitions[key] = &Definition{
		ID:       key,
		Lifetime: lifetime,
		Source:   sourceBind,
		build:    factoryBuild(key, factory),
	}
}

// Instance registers a pre-built value as a singleton.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(id string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	c.definitions[key] = &Definition{
		ID:       key,
		Lifetime: LifetimeSingleton,
		Source:   sourceInstance,
		build:    func(*resolution) (any, error) { return instance, nil },
	}
	c.instances[key] = instance
}

// Alias registers an alternative name for an id.
//
//	c.Alias("dog", "pet")
func (c *Container) Alias(id, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", id))
	}
	c.aliases[alias] = c.canonical(id)
}

// Defer registers a loader that is run the first time any of ids is
// resolved and is expected to register them.
func (c *Container) Defer(load func(c *Container) error, ids ...string) {
	d := &deferral{ids: append([]string(nil), ids...), load: load}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.deferred[c.canonical(id)] = d
	}
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain.
//
//	c.When("human").Needs("dog").Give(func(r container.Resolver) (any, error) {
//	    return &Dog{Name: "Rex"}, nil
//	})
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// getContextual returns the contextual factory for (concrete, abstract), or nil.
func (c *Container) getContextual(concrete, abstract string) Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.contextual[concrete]; ok {
		if f, ok := m[abstract]; ok {
			return f
		}
	}
	return nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an id. An already cached
// singleton is decorated in place.
//
//	c.Extend("logger", func(instance any, r container.Resolver) any {
//	    return instance.(*slog.Logger).With("component", "beans")
//	})
func (c *Container) Extend(id string, fn Extender) {
	c.mu.Lock()
	key := c.canonical(id)
	c.extenders[key] = append(c.extenders[key], fn)
	inst, cached := c.instances[key]
	c.mu.Unlock()

	if cached {
		extended := fn(inst, c.newResolution(context.Background()))
		c.mu.Lock()
		c.instances[key] = extended
		c.mu.Unlock()
	}
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple ids under a named group.
func (c *Container) Tag(ids []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], ids...)
}

// Tagged resolves every id registered under tag, in tagging order.
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	ids := append([]string(nil), c.tags[tag]...)
	c.mu.RUnlock()

	result := make([]any, 0, len(ids))
	for _, id := range ids {
		inst, err := c.Resolve(id)
		if err != nil {
			return nil, err
		}
		result = append(result, inst)
	}
	return result, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an id has a definition (aliases are followed).
func (c *Container) Bound(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.definitions[c.canonical(id)]
	return ok
}

// Resolved returns true if a singleton instance is cached for id.
func (c *Container) Resolved(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(id)]
	return ok
}

// Definition returns a copy of the definition registered for id.
func (c *Container) Definition(id string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.definitions[c.canonical(id)]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// Definitions returns copies of all definitions sorted by id.
func (c *Container) Definitions() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Definition, 0, len(c.definitions))
	for _, def := range c.definitions {
		out = append(out, def.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TagsOf returns the tags id is registered under, sorted.
func (c *Container) TagsOf(id string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(id)
	var out []string
	for tag, ids := range c.tags {
		for _, member := range ids {
			if c.canonical(member) == key {
				out = append(out, tag)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Forget removes the definition and cached instance for id.
func (c *Container) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	delete(c.definitions, key)
	delete(c.instances, key)
}

// Evict drops the cached singleton for id but keeps its definition, so the
// next Resolve builds it again. It reports whether an instance was cached.
func (c *Container) Evict(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	_, ok := c.instances[key]
	delete(c.instances, key)
	return ok
}

// Flush resets the entire container except its self-registration.
func (c *Container) Flush() {
	c.mu.Lock()
	c.definitions = make(map[string]*Definition)
	c.instances = make(map[string]any)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]Extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]Factory)
	c.deferred = make(map[string]*deferral)
	c.afterResolving = nil
	c.mu.Unlock()
	c.Instance("container", c)
}

// Bindings returns all registered ids, sorted.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.definitions))
	for k := range c.definitions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// canonical resolves an alias to its canonical key (must hold mu).
func (c *Container) canonical(id string) string {
	if target, ok := c.aliases[id]; ok {
		return target
	}
	return id
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after any bean is built.
func (c *Container) AfterResolving(cb func(id string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(id string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(id, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// id when working with interfaces. Pointers are dereferenced, so *Dog and Dog
// share a key.
//
//	key := container.TypeKey((*Repository)(nil))  // "example.com/app.Repository"
func TypeKey(v any) string {
	return typeKey(reflect.TypeOf(v))
}

// KeyOf is TypeKey for a type parameter.
func KeyOf[T any]() string {
	return typeKey(reflect.TypeFor[T]())
}

func typeKey(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve resolves id through r and type-asserts the result.
//
//	dog, err := container.Resolve[*Dog](c, "dog")
func Resolve[T any](r Resolver, id string) (T, error) {
	var zero T
	instance, err := r.Resolve(id)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{
			ID:   id,
			Want: reflect.TypeFor[T]().String(),
			Got:  reflect.TypeOf(instance).String(),
		}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on any error.
func MustResolve[T any](r Resolver, id string) T {
	typed, err := Resolve[T](r, id)
	if err != nil {
		panic(err)
	}
	return typed
}

// ResolveType resolves the bean registered under KeyOf[T]().
func ResolveType[T any](r Resolver) (T, error) {
	return Resolve[T](r, KeyOf[T]())
}

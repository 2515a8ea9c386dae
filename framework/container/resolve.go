package container

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// resolution tracks one top-level request. The path holds the ids that are
// currently being built, outermost first.
type resolution struct {
	c    *Container
	ctx  context.Context
	path []string

	// waiting is the resolution whose singleton build this one is blocked
	// on. Guarded by c.mu.
	waiting *resolution
}

// flight is a singleton build owned by one resolution. done is closed when
// the build finishes, successfully or not.
type flight struct {
	owner *resolution
	done  chan struct{}
}

func (c *Container) newResolution(ctx context.Context) *resolution {
	if ctx == nil {
		ctx = context.Background()
	}
	return &resolution{c: c, ctx: ctx}
}

func (r *resolution) Resolve(id string) (any, error) { return r.c.resolve(r, id) }

func (r *resolution) Context() context.Context { return r.ctx }

// Resolve returns the instance for id, building it and its dependencies
// depth-first if needed.
func (c *Container) Resolve(id string) (any, error) {
	return c.resolve(c.newResolution(context.Background()), id)
}

// ResolveContext is Resolve with a context that factories can read through
// Resolver.Context and that parents the build spans.
func (c *Container) ResolveContext(ctx context.Context, id string) (any, error) {
	return c.resolve(c.newResolution(ctx), id)
}

// Context implements Resolver for factories that are handed the container
// directly.
func (c *Container) Context() context.Context { return context.Background() }

// Make resolves id and panics with the resolution error on failure.
//
//	dog := c.Make("dog").(*Dog)
func (c *Container) Make(id string) any {
	inst, err := c.Resolve(id)
	if err != nil {
		panic(err)
	}
	return inst
}

func (c *Container) resolve(r *resolution, id string) (any, error) {
	c.mu.RLock()
	key := c.canonical(id)
	c.mu.RUnlock()

	// Contextual binding: what does the bean on top of the path want here?
	if n := len(r.path); n > 0 {
		caller := r.path[n-1]
		if f := c.getContextual(caller, id); f != nil {
			return c.build(r, &Definition{
				ID:       key,
				Lifetime: LifetimeTransient,
				Source:   "contextual",
				build:    factoryBuild(key, f),
			})
		}
	}

	c.mu.RLock()
	inst, cached := c.instances[key]
	c.mu.RUnlock()
	if cached {
		return inst, nil
	}

	if slices.Contains(r.path, key) {
		return nil, &CyclicDependencyError{Path: append(slices.Clone(r.path), key)}
	}

	def, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, &UnknownDependencyError{ID: id, Path: slices.Clone(r.path)}
	}
	if def.Lifetime == LifetimeSingleton {
		return c.buildOnce(r, def)
	}
	return c.build(r, def)
}

// buildOnce builds a singleton at most once across concurrent resolutions.
// Callers arriving while another resolution builds the same id wait for it
// and then read the cache. If the build failed they try again themselves.
func (c *Container) buildOnce(r *resolution, def *Definition) (any, error) {
	key := def.ID
	for {
		c.mu.Lock()
		if inst, ok := c.instances[key]; ok {
			c.mu.Unlock()
			return inst, nil
		}
		f, busy := c.inflight[key]
		if busy && c.blockedOn(f.owner, r) {
			// The builder waits on us: waiting back would deadlock. Build on
			// our own path, where the cycle check reports the loop.
			c.mu.Unlock()
			return c.build(r, def)
		}
		if !busy {
			f = &flight{owner: r, done: make(chan struct{})}
			c.inflight[key] = f
			c.mu.Unlock()

			defer func() {
				c.mu.Lock()
				delete(c.inflight, key)
				c.mu.Unlock()
				close(f.done)
			}()
			return c.build(r, def)
		}
		r.waiting = f.owner
		c.mu.Unlock()

		var cancelled error
		select {
		case <-f.done:
		case <-r.ctx.Done():
			cancelled = r.ctx.Err()
		}

		c.mu.Lock()
		r.waiting = nil
		c.mu.Unlock()
		if cancelled != nil {
			return nil, &FactoryError{ID: key, Err: cancelled}
		}
	}
}

// blockedOn reports whether owner, directly or through a chain of waits,
// is waiting on r. Caller holds c.mu.
func (c *Container) blockedOn(owner, r *resolution) bool {
	for w := owner; w != nil; w = w.waiting {
		if w == r {
			return true
		}
	}
	return false
}

// lookup returns the definition for key, running a deferred loader first if
// one is registered. A nil definition means the id is unknown.
func (c *Container) lookup(key string) (*Definition, error) {
	c.mu.RLock()
	def, ok := c.definitions[key]
	d, isDeferred := c.deferred[key]
	c.mu.RUnlock()
	if ok {
		return def, nil
	}
	if !isDeferred {
		return nil, nil
	}

	// A failed load stays registered so every later lookup reports it.
	d.once.Do(func() {
		d.err = d.load(c)
		if d.err != nil {
			return
		}
		c.mu.Lock()
		for _, id := range d.ids {
			delete(c.deferred, c.canonical(id))
		}
		c.mu.Unlock()
	})
	if d.err != nil {
		return nil, &FactoryError{ID: key, Err: fmt.Errorf("deferred load: %w", d.err)}
	}

	c.mu.RLock()
	def = c.definitions[c.canonical(key)]
	c.mu.RUnlock()
	return def, nil
}

// build runs def's factory and extenders with key pushed on the path, then
// caches singletons and fires callbacks.
func (c *Container) build(r *resolution, def *Definition) (any, error) {
	key := def.ID
	r.path = append(r.path, key)
	defer func() { r.path = r.path[:len(r.path)-1] }()

	c.mu.RLock()
	tracer, logger := c.tracer, c.logger
	c.mu.RUnlock()

	ctx, span := tracer.Start(r.ctx, "container.build",
		trace.WithAttributes(
			attribute.String("bean.id", key),
			attribute.String("bean.lifetime", def.Lifetime.String()),
		))
	parent := r.ctx
	r.ctx = ctx

	c.mu.RLock()
	exts := slices.Clone(c.extenders[key])
	c.mu.RUnlock()

	started := time.Now()
	instance, err := invoke(r, def, exts)
	r.ctx = parent

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	span.End()

	if def.Lifetime == LifetimeSingleton {
		c.mu.Lock()
		if existing, ok := c.instances[key]; ok {
			instance = existing
		} else {
			c.instances[key] = instance
		}
		c.mu.Unlock()
	}

	logger.Debug("bean built",
		"container", c.id.String(),
		"bean", key,
		"lifetime", def.Lifetime.String(),
		"elapsed", time.Since(started))

	c.fireAfterResolving(key, instance)
	return instance, nil
}

// invoke calls the definition's build function and then exts, turning
// panics from either into errors.
func invoke(r *resolution, def *Definition, exts []Extender) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			if recErr, ok := rec.(error); ok {
				err = wrapFactoryErr(def.ID, recErr)
				return
			}
			err = &FactoryError{ID: def.ID, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	instance, err = def.build(r)
	if err != nil {
		return nil, err
	}
	for _, ext := range exts {
		instance = ext(instance, r)
	}
	return instance, nil
}

// IsResolutionError reports whether err came from the container's own
// resolution (unknown id or cycle) rather than from a factory.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrUnknownDependency) || errors.Is(err, ErrCyclicDependency)
}

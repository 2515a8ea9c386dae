package container

import "context"

// Lifetime controls whether a resolved bean is cached.
type Lifetime int

const (
	// LifetimeSingleton beans are built once and cached for the container's life.
	LifetimeSingleton Lifetime = iota
	// LifetimeTransient beans are rebuilt on every resolution.
	LifetimeTransient
)

func (l Lifetime) String() string {
	switch l {
	case LifetimeSingleton:
		return "singleton"
	case LifetimeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ParseLifetime maps "singleton" / "transient" (or "" for the default) to a Lifetime.
func ParseLifetime(s string) (Lifetime, bool) {
	switch s {
	case "", "singleton":
		return LifetimeSingleton, true
	case "transient", "prototype":
		return LifetimeTransient, true
	}
	return 0, false
}

// Resolver is what factories receive. Nested lookups must go through it so
// the container can follow the resolution path.
type Resolver interface {
	Resolve(id string) (any, error)
	Context() context.Context
}

// Constructor builds a bean from its dependencies, resolved in declared order.
type Constructor func(deps []any) (any, error)

// Factory builds a bean and pulls whatever it needs from r.
//
//	c.Singleton("cache", func(r container.Resolver) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](r, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.New(cfg), nil
//	})
type Factory func(r Resolver) (any, error)

// Extender decorates a freshly built instance.
type Extender func(instance any, r Resolver) any

// Definition describes one registered bean.
//
// Dependencies lists the ids declared at registration time. Factory-style
// bindings discover their dependencies while running, so theirs is empty.
type Definition struct {
	ID           string
	Dependencies []string
	Lifetime     Lifetime
	Source       string

	build func(r *resolution) (any, error)
}

func (d *Definition) clone() Definition {
	cp := *d
	cp.Dependencies = append([]string(nil), d.Dependencies...)
	cp.build = nil
	return cp
}

const (
	sourceRegister = "register"
	sourceBind     = "bind"
	sourceInstance = "instance"
	sourceProvide  = "provide"
)

func constructorBuild(id string, deps []string, ctor Constructor) func(r *resolution) (any, error) {
	return func(r *resolution) (any, error) {
		args := make([]any, len(deps))
		for i, dep := range deps {
			v, err := r.Resolve(dep)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		inst, err := ctor(args)
		if err != nil {
			return nil, &FactoryError{ID: id, Err: err}
		}
		return inst, nil
	}
}

func factoryBuild(id string, f Factory) func(r *resolution) (any, error) {
	return func(r *resolution) (any, error) {
		inst, err := f(r)
		return inst, wrapFactoryErr(id, err)
	}
}

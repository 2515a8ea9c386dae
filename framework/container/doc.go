// Package container provides a bean registry and resolver: an IoC
// container with singleton caching, depth-first dependency resolution and
// cycle detection.
//
// # Overview
//
// Beans are registered under string ids. A definition carries a factory and,
// when registered through Register or Provide, the ids of the beans its
// factory needs. Resolving an id builds its dependencies first, calls the
// factory with them and caches the result when the bean is a singleton.
//
// Resolution fails with ErrUnknownDependency when an id (or one of its
// transitive dependencies) has no definition, and with ErrCyclicDependency
// when an id is requested again while it is still being built.
//
// # Manual wiring
//
//	c := container.New()
//	_ = c.Register("dog", func([]any) (any, error) { return &Dog{}, nil })
//	_ = c.Register("human", func(deps []any) (any, error) {
//	    return &Human{Dog: deps[0].(*Dog)}, nil
//	}, "dog")
//
//	h, err := container.Resolve[*Human](c, "human")
//
// # Factory bindings
//
//	// Transient: new instance every resolution
//	c.Bind("clock", func(r container.Resolver) (any, error) { return time.Now(), nil })
//
//	// Singleton
//	c.Singleton("kennel", func(r container.Resolver) (any, error) {
//	    dog, err := container.Resolve[*Dog](r, "dog")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &Kennel{Dog: dog}, nil
//	})
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Alias
//	c.Alias("dog", "pet")
//
// Factories must resolve through the Resolver they are given, never
// through the container captured in a closure, otherwise cycles are not
// detected.
//
// # Auto-wiring
//
//	c.Provide(NewDog)                  // constructor injection by type
//	c.Populate(&walker)                // field injection via `inject` tags
//	c.Invoke(func(d *Dog) { ... })     // setter / method injection
//
// # Graph checks
//
//	err := c.Validate()              // unknown ids and cycles, no factory runs
//	order, err := c.Order()          // dependencies first
//	err = c.Preinstantiate(ctx)      // build every singleton up front
//
// # Contextual Binding
//
//	c.When("human").Needs("dog").Give(func(r container.Resolver) (any, error) {
//	    return &Dog{Name: "Rex"}, nil
//	})
//
// # Tags
//
//	c.Tag([]string{"dog", "cat"}, "pets")
//	pets, err := c.Tagged("pets")
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	_ = registry.Register(&ZooProvider{})
//	_ = registry.Boot()
//
// Deferred providers return true from IsDeferred and list their ids in
// Provides; they are registered the first time one of those ids is resolved.
package container

package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	c.When("human").Needs("dog").Give(func(r container.Resolver) (any, error) {
//	    return &Dog{Name: "Rex"}, nil
//	})
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// Needs specifies which id the concrete bean depends on.
func (b *ContextualBuilder) Needs(id string) *ContextualBuilder {
	b.needs = id
	return b
}

// Give provides the factory used when the concrete bean resolves the
// needed id. The result is never cached.
func (b *ContextualBuilder) Give(factory Factory) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()

	concrete := b.container.canonical(b.concrete)
	if _, ok := b.container.contextual[concrete]; !ok {
		b.container.contextual[concrete] = make(map[string]Factory)
	}
	b.container.contextual[concrete][b.needs] = factory
}

// GiveValue is a shorthand for Give when the value is a scalar or a
// pre-built instance.
//
//	c.When("kennel").Needs("capacity").GiveValue(12)
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(func(Resolver) (any, error) { return value, nil })
}

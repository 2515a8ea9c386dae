package container

import (
	"context"
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// ProvideOption tunes a Provide registration.
type ProvideOption func(*provideOptions)

type provideOptions struct {
	id       string
	lifetime Lifetime
	tags     []string
}

// Named registers the constructor under id instead of its result type key.
func Named(id string) ProvideOption {
	return func(o *provideOptions) { o.id = id }
}

// Transient makes the provided bean rebuild on every resolution.
func Transient() ProvideOption {
	return func(o *provideOptions) { o.lifetime = LifetimeTransient }
}

// WithTags tags the provided bean.
func WithTags(tags ...string) ProvideOption {
	return func(o *provideOptions) { o.tags = append(o.tags, tags...) }
}

// Provide registers a constructor function and wires it by type: each
// parameter becomes a dependency on the parameter type's key and the bean is
// registered under the key of the first result.
//
//	func NewHuman(d *Dog) *Human { return &Human{Dog: d} }
//
//	c.Provide(NewDog)
//	c.Provide(NewHuman)
//	h, err := container.ResolveType[*Human](c)
//
// Constructors may return (T) or (T, error).
func (c *Container) Provide(ctor any, opts ...ProvideOption) error {
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return &InvalidDefinitionError{ID: fmt.Sprintf("%T", ctor), Reason: "constructor must be a non-nil func"}
	}
	ft := fn.Type()
	if err := checkResults(ft); err != nil {
		return &InvalidDefinitionError{ID: ft.String(), Reason: err.Error()}
	}

	o := provideOptions{id: typeKey(ft.Out(0)), lifetime: LifetimeSingleton}
	for _, opt := range opts {
		opt(&o)
	}

	deps := make([]string, ft.NumIn())
	for i := range deps {
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			return &InvalidDefinitionError{ID: o.id, Reason: "variadic constructors are not supported"}
		}
		deps[i] = typeKey(ft.In(i))
	}

	err := c.add(&Definition{
		ID:           o.id,
		Dependencies: deps,
		Lifetime:     o.lifetime,
		Source:       sourceProvide,
		build: func(r *resolution) (any, error) {
			out, err := call(r, o.id, fn, deps)
			if err != nil {
				return nil, err
			}
			return out[0].Interface(), nil
		},
	})
	if err != nil {
		return err
	}
	for _, tag := range o.tags {
		c.Tag([]string{o.id}, tag)
	}
	return nil
}

// MustProvide is Provide that panics on error, for composition roots.
func (c *Container) MustProvide(ctor any, opts ...ProvideOption) {
	if err := c.Provide(ctor, opts...); err != nil {
		panic(err)
	}
}

// Invoke calls fn with every parameter resolved by type. It is the setter
// injection entry point: fn usually assigns its arguments somewhere. A
// trailing error result is returned as is.
//
//	err := c.Invoke(func(d *Dog, h *Human) { h.SetDog(d) })
func (c *Container) Invoke(fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return &InvalidDefinitionError{ID: fmt.Sprintf("%T", fn), Reason: "Invoke needs a non-nil func"}
	}
	ft := v.Type()
	deps := make([]string, ft.NumIn())
	for i := range deps {
		deps[i] = typeKey(ft.In(i))
	}
	r := c.newResolution(context.Background())
	args, err := resolveArgs(r, ft, deps)
	if err != nil {
		return err
	}
	out := v.Call(args)
	if n := len(out); n > 0 && ft.Out(n-1) == errorType && !out[n-1].IsNil() {
		return out[n-1].Interface().(error)
	}
	return nil
}

// Populate fills the exported fields of the struct target points to that
// carry an `inject` tag. An empty tag injects by field type, otherwise the
// tag value is the id.
//
//	type Walker struct {
//	    Dog   *Dog  `inject:""`
//	    Owner any   `inject:"human"`
//	}
func (c *Container) Populate(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("container: Populate needs a non-nil pointer to struct, got %T", target)
	}
	elem := v.Elem()
	st := elem.Type()
	r := c.newResolution(context.Background())
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		tag, ok := field.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("container: Populate %s.%s: field is not exported", st.Name(), field.Name)
		}
		id := tag
		if id == "" {
			id = typeKey(field.Type)
		}
		inst, err := r.Resolve(id)
		if err != nil {
			return fmt.Errorf("container: Populate %s.%s: %w", st.Name(), field.Name, err)
		}
		arg, err := convert(id, inst, field.Type)
		if err != nil {
			return fmt.Errorf("container: Populate %s.%s: %w", st.Name(), field.Name, err)
		}
		elem.Field(i).Set(arg)
	}
	return nil
}

func checkResults(ft reflect.Type) error {
	switch ft.NumOut() {
	case 1:
		if ft.Out(0) == errorType {
			return fmt.Errorf("constructor returns only an error")
		}
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
	default:
		return fmt.Errorf("constructor must return (T) or (T, error), got %d results", ft.NumOut())
	}
	return nil
}

// call resolves deps, invokes fn and splits off a trailing error.
func call(r *resolution, id string, fn reflect.Value, deps []string) ([]reflect.Value, error) {
	ft := fn.Type()
	args, err := resolveArgs(r, ft, deps)
	if err != nil {
		return nil, err
	}
	out := fn.Call(args)
	if n := len(out); n == 2 && !out[1].IsNil() {
		return nil, &FactoryError{ID: id, Err: out[1].Interface().(error)}
	}
	return out, nil
}

func resolveArgs(r *resolution, ft reflect.Type, deps []string) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(deps))
	for i, dep := range deps {
		inst, err := r.Resolve(dep)
		if err != nil {
			return nil, err
		}
		arg, err := convert(dep, inst, ft.In(i))
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// convert adapts inst to want. Because type keys ignore one level of
// pointer, a *T bean can satisfy a T parameter and the other way round.
func convert(id string, inst any, want reflect.Type) (reflect.Value, error) {
	if inst == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(inst)
	switch {
	case v.Type().AssignableTo(want):
		return v, nil
	case v.Kind() == reflect.Ptr && v.Type().Elem().AssignableTo(want):
		if v.IsNil() {
			return reflect.Zero(want), nil
		}
		return v.Elem(), nil
	case want.Kind() == reflect.Ptr && v.Type().AssignableTo(want.Elem()):
		p := reflect.New(want.Elem())
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, &TypeMismatchError{ID: id, Want: want.String(), Got: v.Type().String()}
}

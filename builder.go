package dihelper

import (
	"context"
)

// Producer yields the complete bean set. It is called exactly once, from
// Init.
type Producer interface {
	Produce(ctx context.Context) ([]Definition, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context) ([]Definition, error)

// Produce calls f.
func (f ProducerFunc) Produce(ctx context.Context) ([]Definition, error) {
	return f(ctx)
}

// Builder is the explicit registration table: beans are declared in code in
// the order they should be registered.
//
//	b := dihelper.NewBuilder()
//	dihelper.Provide[Fruit](b, "apple", &Apple{})
//	dihelper.Provide(b, "text", "Hello, World!", dihelper.DisableRun())
//	provider, err := dihelper.NewBeanProvider(b)
type Builder struct {
	defs []Definition
	err  error
}

// NewBuilder creates an empty registration table.
func NewBuilder() *Builder {
	return &Builder{}
}

// Provide declares a bean with static type T. The first construction error
// is kept and returned from Produce; later declarations are ignored.
func Provide[T any](b *Builder, name string, value T, opts ...BeanOption) *Builder {
	if b.err != nil {
		return b
	}
	bean, err := NewBean(name, value, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.defs = append(b.defs, bean)
	return b
}

// Add appends already built definitions.
func (b *Builder) Add(defs ...Definition) *Builder {
	if b.err != nil {
		return b
	}
	for _, def := range defs {
		if def == nil {
			b.err = ErrBeanNil
			return b
		}
		b.defs = append(b.defs, def)
	}
	return b
}

// Produce returns the declared beans in declaration order. Duplicate names
// are reported when the registry is filled, not here.
func (b *Builder) Produce(context.Context) ([]Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := make([]Definition, len(b.defs))
	copy(out, b.defs)
	return out, nil
}

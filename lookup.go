package dihelper

import (
	"fmt"
)

// GetBean returns the bean registered under name when it was declared with
// exactly the static type T. A missing name or any other declared type
// reports absent. The lookup never fails with an error.
//
//	apple, ok := dihelper.GetBean[Fruit](provider, "apple")   // ok
//	_, ok = dihelper.GetBean[*Apple](provider, "apple")       // !ok
//	_, ok = dihelper.GetBean[[]int](provider, "textList")     // !ok
func GetBean[T any](p *BeanProvider, name string) (*Bean[T], bool) {
	def, ok := p.Lookup(name, TypeOf[T]())
	if !ok {
		return nil, false
	}
	bean, ok := def.(*Bean[T])
	return bean, ok
}

// MustGetBean is GetBean for wiring code that cannot continue without the
// bean. It panics with an error matching ErrBeanNotFound.
func MustGetBean[T any](p *BeanProvider, name string) *Bean[T] {
	bean, ok := GetBean[T](p, name)
	if !ok {
		panic(fmt.Errorf("%w: %q as %s", ErrBeanNotFound, name, TypeOf[T]()))
	}
	return bean
}

// Lookup finds a bean by name and runtime type descriptor. Type equality is
// structural identity, never assignability: a bean declared as Fruit is not
// returned for *Apple. Before Init has sealed the registry every name is
// absent.
func (p *BeanProvider) Lookup(name string, typ TypeDescriptor) (Definition, bool) {
	def, ok := p.registry.Get(name)
	if !ok {
		return nil, false
	}
	if !def.Type().Equal(typ) {
		p.logger.Debug("Bean type mismatch", "bean", name, "declared", def.Type().String(), "requested", typ.String())
		return nil, false
	}
	return def, true
}

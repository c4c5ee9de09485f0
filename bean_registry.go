package dihelper

import (
	"sync"
	"sync/atomic"
)

// BeanRegistry maps bean names to definitions. It is written once while the
// provider builds it and read-only after Seal; reads after Seal take no lock.
type BeanRegistry struct {
	mu     sync.Mutex
	beans  map[string]Definition
	order  []Definition
	sealed atomic.Bool
}

// NewBeanRegistry creates an empty registry.
func NewBeanRegistry() *BeanRegistry {
	return &BeanRegistry{
		beans: make(map[string]Definition),
	}
}

// Put adds a definition. Names must be unique.
func (r *BeanRegistry) Put(def Definition) error {
	if def == nil {
		return ErrBeanNil
	}
	if def.Name() == "" {
		return ErrBeanNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return ErrRegistrySealed
	}
	if _, exists := r.beans[def.Name()]; exists {
		return &DuplicateBeanError{Name: def.Name()}
	}

	r.beans[def.Name()] = def
	r.order = append(r.order, def)
	return nil
}

// Seal ends the build phase. The atomic store publishes every Put to
// goroutines that observe Sealed or call Get.
func (r *BeanRegistry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed.Store(true)
}

// Sealed reports whether the build phase is over.
func (r *BeanRegistry) Sealed() bool {
	return r.sealed.Load()
}

// Get returns the definition registered under name. Before Seal every name
// is reported absent.
func (r *BeanRegistry) Get(name string) (Definition, bool) {
	if !r.sealed.Load() {
		return nil, false
	}
	def, ok := r.beans[name]
	return def, ok
}

// Len is the number of registered beans.
func (r *BeanRegistry) Len() int {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return len(r.order)
}

// Definitions returns the beans in registration order.
func (r *BeanRegistry) Definitions() []Definition {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make([]Definition, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the bean names in registration order.
func (r *BeanRegistry) Names() []string {
	defs := r.Definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name()
	}
	return names
}

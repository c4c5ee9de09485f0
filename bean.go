package dihelper

import (
	"context"
	"fmt"
	"io"
)

// ActionFunc is a lifecycle action attached to a bean.
type ActionFunc func(ctx context.Context) error

// Initializable beans run Init during the init phase unless an OnInit hook
// was registered.
type Initializable interface {
	Init(ctx context.Context) error
}

// Runnable beans run Run during the run phase unless an OnRun hook was
// registered.
type Runnable interface {
	Run(ctx context.Context) error
}

// Closable beans run Close during the close phase unless an OnClose hook was
// registered. Values implementing io.Closer are accepted as well.
type Closable interface {
	Close(ctx context.Context) error
}

// Definition is the untyped view of a bean used by the registry and the
// lifecycle scheduler. Only *Bean[T] implements it.
type Definition interface {
	Name() string
	Type() TypeDescriptor
	Any() any
	InitConfig() InitConfig
	RunConfig() RunConfig
	CloseConfig() CloseConfig

	initAction() ActionFunc
	runAction() ActionFunc
	closeAction() ActionFunc
	withOverride(BeanOverride) (Definition, error)
}

type beanSettings struct {
	init    InitConfig
	run     RunConfig
	close   CloseConfig
	onInit  ActionFunc
	onRun   ActionFunc
	onClose ActionFunc
}

// BeanOption customises a bean at registration time.
type BeanOption func(*beanSettings)

// Bean is an immutable, named, typed value with its lifecycle configuration.
type Bean[T any] struct {
	name     string
	value    T
	typ      TypeDescriptor
	settings beanSettings
}

// NewBean creates a bean declared with static type T. Without options all
// phases are enabled with order 0 and a one-shot, undelayed run in seconds.
func NewBean[T any](name string, value T, opts ...BeanOption) (*Bean[T], error) {
	if name == "" {
		return nil, ErrBeanNameEmpty
	}

	settings := beanSettings{
		init:  DefaultInitConfig(),
		run:   DefaultRunConfig(),
		close: DefaultCloseConfig(),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	if err := settings.run.Validate(); err != nil {
		return nil, fmt.Errorf("bean %q: %w", name, err)
	}

	return &Bean[T]{
		name:     name,
		value:    value,
		typ:      TypeOf[T](),
		settings: settings,
	}, nil
}

func (b *Bean[T]) Name() string             { return b.name }
func (b *Bean[T]) Value() T                 { return b.value }
func (b *Bean[T]) Any() any                 { return b.value }
func (b *Bean[T]) Type() TypeDescriptor     { return b.typ }
func (b *Bean[T]) InitConfig() InitConfig   { return b.settings.init }
func (b *Bean[T]) RunConfig() RunConfig     { return b.settings.run }
func (b *Bean[T]) CloseConfig() CloseConfig { return b.settings.close }

func (b *Bean[T]) initAction() ActionFunc {
	if b.settings.onInit != nil {
		return b.settings.onInit
	}
	if v, ok := any(b.value).(Initializable); ok {
		return v.Init
	}
	return nil
}

func (b *Bean[T]) runAction() ActionFunc {
	if b.settings.onRun != nil {
		return b.settings.onRun
	}
	if v, ok := any(b.value).(Runnable); ok {
		return v.Run
	}
	return nil
}

func (b *Bean[T]) closeAction() ActionFunc {
	if b.settings.onClose != nil {
		return b.settings.onClose
	}
	switch v := any(b.value).(type) {
	case Closable:
		return v.Close
	case io.Closer:
		return func(context.Context) error { return v.Close() }
	}
	return nil
}

// withOverride returns a copy of the bean with the override applied; the
// receiver is left untouched.
func (b *Bean[T]) withOverride(o BeanOverride) (Definition, error) {
	cp := *b
	o.apply(&cp.settings)
	if err := cp.settings.run.Validate(); err != nil {
		return nil, fmt.Errorf("bean %q: %w", b.name, err)
	}
	return &cp, nil
}

// WithInitConfig replaces the init config.
func WithInitConfig(cfg InitConfig) BeanOption {
	return func(s *beanSettings) { s.init = cfg }
}

// WithRunConfig replaces the run config.
func WithRunConfig(cfg RunConfig) BeanOption {
	return func(s *beanSettings) { s.run = cfg }
}

// WithCloseConfig replaces the close config.
func WithCloseConfig(cfg CloseConfig) BeanOption {
	return func(s *beanSettings) { s.close = cfg }
}

// WithInitOrder sets the init order, keeping the enabled flag.
func WithInitOrder(order int) BeanOption {
	return func(s *beanSettings) { s.init.Order = order }
}

// WithCloseOrder sets the close order, keeping the enabled flag.
func WithCloseOrder(order int) BeanOption {
	return func(s *beanSettings) { s.close.Order = order }
}

// WithSchedule sets the run delay and repetition period.
func WithSchedule(delay, period int64, unit TimeUnit) BeanOption {
	return func(s *beanSettings) {
		s.run.Delay = delay
		s.run.RepetitionPeriod = period
		s.run.TimeUnit = unit
	}
}

// DisableInit excludes the bean from the init phase.
func DisableInit() BeanOption {
	return func(s *beanSettings) { s.init.Enabled = false }
}

// DisableRun excludes the bean from the run phase.
func DisableRun() BeanOption {
	return func(s *beanSettings) { s.run.Enabled = false }
}

// DisableClose excludes the bean from the close phase.
func DisableClose() BeanOption {
	return func(s *beanSettings) { s.close.Enabled = false }
}

// OnInit registers the init action, taking precedence over Initializable.
func OnInit(fn ActionFunc) BeanOption {
	return func(s *beanSettings) { s.onInit = fn }
}

// OnRun registers the run action, taking precedence over Runnable.
func OnRun(fn ActionFunc) BeanOption {
	return func(s *beanSettings) { s.onRun = fn }
}

// OnClose registers the close action, taking precedence over Closable.
func OnClose(fn ActionFunc) BeanOption {
	return func(s *beanSettings) { s.onClose = fn }
}

package dihelper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/GoCodeAlone/dihelper/lifecycle"
	"github.com/GoCodeAlone/dihelper/scheduler"
)

// BeanProvider owns the registry and drives the bean lifecycle. Lookups are
// safe for concurrent use once Init has sealed the registry.
type BeanProvider struct {
	eventSubject

	producer        Producer
	registry        *BeanRegistry
	machine         *lifecycle.Machine
	config          *Config
	logger          Logger
	shutdownTimeout time.Duration
	onRunError      func(*RunPhaseError)

	runner *scheduler.Scheduler
	done   chan struct{}

	// initDone is closed when Init returns; shutdownPending is set by a
	// Shutdown that arrived while Init was still running.
	initDone        chan struct{}
	shutdownPending atomic.Bool
}

// NewBeanProvider creates an unstarted provider. The producer is not called
// until Init.
func NewBeanProvider(producer Producer, opts ...ProviderOption) (*BeanProvider, error) {
	if producer == nil {
		return nil, ErrProducerNil
	}

	p := &BeanProvider{
		eventSubject: eventSubject{logger: NopLogger()},
		producer:     producer,
		registry:     NewBeanRegistry(),
		machine:      lifecycle.NewMachine(),
		config:       DefaultConfig(),
		logger:       NopLogger(),
		done:         make(chan struct{}),
		initDone:     make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.runner = scheduler.New(
		scheduler.WithLogger(p.logger),
		scheduler.WithHistoryLimit(p.config.historyLimit()),
		scheduler.WithHistoryRetention(p.config.HistoryRetention),
		scheduler.WithOverlap(p.config.AllowOverlappingRuns),
		scheduler.WithResultHandler(p.onRunResult),
	)

	return p, nil
}

// Init produces the beans, applies configuration overrides, seals the
// registry, runs the init phase and starts the run phase timers. It may be called
// once; later calls fail with *AlreadyInitializedError.
//
// When anything fails the provider moves straight to Closed: no run action
// is scheduled and no close action runs.
func (p *BeanProvider) Init(ctx context.Context) error {
	if err := p.machine.Transition(lifecycle.StateUnstarted, lifecycle.StateInitializing); err != nil {
		return &AlreadyInitializedError{State: p.machine.Current().String()}
	}
	defer close(p.initDone)

	p.logger.Info("Initializing beans")

	defs, err := p.build(ctx)
	if err == nil {
		err = p.initPhase(ctx, defs)
	}
	if err == nil {
		err = p.armRunPhase(defs)
	}
	if err != nil {
		p.abort(ctx)
		return err
	}

	if err := p.machine.Transition(lifecycle.StateInitializing, lifecycle.StateRunning); err != nil {
		return err
	}

	p.logger.Info("Beans initialized", "count", len(defs))
	p.emit(ctx, EventTypeProviderInitialized, map[string]any{"beans": len(defs)})

	if p.shutdownPending.Load() {
		p.logger.Info("Shutdown requested during init, run phase not started")
		return nil
	}

	// Run actions outlive the Init call; only its values are inherited.
	return p.runner.Start(context.WithoutCancel(ctx))
}

// build fills and seals the registry.
func (p *BeanProvider) build(ctx context.Context) ([]Definition, error) {
	defs, err := p.producer.Produce(ctx)
	if err != nil {
		return nil, fmt.Errorf("produce beans: %w", err)
	}

	defs, err = p.applyOverrides(defs)
	if err != nil {
		return nil, err
	}

	for _, def := range defs {
		if err := p.registry.Put(def); err != nil {
			return nil, err
		}
		p.logger.Debug("Bean registered", "bean", def.Name(), "type", def.Type().String())
	}
	p.registry.Seal()

	return defs, nil
}

func (p *BeanProvider) applyOverrides(defs []Definition) ([]Definition, error) {
	if len(p.config.Beans) == 0 {
		return defs, nil
	}

	seen := make(map[string]bool, len(defs))
	out := make([]Definition, len(defs))
	for i, def := range defs {
		out[i] = def
		if def == nil {
			continue
		}
		o, ok := p.config.Beans[def.Name()]
		if !ok {
			continue
		}
		seen[def.Name()] = true

		overridden, err := def.withOverride(o)
		if err != nil {
			return nil, err
		}
		out[i] = overridden
		p.logger.Debug("Bean config overridden", "bean", def.Name())
	}

	for name := range p.config.Beans {
		if !seen[name] {
			p.logger.Warn("Config override for unknown bean ignored", "bean", name)
		}
	}
	return out, nil
}

func (p *BeanProvider) abort(ctx context.Context) {
	_ = p.runner.Stop(ctx)
	if err := p.machine.Transition(lifecycle.StateInitializing, lifecycle.StateClosed); err != nil {
		p.logger.Error("Unexpected lifecycle state", "error", err)
	}
	close(p.done)
	p.emit(ctx, EventTypeProviderClosed, nil)
}

// Shutdown stops the run phase, then runs the close phase. Close failures
// do not stop later close actions; they are returned joined, together with
// a timeout waiting for in-flight run actions.
//
// Shutdown before Init returns ErrNotInitialized. Shutdown during Init waits
// for it to finish, keeps the run phase from starting and then closes the
// beans. Once Closed it returns nil. Concurrent callers wait for the first
// one to finish.
func (p *BeanProvider) Shutdown(ctx context.Context) error {
	switch state := p.machine.Current(); state {
	case lifecycle.StateUnstarted:
		return fmt.Errorf("%w (state %s)", ErrNotInitialized, state)
	case lifecycle.StateInitializing:
		p.shutdownPending.Store(true)
		p.logger.Info("Shutdown requested during init, waiting for init to finish")
		select {
		case <-p.initDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.machine.Current() == lifecycle.StateClosed {
		return nil
	}

	if err := p.machine.Transition(lifecycle.StateRunning, lifecycle.StateShuttingDown); err != nil {
		select {
		case <-p.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.logger.Info("Shutting down beans")
	p.emit(ctx, EventTypeProviderShutdownStarted, nil)

	var errs []error
	if err := p.stopRunPhase(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := p.closePhase(ctx, p.registry.Definitions()); err != nil {
		errs = append(errs, err)
	}

	if err := p.machine.Transition(lifecycle.StateShuttingDown, lifecycle.StateClosed); err != nil {
		errs = append(errs, err)
	}
	close(p.done)

	err := errors.Join(errs...)
	if err != nil {
		p.logger.Error("Shutdown completed with errors", "error", err)
	} else {
		p.logger.Info("Shutdown complete")
	}
	p.emit(ctx, EventTypeProviderClosed, nil)
	return err
}

// Run initializes the provider, blocks until SIGINT, SIGTERM or ctx is
// done, then shuts down within the configured timeout. Signals are caught
// from the start, so one arriving during Init still closes the beans.
func (p *BeanProvider) Run(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := p.Init(ctx); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		p.logger.Info("Received signal, shutting down", "signal", sig)
	case <-ctx.Done():
		p.logger.Info("Context done, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.ShutdownTimeout())
	defer cancel()
	return p.Shutdown(shutdownCtx)
}

// Done is closed once the provider reaches Closed.
func (p *BeanProvider) Done() <-chan struct{} {
	return p.done
}

// State returns the current lifecycle state.
func (p *BeanProvider) State() lifecycle.State {
	return p.machine.Current()
}

// Beans returns every registered bean in registration order. It is empty
// before Init.
func (p *BeanProvider) Beans() []Definition {
	if !p.registry.Sealed() {
		return nil
	}
	return p.registry.Definitions()
}

// RunHistory returns the recorded run executions of a bean, oldest first.
func (p *BeanProvider) RunHistory(name string) []scheduler.JobExecution {
	return p.runner.Executions(name)
}

// NextRun is the next planned run of a bean, zero when none is planned.
func (p *BeanProvider) NextRun(name string) time.Time {
	return p.runner.Next(name)
}

// ShutdownTimeout is the effective bound on waiting for in-flight runs.
func (p *BeanProvider) ShutdownTimeout() time.Duration {
	if p.shutdownTimeout > 0 {
		return p.shutdownTimeout
	}
	return p.config.ShutdownTimeout
}

// Config returns a copy of the effective configuration.
func (p *BeanProvider) Config() Config {
	return *p.config
}

package dihelper

import (
	"time"
)

// ProviderOption configures a BeanProvider.
type ProviderOption func(*BeanProvider) error

// WithLogger sets the logger used for lifecycle output. Nil keeps the no-op
// logger.
func WithLogger(logger Logger) ProviderOption {
	return func(p *BeanProvider) error {
		if logger != nil {
			p.logger = logger
			p.eventSubject.logger = logger
		}
		return nil
	}
}

// WithConfig replaces the default configuration. Defaults are applied to
// zero fields and the result is validated.
func WithConfig(cfg *Config) ProviderOption {
	return func(p *BeanProvider) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if err := ValidateConfig(cfg); err != nil {
			return err
		}
		p.config = cfg
		return nil
	}
}

// WithObservers registers observers for every lifecycle event.
func WithObservers(observers ...Observer) ProviderOption {
	return func(p *BeanProvider) error {
		for _, o := range observers {
			if err := p.RegisterObserver(o); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithShutdownTimeout overrides Config.ShutdownTimeout.
func WithShutdownTimeout(timeout time.Duration) ProviderOption {
	return func(p *BeanProvider) error {
		if timeout < 0 {
			return ErrNegativeSchedule
		}
		p.shutdownTimeout = timeout
		return nil
	}
}

// WithRunErrorHandler registers a callback for every failed run action. It
// is called from the goroutine that ran the action.
func WithRunErrorHandler(handler func(*RunPhaseError)) ProviderOption {
	return func(p *BeanProvider) error {
		p.onRunError = handler
		return nil
	}
}

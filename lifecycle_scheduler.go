package dihelper

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/GoCodeAlone/dihelper/lifecycle"
	"github.com/GoCodeAlone/dihelper/scheduler"
)

// ordered returns the beans enabled for phase, stably sorted by order so
// that equal orders keep registration order.
func ordered(defs []Definition, phase lifecycle.Phase) []Definition {
	key := func(def Definition) (bool, int) {
		switch phase {
		case lifecycle.PhaseInit:
			c := def.InitConfig()
			return c.Enabled, c.Order
		case lifecycle.PhaseClose:
			c := def.CloseConfig()
			return c.Enabled, c.Order
		}
		return def.RunConfig().Enabled, 0
	}

	out := make([]Definition, 0, len(defs))
	for _, def := range defs {
		if enabled, _ := key(def); enabled {
			out = append(out, def)
		}
	}
	slices.SortStableFunc(out, func(a, b Definition) int {
		_, oa := key(a)
		_, ob := key(b)
		return cmp.Compare(oa, ob)
	})
	return out
}

// invoke runs a bean action, turning a panic into an error.
func invoke(ctx context.Context, action ActionFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return action(ctx)
}

// initPhase runs the init actions in order and stops at the first failure.
func (p *BeanProvider) initPhase(ctx context.Context, defs []Definition) error {
	for i, def := range ordered(defs, lifecycle.PhaseInit) {
		data := BeanEventData{Bean: def.Name(), Type: def.Type().String(), Position: &i}

		if action := def.initAction(); action != nil {
			if err := invoke(ctx, action); err != nil {
				initErr := &InitPhaseError{Bean: def.Name(), Position: i, Err: err}
				p.logger.Error("Bean init failed", "bean", def.Name(), "position", i, "error", err)
				data.Error = err.Error()
				p.emit(ctx, EventTypeBeanInitFailed, data)
				return initErr
			}
		}

		p.logger.Debug("Bean initialized", "bean", def.Name(), "position", i)
		p.emit(ctx, EventTypeBeanInitialized, data)
	}
	return nil
}

// armRunPhase schedules every enabled run action. Nothing fires before the
// runner is started.
func (p *BeanProvider) armRunPhase(defs []Definition) error {
	for _, def := range ordered(defs, lifecycle.PhaseRun) {
		action := def.runAction()
		if action == nil {
			continue
		}

		cfg := def.RunConfig()
		err := p.runner.Schedule(scheduler.Job{
			ID:     def.Name(),
			Delay:  cfg.InitialDelay(),
			Period: cfg.Period(),
			JobFunc: func(ctx context.Context) error {
				return invoke(ctx, action)
			},
		})
		if err != nil {
			return fmt.Errorf("schedule run of bean %q: %w", def.Name(), err)
		}
		p.logger.Debug("Bean run scheduled", "bean", def.Name(), "delay", cfg.InitialDelay(), "period", cfg.Period())
	}
	return nil
}

// onRunResult reports one run execution. Failures never reach other
// schedules.
func (p *BeanProvider) onRunResult(ctx context.Context, exec scheduler.JobExecution, err error) {
	data := BeanEventData{Bean: exec.JobID, Execution: exec.ID}
	if def, ok := p.registry.Get(exec.JobID); ok {
		data.Type = def.Type().String()
	}

	if err == nil {
		p.emit(ctx, EventTypeBeanRunSucceeded, data)
		return
	}

	runErr := &RunPhaseError{Bean: exec.JobID, ExecutionID: exec.ID, Err: err}
	data.Error = err.Error()
	p.emit(ctx, EventTypeBeanRunFailed, data)
	if p.onRunError != nil {
		p.onRunError(runErr)
	}
}

// stopRunPhase stops arming timers, cancels running actions and waits for
// them within the shutdown timeout.
func (p *BeanProvider) stopRunPhase(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, p.ShutdownTimeout())
	defer cancel()

	if err := p.runner.Stop(stopCtx); err != nil {
		p.logger.Warn("Run actions still in flight at shutdown", "error", err)
		return fmt.Errorf("stop run phase: %w", err)
	}
	return nil
}

// closePhase runs every close action in order, whatever the outcome of the
// previous ones.
func (p *BeanProvider) closePhase(ctx context.Context, defs []Definition) error {
	var errs []error
	for i, def := range ordered(defs, lifecycle.PhaseClose) {
		data := BeanEventData{Bean: def.Name(), Type: def.Type().String(), Position: &i}

		if action := def.closeAction(); action != nil {
			if err := invoke(ctx, action); err != nil {
				errs = append(errs, &ClosePhaseError{Bean: def.Name(), Position: i, Err: err})
				p.logger.Error("Bean close failed", "bean", def.Name(), "position", i, "error", err)
				data.Error = err.Error()
				p.emit(ctx, EventTypeBeanCloseFailed, data)
				continue
			}
		}

		p.logger.Debug("Bean closed", "bean", def.Name(), "position", i)
		p.emit(ctx, EventTypeBeanClosed, data)
	}
	return errors.Join(errs...)
}

package dihelper

import (
	"errors"
	"fmt"
)

// Container errors
var (
	// Registry errors
	ErrDuplicateBean  = errors.New("bean already registered")
	ErrBeanNameEmpty  = errors.New("bean name cannot be empty")
	ErrRegistrySealed = errors.New("bean registry is sealed")
	ErrBeanNil        = errors.New("bean definition is nil")

	// Provider errors
	ErrProducerNil        = errors.New("bean producer is nil")
	ErrAlreadyInitialized = errors.New("bean provider already initialized")
	ErrNotInitialized     = errors.New("bean provider not initialized")
	ErrBeanNotFound       = errors.New("bean not found")

	// Lifecycle errors
	ErrInitPhase      = errors.New("init phase failed")
	ErrRunPhase       = errors.New("run phase failed")
	ErrClosePhase     = errors.New("close phase failed")
	ErrActionPanicked = errors.New("bean action panicked")

	// Config errors
	ErrInvalidTimeUnit        = errors.New("invalid time unit")
	ErrNegativeSchedule       = errors.New("delay and repetition period must not be negative")
	ErrScheduleOverflow       = errors.New("delay or repetition period overflows a duration")
	ErrConfigNil              = errors.New("config is nil")
	ErrConfigNotPointer       = errors.New("config must be a pointer")
	ErrConfigNotStruct        = errors.New("config must be a struct")
	ErrConfigFeederError      = errors.New("config feeder error")
	ErrConfigValidationFailed = errors.New("config validation failed")
	ErrDefaultValueParseError = errors.New("failed to parse default value")
	ErrUnsupportedDefaultType = errors.New("unsupported type for default value")
)

// DuplicateBeanError reports a name registered twice while building the registry.
type DuplicateBeanError struct {
	Name string
}

func (e *DuplicateBeanError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateBean, e.Name)
}

func (e *DuplicateBeanError) Is(target error) bool {
	return target == ErrDuplicateBean
}

// AlreadyInitializedError is returned when Init is called more than once.
type AlreadyInitializedError struct {
	State string
}

func (e *AlreadyInitializedError) Error() string {
	return fmt.Sprintf("%s (state %s)", ErrAlreadyInitialized, e.State)
}

func (e *AlreadyInitializedError) Is(target error) bool {
	return target == ErrAlreadyInitialized
}

// InitPhaseError carries the bean whose init action aborted startup and its
// position in the ordered init pass.
type InitPhaseError struct {
	Bean     string
	Position int
	Err      error
}

func (e *InitPhaseError) Error() string {
	return fmt.Sprintf("%s: bean %q (position %d): %v", ErrInitPhase, e.Bean, e.Position, e.Err)
}

func (e *InitPhaseError) Is(target error) bool {
	return target == ErrInitPhase
}

func (e *InitPhaseError) Unwrap() error {
	return e.Err
}

// RunPhaseError is reported when a scheduled run action fails. It never stops
// the scheduler or sibling schedules.
type RunPhaseError struct {
	Bean        string
	ExecutionID string
	Err         error
}

func (e *RunPhaseError) Error() string {
	return fmt.Sprintf("%s: bean %q: %v", ErrRunPhase, e.Bean, e.Err)
}

func (e *RunPhaseError) Is(target error) bool {
	return target == ErrRunPhase
}

func (e *RunPhaseError) Unwrap() error {
	return e.Err
}

// ClosePhaseError is one entry of the aggregate returned by Shutdown.
type ClosePhaseError struct {
	Bean     string
	Position int
	Err      error
}

func (e *ClosePhaseError) Error() string {
	return fmt.Sprintf("%s: bean %q (position %d): %v", ErrClosePhase, e.Bean, e.Position, e.Err)
}

func (e *ClosePhaseError) Is(target error) bool {
	return target == ErrClosePhase
}

func (e *ClosePhaseError) Unwrap() error {
	return e.Err
}

// panicError converts a recovered value into an error.
func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("%w: %w", ErrActionPanicked, err)
	}
	return fmt.Errorf("%w: %v", ErrActionPanicked, recovered)
}

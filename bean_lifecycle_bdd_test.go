package dihelper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/GoCodeAlone/dihelper/lifecycle"
	"github.com/cucumber/godog"
)

// Static error variables for BDD steps
var (
	errProviderNotCreated   = errors.New("provider was not created")
	errBeanMissing          = errors.New("bean not registered")
	errUnexpectedLookup     = errors.New("unexpected lookup result")
	errUnexpectedConfig     = errors.New("unexpected lifecycle config")
	errUnexpectedOrder      = errors.New("unexpected execution order")
	errExpectedInitFailure  = errors.New("expected initialization to fail")
	errExpectedCloseFailure = errors.New("expected shutdown to report a close failure")
	errBeanWasActive        = errors.New("disabled bean executed a lifecycle action")
	errStepFailed           = errors.New("intentional step failure")
)

// BeanLifecycleBDDContext holds the state of one scenario.
type BeanLifecycleBDDContext struct {
	builder     *Builder
	provider    *BeanProvider
	journal     *journal
	trackers    map[string]*tracker
	initError   error
	shutdownErr error
}

func (c *BeanLifecycleBDDContext) reset() {
	c.builder = NewBuilder()
	c.provider = nil
	c.journal = &journal{}
	c.trackers = make(map[string]*tracker)
	c.initError = nil
	c.shutdownErr = nil
}

func (c *BeanLifecycleBDDContext) iHaveANewBeanBuilder() error {
	c.reset()
	return nil
}

func (c *BeanLifecycleBDDContext) aBeanWithNoLifecycleOptions(name string) error {
	Provide(c.builder, name, struct{}{})
	return nil
}

func (c *BeanLifecycleBDDContext) theReferenceFixtureBeans() error {
	c.builder = fixtureBuilder()
	return nil
}

func (c *BeanLifecycleBDDContext) aRecordingBeanWithInitOrder(name string, order int) error {
	p := newTracker(name, c.journal)
	c.trackers[name] = p
	Provide(c.builder, name, p, WithInitOrder(order), DisableRun())
	return nil
}

func (c *BeanLifecycleBDDContext) aRecordingBeanWithCloseOrder(name string, order int) error {
	p := newTracker(name, c.journal)
	c.trackers[name] = p
	Provide(c.builder, name, p, WithCloseOrder(order), DisableRun())
	return nil
}

func (c *BeanLifecycleBDDContext) aBeanWhoseInitFailsWithOrder(name string, order int) error {
	p := newTracker(name, nil)
	p.initErr = fmt.Errorf("%s: %w", name, errStepFailed)
	c.trackers[name] = p
	Provide(c.builder, name, p, WithInitOrder(order), DisableRun())
	return nil
}

func (c *BeanLifecycleBDDContext) aBeanWhoseCloseFailsWithOrder(name string, order int) error {
	p := newTracker(name, nil)
	p.closeErr = fmt.Errorf("%s: %w", name, errStepFailed)
	c.trackers[name] = p
	Provide(c.builder, name, p, WithCloseOrder(order), DisableRun())
	return nil
}

func (c *BeanLifecycleBDDContext) aRecordingBeanWithEveryPhaseDisabled(name string) error {
	p := newTracker(name, c.journal)
	c.trackers[name] = p
	Provide(c.builder, name, p, DisableInit(), DisableRun(), DisableClose())
	return nil
}

func (c *BeanLifecycleBDDContext) newProvider() error {
	p, err := NewBeanProvider(c.builder, WithLogger(NopLogger()))
	if err != nil {
		return err
	}
	c.provider = p
	return nil
}

func (c *BeanLifecycleBDDContext) iInitializeTheProvider() error {
	if err := c.newProvider(); err != nil {
		return err
	}
	return c.provider.Init(context.Background())
}

func (c *BeanLifecycleBDDContext) iTryToInitializeTheProvider() error {
	if err := c.newProvider(); err != nil {
		return err
	}
	c.initError = c.provider.Init(context.Background())
	return nil
}

func (c *BeanLifecycleBDDContext) iShutDownTheProvider() error {
	if c.provider == nil {
		return errProviderNotCreated
	}
	c.shutdownErr = c.provider.Shutdown(context.Background())
	return nil
}

func (c *BeanLifecycleBDDContext) definition(name string) (Definition, error) {
	if c.provider == nil {
		return nil, errProviderNotCreated
	}
	for _, def := range c.provider.Beans() {
		if def.Name() == name {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, errBeanMissing)
}

func (c *BeanLifecycleBDDContext) beanShouldHaveInitEnabledWithOrder(name string, order int) error {
	def, err := c.definition(name)
	if err != nil {
		return err
	}
	if got := def.InitConfig(); got != (InitConfig{Enabled: true, Order: order}) {
		return fmt.Errorf("%s init config %+v: %w", name, got, errUnexpectedConfig)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) beanShouldHaveRunEnabledWithDelayAndPeriodInSeconds(name string, delay, period int) error {
	def, err := c.definition(name)
	if err != nil {
		return err
	}
	want := RunConfig{Enabled: true, Delay: int64(delay), RepetitionPeriod: int64(period), TimeUnit: Seconds}
	if got := def.RunConfig(); got != want {
		return fmt.Errorf("%s run config %+v: %w", name, got, errUnexpectedConfig)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) beanShouldHaveCloseEnabledWithOrder(name string, order int) error {
	def, err := c.definition(name)
	if err != nil {
		return err
	}
	if got := def.CloseConfig(); got != (CloseConfig{Enabled: true, Order: order}) {
		return fmt.Errorf("%s close config %+v: %w", name, got, errUnexpectedConfig)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) theRegistryShouldContainBeans(n int) error {
	if c.provider == nil {
		return errProviderNotCreated
	}
	if got := len(c.provider.Beans()); got != n {
		return fmt.Errorf("registry has %d beans, want %d: %w", got, n, errUnexpectedLookup)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) lookingUpAsAnIntShouldReturn(name string, want int) error {
	bean, ok := GetBean[int](c.provider, name)
	if !ok || bean.Value() != want {
		return fmt.Errorf("%s as int: %w", name, errUnexpectedLookup)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) lookingUpAsAStringShouldReturnNothing(name string) error {
	if _, ok := GetBean[string](c.provider, name); ok {
		return fmt.Errorf("%s as string: %w", name, errUnexpectedLookup)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) lookingUpAsAListOfIntsShouldReturnNothing(name string) error {
	if _, ok := GetBean[[]int](c.provider, name); ok {
		return fmt.Errorf("%s as []int: %w", name, errUnexpectedLookup)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) lookingUpAsAListOfStringsShouldReturnElements(name string, n int) error {
	bean, ok := GetBean[[]string](c.provider, name)
	if !ok || len(bean.Value()) != n {
		return fmt.Errorf("%s as []string: %w", name, errUnexpectedLookup)
	}
	return nil
}

// phaseOrder lists the beans the journal saw in phase, in call order.
func (c *BeanLifecycleBDDContext) phaseOrder(phase string) string {
	var names []string
	for _, entry := range c.journal.list() {
		if name, ok := strings.CutPrefix(entry, phase+":"); ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

func (c *BeanLifecycleBDDContext) theInitActionsShouldHaveRunInOrder(want string) error {
	if got := c.phaseOrder("init"); got != want {
		return fmt.Errorf("init order %q, want %q: %w", got, want, errUnexpectedOrder)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) theCloseActionsShouldHaveRunInOrder(want string) error {
	if got := c.phaseOrder("close"); got != want {
		return fmt.Errorf("close order %q, want %q: %w", got, want, errUnexpectedOrder)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) initializationShouldFailForBeanAtPosition(name string, position int) error {
	var initErr *InitPhaseError
	if !errors.As(c.initError, &initErr) {
		return errExpectedInitFailure
	}
	if initErr.Bean != name || initErr.Position != position {
		return fmt.Errorf("failed bean %q at %d: %w", initErr.Bean, initErr.Position, errExpectedInitFailure)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) theProviderShouldBeClosed() error {
	if c.provider == nil {
		return errProviderNotCreated
	}
	if state := c.provider.State(); state != lifecycle.StateClosed {
		return fmt.Errorf("state %s: %w", state, errUnexpectedConfig)
	}
	return nil
}

func (c *BeanLifecycleBDDContext) shutdownShouldReportACloseFailureForBean(name string) error {
	var closeErr *ClosePhaseError
	if !errors.As(c.shutdownErr, &closeErr) || closeErr.Bean != name {
		return errExpectedCloseFailure
	}
	return nil
}

func (c *BeanLifecycleBDDContext) beanShouldNotHaveBeenActive(name string) error {
	p, ok := c.trackers[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, errBeanMissing)
	}
	if p.inits.Load()+p.runs.Load()+p.closes.Load() != 0 {
		return fmt.Errorf("%s: %w", name, errBeanWasActive)
	}
	return nil
}

// InitializeBeanLifecycleScenario wires the bean lifecycle steps.
func InitializeBeanLifecycleScenario(ctx *godog.ScenarioContext) {
	testCtx := &BeanLifecycleBDDContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.provider != nil {
			_ = testCtx.provider.Shutdown(context.Background())
		}
		return ctx, nil
	})

	// Setup steps
	ctx.Step(`^I have a new bean builder$`, testCtx.iHaveANewBeanBuilder)
	ctx.Step(`^a bean "([^"]*)" with no lifecycle options$`, testCtx.aBeanWithNoLifecycleOptions)
	ctx.Step(`^the reference fixture beans$`, testCtx.theReferenceFixtureBeans)
	ctx.Step(`^a recording bean "([^"]*)" with init order (\d+)$`, testCtx.aRecordingBeanWithInitOrder)
	ctx.Step(`^a recording bean "([^"]*)" with close order (\d+)$`, testCtx.aRecordingBeanWithCloseOrder)
	ctx.Step(`^a bean "([^"]*)" whose init fails with order (\d+)$`, testCtx.aBeanWhoseInitFailsWithOrder)
	ctx.Step(`^a bean "([^"]*)" whose close fails with order (\d+)$`, testCtx.aBeanWhoseCloseFailsWithOrder)
	ctx.Step(`^a recording bean "([^"]*)" with every phase disabled$`, testCtx.aRecordingBeanWithEveryPhaseDisabled)

	// Lifecycle steps
	ctx.Step(`^I initialize the provider$`, testCtx.iInitializeTheProvider)
	ctx.Step(`^I try to initialize the provider$`, testCtx.iTryToInitializeTheProvider)
	ctx.Step(`^I shut down the provider$`, testCtx.iShutDownTheProvider)

	// Config steps
	ctx.Step(`^bean "([^"]*)" should have init enabled with order (\d+)$`, testCtx.beanShouldHaveInitEnabledWithOrder)
	ctx.Step(`^bean "([^"]*)" should have run enabled with delay (\d+) and period (\d+) in seconds$`, testCtx.beanShouldHaveRunEnabledWithDelayAndPeriodInSeconds)
	ctx.Step(`^bean "([^"]*)" should have close enabled with order (\d+)$`, testCtx.beanShouldHaveCloseEnabledWithOrder)

	// Lookup steps
	ctx.Step(`^the registry should contain (\d+) beans$`, testCtx.theRegistryShouldContainBeans)
	ctx.Step(`^looking up "([^"]*)" as an int should return (\d+)$`, testCtx.lookingUpAsAnIntShouldReturn)
	ctx.Step(`^looking up "([^"]*)" as a string should return nothing$`, testCtx.lookingUpAsAStringShouldReturnNothing)
	ctx.Step(`^looking up "([^"]*)" as a list of ints should return nothing$`, testCtx.lookingUpAsAListOfIntsShouldReturnNothing)
	ctx.Step(`^looking up "([^"]*)" as a list of strings should return (\d+) elements$`, testCtx.lookingUpAsAListOfStringsShouldReturnElements)

	// Ordering and failure steps
	ctx.Step(`^the init actions should have run in order "([^"]*)"$`, testCtx.theInitActionsShouldHaveRunInOrder)
	ctx.Step(`^the close actions should have run in order "([^"]*)"$`, testCtx.theCloseActionsShouldHaveRunInOrder)
	ctx.Step(`^initialization should fail for bean "([^"]*)" at position (\d+)$`, testCtx.initializationShouldFailForBeanAtPosition)
	ctx.Step(`^the provider should be closed$`, testCtx.theProviderShouldBeClosed)
	ctx.Step(`^shutdown should report a close failure for bean "([^"]*)"$`, testCtx.shutdownShouldReportACloseFailureForBean)
	ctx.Step(`^bean "([^"]*)" should not have been initialized, run or closed$`, testCtx.beanShouldNotHaveBeenActive)
}

// TestBeanLifecycle runs the BDD tests for the bean lifecycle
func TestBeanLifecycle(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeBeanLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/bean_lifecycle.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

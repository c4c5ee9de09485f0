package dihelper

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type Color struct {
	Name string
}

// fixtureBuilder declares the reference bean set: seven beans of distinct
// declared types, with redColor customised.
func fixtureBuilder() *Builder {
	b := NewBuilder()
	Provide[Fruit](b, "apple", &Apple{})
	Provide(b, "red", "red")
	Provide(b, "redColor", Color{Name: "red"},
		WithInitConfig(InitConfig{Enabled: false, Order: 1}),
		DisableRun(),
		WithCloseConfig(CloseConfig{Enabled: false, Order: 3}),
	)
	Provide(b, "text", "Hello World !")
	Provide(b, "textList", []string{"Hello", "World", "!"})
	Provide(b, "numbers", []int{1, 2, 3})
	Provide(b, "sum", 6)
	return b
}

// journal records lifecycle calls in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// tracker is a bean value counting its lifecycle calls.
type tracker struct {
	name    string
	journal *journal
	inits   atomic.Int32
	runs    atomic.Int32
	closes  atomic.Int32

	initErr  error
	runErr   error
	closeErr error

	mu       sync.Mutex
	runTimes []time.Time
}

func newTracker(name string, j *journal) *tracker {
	return &tracker{name: name, journal: j}
}

func (p *tracker) Init(context.Context) error {
	p.inits.Add(1)
	if p.journal != nil {
		p.journal.add("init:" + p.name)
	}
	return p.initErr
}

func (p *tracker) Run(context.Context) error {
	p.mu.Lock()
	p.runTimes = append(p.runTimes, time.Now())
	p.mu.Unlock()
	p.runs.Add(1)
	if p.journal != nil {
		p.journal.add("run:" + p.name)
	}
	return p.runErr
}

func (p *tracker) Close(context.Context) error {
	p.closes.Add(1)
	if p.journal != nil {
		p.journal.add("close:" + p.name)
	}
	return p.closeErr
}

func (p *tracker) fireTimes() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Time(nil), p.runTimes...)
}

func newTestProvider(t *testing.T, b *Builder, opts ...ProviderOption) *BeanProvider {
	t.Helper()
	opts = append([]ProviderOption{WithLogger(newTestLogger(t))}, opts...)
	p, err := NewBeanProvider(b, opts...)
	require.NoError(t, err)
	return p
}

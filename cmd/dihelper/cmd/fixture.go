package cmd

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/GoCodeAlone/dihelper"
)

var errUnsupportedConfigFormat = errors.New("unsupported config file format")

// Fruit is the declared type of the "apple" bean.
type Fruit interface {
	Color() string
}

// Apple is a Fruit.
type Apple struct{}

func (a *Apple) Color() string {
	return "red"
}

// Color is the value of the "redColor" bean.
type Color struct {
	Name string `json:"name"`
}

// Heartbeat logs a beat on every run of the "heartbeat" bean.
type Heartbeat struct {
	logger dihelper.Logger
	beats  atomic.Int64
}

func (h *Heartbeat) Init(context.Context) error {
	h.logger.Info("Heartbeat ready")
	return nil
}

func (h *Heartbeat) Run(context.Context) error {
	h.logger.Info("Heartbeat", "beat", h.beats.Add(1))
	return nil
}

func (h *Heartbeat) Close(context.Context) error {
	h.logger.Info("Heartbeat stopped", "beats", h.beats.Load())
	return nil
}

// Beats returns the number of runs so far.
func (h *Heartbeat) Beats() int64 {
	return h.beats.Load()
}

// ReferenceBeans declares the demo bean set: seven plain beans, redColor
// left out of every phase, and a heartbeat firing every ten seconds.
func ReferenceBeans(logger dihelper.Logger) *dihelper.Builder {
	b := dihelper.NewBuilder()
	dihelper.Provide[Fruit](b, "apple", &Apple{})
	dihelper.Provide(b, "red", "red")
	dihelper.Provide(b, "redColor", Color{Name: "red"},
		dihelper.WithInitConfig(dihelper.InitConfig{Enabled: false, Order: 1}),
		dihelper.DisableRun(),
		dihelper.WithCloseConfig(dihelper.CloseConfig{Enabled: false, Order: 3}),
	)
	dihelper.Provide(b, "text", "Hello World !")
	dihelper.Provide(b, "textList", []string{"Hello", "World", "!"})
	dihelper.Provide(b, "numbers", []int{1, 2, 3})
	dihelper.Provide(b, "sum", 6)
	dihelper.Provide(b, "heartbeat", &Heartbeat{logger: logger},
		dihelper.WithSchedule(0, 10, dihelper.Seconds),
	)
	return b
}

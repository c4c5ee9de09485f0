// Package introspect exposes a bean provider over HTTP: the registered
// beans with their lifecycle settings, run history and the container state.
package introspect

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/GoCodeAlone/dihelper"
	"github.com/GoCodeAlone/dihelper/lifecycle"
	"github.com/GoCodeAlone/dihelper/scheduler"
	"github.com/go-chi/chi/v5"
)

// Provider is the read-only view of a container the handler needs.
// *dihelper.BeanProvider implements it.
type Provider interface {
	Beans() []dihelper.Definition
	State() lifecycle.State
	RunHistory(name string) []scheduler.JobExecution
	NextRun(name string) time.Time
	GetObservers() []dihelper.ObserverInfo
}

// TypeView describes a declared bean type.
type TypeView struct {
	Name string     `json:"name"`
	Base string     `json:"base"`
	Args []TypeView `json:"args,omitempty"`
}

// BeanView is the JSON form of a registered bean.
type BeanView struct {
	Name  string               `json:"name"`
	Type  TypeView             `json:"type"`
	Init  dihelper.InitConfig  `json:"init"`
	Run   dihelper.RunConfig   `json:"run"`
	Close dihelper.CloseConfig `json:"close"`
}

// BeanDetail adds run diagnostics to BeanView.
type BeanDetail struct {
	BeanView
	NextRun *time.Time               `json:"nextRun,omitempty"`
	History []scheduler.JobExecution `json:"history"`
}

// LifecycleView reports the container state.
type LifecycleView struct {
	State     string                  `json:"state"`
	Beans     int                     `json:"beans"`
	Observers []dihelper.ObserverInfo `json:"observers"`
}

// Option configures the handler.
type Option func(*handler)

// WithMetrics mounts the observer's registry on /metrics.
func WithMetrics(m *MetricsObserver) Option {
	return func(h *handler) { h.metrics = m }
}

// WithLogger sets the logger for encoding failures.
func WithLogger(logger dihelper.Logger) Option {
	return func(h *handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

type handler struct {
	provider Provider
	metrics  *MetricsObserver
	logger   dihelper.Logger
}

// NewHandler returns a router serving:
//
//	GET /beans          registered beans in registration order
//	GET /beans/{name}   one bean with its run history
//	GET /lifecycle      container state and observers
//	GET /metrics        Prometheus metrics, with WithMetrics
func NewHandler(provider Provider, opts ...Option) http.Handler {
	h := &handler{provider: provider, logger: dihelper.NopLogger()}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Get("/beans", h.handleListBeans)
	r.Get("/beans/{name}", h.handleGetBean)
	r.Get("/lifecycle", h.handleLifecycle)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	return r
}

func (h *handler) handleListBeans(w http.ResponseWriter, r *http.Request) {
	defs := h.provider.Beans()
	views := make([]BeanView, 0, len(defs))
	for _, def := range defs {
		views = append(views, beanView(def))
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"beans": views,
		"count": len(views),
	})
}

func (h *handler) handleGetBean(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	for _, def := range h.provider.Beans() {
		if def.Name() != name {
			continue
		}

		detail := BeanDetail{
			BeanView: beanView(def),
			History:  h.provider.RunHistory(name),
		}
		if detail.History == nil {
			detail.History = []scheduler.JobExecution{}
		}
		if next := h.provider.NextRun(name); !next.IsZero() {
			detail.NextRun = &next
		}
		h.writeJSON(w, http.StatusOK, detail)
		return
	}

	http.Error(w, "Bean not found", http.StatusNotFound)
}

func (h *handler) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, LifecycleView{
		State:     h.provider.State().String(),
		Beans:     len(h.provider.Beans()),
		Observers: h.provider.GetObservers(),
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func beanView(def dihelper.Definition) BeanView {
	return BeanView{
		Name:  def.Name(),
		Type:  typeView(def.Type()),
		Init:  def.InitConfig(),
		Run:   def.RunConfig(),
		Close: def.CloseConfig(),
	}
}

func typeView(d dihelper.TypeDescriptor) TypeView {
	view := TypeView{Name: d.String(), Base: d.Base()}
	for _, arg := range d.Args() {
		view.Args = append(view.Args, typeView(arg))
	}
	// Generic arguments are only known by name.
	for _, name := range d.TypeArgNames() {
		view.Args = append(view.Args, TypeView{Name: name})
	}
	return view
}

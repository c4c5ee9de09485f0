package dihelper

import (
	"context"
	"slices"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is notified of bean lifecycle events.
type Observer interface {
	// OnEvent is called synchronously from the goroutine that produced the
	// event. Observers should return quickly; errors are logged and dropped.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// Subject is implemented by BeanProvider.
type Subject interface {
	// RegisterObserver adds an observer. With no eventTypes the observer
	// receives every event.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. It is idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers event to every interested observer.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers describes the registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// CloudEvent types emitted by the container.
const (
	EventTypeBeanInitialized  = "com.dihelper.bean.initialized"
	EventTypeBeanInitFailed   = "com.dihelper.bean.init_failed"
	EventTypeBeanRunSucceeded = "com.dihelper.bean.run_succeeded"
	EventTypeBeanRunFailed    = "com.dihelper.bean.run_failed"
	EventTypeBeanClosed       = "com.dihelper.bean.closed"
	EventTypeBeanCloseFailed  = "com.dihelper.bean.close_failed"

	EventTypeProviderInitialized     = "com.dihelper.provider.initialized"
	EventTypeProviderShutdownStarted = "com.dihelper.provider.shutdown_started"
	EventTypeProviderClosed          = "com.dihelper.provider.closed"
)

// FunctionalObserver adapts a function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer backed by handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// eventSubject is the Subject implementation shared by the provider. Observers
// are called in registration order.
type eventSubject struct {
	mu        sync.RWMutex
	observers []*observerRegistration
	logger    Logger
}

func (s *eventSubject) RegisterObserver(observer Observer, eventTypes ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}

	reg := &observerRegistration{
		observer:     observer,
		eventTypes:   types,
		registeredAt: time.Now(),
	}

	idx := slices.IndexFunc(s.observers, func(r *observerRegistration) bool {
		return r.observer.ObserverID() == observer.ObserverID()
	})
	if idx >= 0 {
		s.observers[idx] = reg
	} else {
		s.observers = append(s.observers, reg)
	}

	s.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

func (s *eventSubject) UnregisterObserver(observer Observer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = slices.DeleteFunc(s.observers, func(r *observerRegistration) bool {
		return r.observer.ObserverID() == observer.ObserverID()
	})
	return nil
}

func (s *eventSubject) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		s.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	s.mu.RLock()
	observers := slices.Clone(s.observers)
	s.mu.RUnlock()

	for _, reg := range observers {
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}
		s.deliver(ctx, reg.observer, event)
	}
	return nil
}

func (s *eventSubject) deliver(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Observer panicked", "observerID", observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()

	if err := observer.OnEvent(ctx, event); err != nil {
		s.logger.Error("Observer error", "observerID", observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

func (s *eventSubject) GetObservers() []ObserverInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := make([]ObserverInfo, 0, len(s.observers))
	for _, reg := range s.observers {
		types := make([]string, 0, len(reg.eventTypes))
		for t := range reg.eventTypes {
			types = append(types, t)
		}
		slices.Sort(types)
		info = append(info, ObserverInfo{
			ID:           reg.observer.ObserverID(),
			EventTypes:   types,
			RegisteredAt: reg.registeredAt,
		})
	}
	return info
}

// emit builds and delivers an event sourced from the container.
func (s *eventSubject) emit(ctx context.Context, eventType string, data any) {
	s.mu.RLock()
	empty := len(s.observers) == 0
	s.mu.RUnlock()
	if empty {
		return
	}

	event := NewCloudEvent(eventType, "dihelper", data, nil)
	if err := s.NotifyObservers(ctx, event); err != nil {
		s.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}

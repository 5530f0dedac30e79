package tn5250

import "sync"

// EventHook is a function pointer registered to receive events
type EventHook[T any] func(data T)

// EventPublisher is used to register and fire arbitrary events
type EventPublisher[U any] struct {
	lock sync.Mutex

	registeredHooks []EventHook[U]
}

// NewPublisher creates a new EventPublisher for a particular EventHook. A
// slice of hooks can be passed in, in which case the hooks will be
// registered to receive events from the publisher. Otherwise nil can be
// passed in.
func NewPublisher[U any, T ~func(data U)](hooks []T) *EventPublisher[U] {
	var convertedHooks []EventHook[U]

	for _, hook := range hooks {
		convertedHooks = append(convertedHooks, EventHook[U](hook))
	}

	return &EventPublisher[U]{
		registeredHooks: convertedHooks,
	}
}

// Register registers a single EventHook to receive events from this
// publisher.
func (e *EventPublisher[U]) Register(hook EventHook[U]) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.registeredHooks = append(e.registeredHooks, hook)
}

// Fire calls the event for all EventHook instances registered to this
// publisher with the provided data
func (e *EventPublisher[U]) Fire(eventData U) {
	e.lock.Lock()
	defer e.lock.Unlock()

	for _, hook := range e.registeredHooks {
		hook(eventData)
	}
}

// StateChangeEvent is fired when a connection moves between lifecycle
// states.
type StateChangeEvent struct {
	OldState ConnState
	NewState ConnState
}

// StateChangeHandler is an event hook type that receives state transitions
type StateChangeHandler func(event StateChangeEvent)

// ErrorHandler is an event hook type that receives errors
type ErrorHandler func(err error)

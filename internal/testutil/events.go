package testutil

import (
	"sync"
	"time"

	"github.com/kirti676/api-tester-mcp/internal/events"
)

// EventCollector is a thread-safe event collector for test assertions.
// Subscribe it to an event bus and then query collected events.
type EventCollector struct {
	mu      sync.Mutex
	events  []events.Event
	states  map[string][]events.LaunchState
	signals map[string][]string
	cond    *sync.Cond
}

// NewEventCollector creates a new EventCollector.
func NewEventCollector() *EventCollector {
	ec := &EventCollector{
		states:  make(map[string][]events.LaunchState),
		signals: make(map[string][]string),
	}
	ec.cond = sync.NewCond(&ec.mu)
	return ec
}

// Handler returns a function suitable for bus.Subscribe().
func (c *EventCollector) Handler(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, e)

	switch evt := e.(type) {
	case events.StateChangedEvent:
		c.states[evt.LaunchID()] = append(c.states[evt.LaunchID()], evt.NewState)
	case events.SignalRelayedEvent:
		c.signals[evt.LaunchID()] = append(c.signals[evt.LaunchID()], evt.Signal)
	}

	c.cond.Broadcast()
}

// Events returns all collected events.
func (c *EventCollector) Events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]events.Event, len(c.events))
	copy(result, c.events)
	return result
}

// StatesFor returns all states observed for a launch ID.
func (c *EventCollector) StatesFor(launchID string) []events.LaunchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]events.LaunchState, len(c.states[launchID]))
	copy(result, c.states[launchID])
	return result
}

// SignalsFor returns the names of signals relayed for a launch ID.
func (c *EventCollector) SignalsFor(launchID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]string, len(c.signals[launchID]))
	copy(result, c.signals[launchID])
	return result
}

// WaitForState blocks until the launch reaches the given state or the timeout expires.
// Returns true if the state was observed.
func (c *EventCollector) WaitForState(launchID string, state events.LaunchState, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	// sync.Cond has no timed wait; wake waiters when the deadline passes
	timer := time.AfterFunc(timeout, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		for _, s := range c.states[launchID] {
			if s == state {
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		c.cond.Wait()
	}
}

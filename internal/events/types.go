// Package events provides the launch lifecycle events of the supervisor.
package events

import (
	"time"
)

// LaunchState is a state of the supervisor's launch state machine.
// States only ever move forward; none is revisited.
type LaunchState int

const (
	StateIdle LaunchState = iota
	StateResolvingInterpreter
	StateCheckingDependencies
	StateInstallingDependencies
	StateLaunched
	StateRelaying
	StateExited
	StateFailed
)

func (s LaunchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingInterpreter:
		return "resolving-interpreter"
	case StateCheckingDependencies:
		return "checking-dependencies"
	case StateInstallingDependencies:
		return "installing-dependencies"
	case StateLaunched:
		return "launched"
	case StateRelaying:
		return "relaying"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for Exited and Failed.
func (s LaunchState) IsTerminal() bool {
	return s == StateExited || s == StateFailed
}

// ExitInfo describes how the child process ended.
type ExitInfo struct {
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
}

// EventType identifies the kind of event.
type EventType int

const (
	EventStateChanged EventType = iota
	EventSignalRelayed
	EventError
)

func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventSignalRelayed:
		return "signal_relayed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	LaunchID() string
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	launchID  string
	timestamp time.Time
}

func (e baseEvent) LaunchID() string     { return e.launchID }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// StateChangedEvent is emitted on every state machine transition.
type StateChangedEvent struct {
	baseEvent
	OldState LaunchState
	NewState LaunchState
	// Detail is a short human-readable note (interpreter path, failure reason...).
	Detail string
	PID    int
	Exit   *ExitInfo
}

func (e StateChangedEvent) Type() EventType { return EventStateChanged }

// NewStateChangedEvent creates a new state changed event.
func NewStateChangedEvent(launchID string, oldState, newState LaunchState, detail string) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: baseEvent{launchID: launchID, timestamp: time.Now()},
		OldState:  oldState,
		NewState:  newState,
		Detail:    detail,
	}
}

// SignalRelayedEvent is emitted when a signal received by the supervisor
// has been forwarded to the child.
type SignalRelayedEvent struct {
	baseEvent
	Signal string
	PID    int
	Err    error
}

func (e SignalRelayedEvent) Type() EventType { return EventSignalRelayed }

// NewSignalRelayedEvent creates a new signal relayed event.
func NewSignalRelayedEvent(launchID, signal string, pid int, err error) SignalRelayedEvent {
	return SignalRelayedEvent{
		baseEvent: baseEvent{launchID: launchID, timestamp: time.Now()},
		Signal:    signal,
		PID:       pid,
		Err:       err,
	}
}

// ErrorEvent is emitted when an error occurs.
type ErrorEvent struct {
	baseEvent
	Err     error
	Message string
}

func (e ErrorEvent) Type() EventType { return EventError }

// NewErrorEvent creates a new error event.
func NewErrorEvent(launchID string, err error, message string) ErrorEvent {
	return ErrorEvent{
		baseEvent: baseEvent{launchID: launchID, timestamp: time.Now()},
		Err:       err,
		Message:   message,
	}
}

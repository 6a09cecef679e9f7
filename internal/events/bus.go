package events

import (
	"log"
	"slices"
	"sync"
)

// queueSize bounds the events waiting for dispatch. A launch produces fewer
// than a dozen, so the queue only fills if a handler stalls.
const queueSize = 64

// Handler receives dispatched events on the bus goroutine.
type Handler func(Event)

// Bus delivers launch events to subscribers on a single goroutine, in
// publish order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int

	queue   chan Event
	closing chan struct{}
	drained chan struct{}
	once    sync.Once
}

// NewBus starts a bus.
func NewBus() *Bus {
	b := &Bus{
		handlers: make(map[int]Handler),
		queue:    make(chan Event, queueSize),
		closing:  make(chan struct{}),
		drained:  make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Bus) loop() {
	defer close(b.drained)
	for {
		select {
		case evt := <-b.queue:
			b.dispatch(evt)
		case <-b.closing:
			b.flush()
			return
		}
	}
}

// flush dispatches whatever was queued before Close.
func (b *Bus) flush() {
	for {
		select {
		case evt := <-b.queue:
			b.dispatch(evt)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	// Subscription order
	slices.Sort(ids)
	for _, id := range ids {
		b.mu.RLock()
		h := b.handlers[id]
		b.mu.RUnlock()
		if h != nil {
			h(evt)
		}
	}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish queues evt without blocking. A full queue drops the event; a nil
// bus discards it.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	select {
	case <-b.closing:
		log.Printf("events: bus closed, dropping %s for launch %s", evt.Type(), evt.LaunchID())
		return
	default:
	}
	select {
	case b.queue <- evt:
	default:
		log.Printf("events: queue full, dropping %s for launch %s", evt.Type(), evt.LaunchID())
	}
}

// Close stops the bus after dispatching every event already queued, so the
// final state of a launch reaches the subscribers before the process exits.
// Calling it again is a no-op.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.once.Do(func() { close(b.closing) })
	<-b.drained
}

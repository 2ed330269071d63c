package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type identifies a kind of event.
type Type string

const (
	SessionCreated Type = "session.created"
	SessionUpdated Type = "session.updated"
	MessageCreated Type = "message.created"

	// ChatStateChanged fires on every controller transition.
	ChatStateChanged Type = "chat.state.changed"
	ChatRetry        Type = "chat.retry"
	ChatAccepted     Type = "chat.accepted"
	ChatFailed       Type = "chat.failed"

	DocumentUpdated Type = "document.updated"
	FileEdited      Type = "file.edited"
)

// Event is a typed payload published on the bus.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Subscriber receives published events.
type Subscriber func(Event)

type entry struct {
	id uint64
	fn Subscriber
}

// Bus fans events out to subscribers. Watermill's gochannel backs the bus so
// the transport can later be swapped for a distributed one; direct subscriber
// dispatch keeps payload types intact.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	byType map[Type][]entry
	all    []entry

	nextID uint64
	closed bool
	cancel context.CancelFunc
}

var globalBus = NewBus()

// NewBus creates an event bus.
func NewBus() *Bus {
	_, cancel := context.WithCancel(context.Background())
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		byType: make(map[Type][]entry),
		cancel: cancel,
	}
}

// Subscribe registers a subscriber for one event type on the global bus.
// The returned function unsubscribes.
func Subscribe(t Type, fn Subscriber) func() {
	return globalBus.Subscribe(t, fn)
}

func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := atomic.AddUint64(&b.nextID, 1)
	b.byType[t] = append(b.byType[t], entry{id: id, fn: fn})

	return func() { b.remove(t, id) }
}

// SubscribeAll registers a subscriber for every event on the global bus.
func SubscribeAll(fn Subscriber) func() {
	return globalBus.SubscribeAll(fn)
}

func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := atomic.AddUint64(&b.nextID, 1)
	b.all = append(b.all, entry{id: id, fn: fn})

	return func() { b.removeAll(id) }
}

func (b *Bus) remove(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.byType[t]
	for i, e := range subs {
		if e.id == id {
			b.byType[t] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) removeAll(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.all {
		if e.id == id {
			b.all = append(b.all[:i], b.all[i+1:]...)
			return
		}
	}
}

func (b *Bus) collect(t Type) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	subs := make([]Subscriber, 0, len(b.byType[t])+len(b.all))
	for _, e := range b.byType[t] {
		subs = append(subs, e.fn)
	}
	for _, e := range b.all {
		subs = append(subs, e.fn)
	}
	return subs
}

// Publish delivers an event asynchronously, one goroutine per subscriber.
func Publish(ev Event) {
	globalBus.Publish(ev)
}

func (b *Bus) Publish(ev Event) {
	for _, fn := range b.collect(ev.Type) {
		go fn(ev)
	}
}

// PublishSync delivers an event in the caller's goroutine, in order.
func PublishSync(ev Event) {
	globalBus.PublishSync(ev)
}

func (b *Bus) PublishSync(ev Event) {
	for _, fn := range b.collect(ev.Type) {
		fn(ev)
	}
}

// Close shuts the bus down; further subscriptions are no-ops.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.cancel()
	b.byType = make(map[Type][]entry)
	b.all = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}

// Reset replaces the global bus, dropping all subscribers. Test helper.
func Reset() {
	old := globalBus
	globalBus = NewBus()
	_ = old.Close()
}

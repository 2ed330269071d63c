package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscribePublishSync(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []Event
	bus.Subscribe(ChatAccepted, func(ev Event) {
		got = append(got, ev)
	})

	bus.PublishSync(Event{Type: ChatAccepted, Data: ChatAcceptedData{SessionID: "s1"}})
	bus.PublishSync(Event{Type: ChatFailed, Data: ChatFailedData{SessionID: "s1"}})

	assert.Len(t, got, 1)
	assert.Equal(t, ChatAccepted, got[0].Type)
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int
	bus.SubscribeAll(func(Event) { count++ })

	bus.PublishSync(Event{Type: SessionCreated})
	bus.PublishSync(Event{Type: DocumentUpdated})
	bus.PublishSync(Event{Type: FileEdited})

	assert.Equal(t, 3, count)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int
	unsub := bus.Subscribe(ChatRetry, func(Event) { count++ })

	bus.PublishSync(Event{Type: ChatRetry})
	unsub()
	bus.PublishSync(Event{Type: ChatRetry})

	assert.Equal(t, 1, count)
}

func TestPublishAsync(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var mu sync.Mutex
	var count int
	done := make(chan struct{})
	bus.Subscribe(ChatStateChanged, func(Event) {
		mu.Lock()
		count++
		if count == 2 {
			close(done)
		}
		mu.Unlock()
	})

	bus.Publish(Event{Type: ChatStateChanged})
	bus.Publish(Event{Type: ChatStateChanged})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async subscribers not called")
	}
}

func TestClosedBusDropsEverything(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Close())

	var count int
	unsub := bus.Subscribe(ChatAccepted, func(Event) { count++ })
	bus.PublishSync(Event{Type: ChatAccepted})
	unsub()

	assert.Zero(t, count)
	assert.NoError(t, bus.Close())
}

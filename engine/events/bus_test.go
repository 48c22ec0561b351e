package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus[LoadingProgress]()
	var order []int
	bus.Subscribe(func(LoadingProgress) { order = append(order, 1) })
	bus.Subscribe(func(LoadingProgress) { order = append(order, 2) })
	bus.Subscribe(func(LoadingProgress) { order = append(order, 3) })

	bus.Publish(LoadingProgress{Phase: "environment", LoadedCount: 1, TotalCount: 8})
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus[Degrade]()
	calls := 0
	cancel := bus.Subscribe(func(Degrade) { calls++ })

	bus.Publish(Degrade{Kind: DegradeLowFPS})
	cancel()
	cancel() // second call is a no-op
	bus.Publish(Degrade{Kind: DegradeDropLevel})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBusUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus[ContextHealth]()
	var cancel func()
	first := 0
	cancel = bus.Subscribe(func(ContextHealth) {
		first++
		cancel()
	})
	second := 0
	bus.Subscribe(func(ContextHealth) { second++ })

	bus.Publish(ContextHealth{State: ContextLost, LossCount: 1})
	bus.Publish(ContextHealth{State: ContextRestored, LossCount: 1})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus[int]()
	var mu sync.Mutex
	total := 0
	bus.Subscribe(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				bus.Publish(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, total)
}

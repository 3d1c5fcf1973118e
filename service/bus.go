package service

import (
	"sync"
	"sync/atomic"
)

// Bus fans committed events out to in-process subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the event, and the
// miss is counted.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	dropped atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(events ...Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
				b.dropped.Add(1)
			}
		}
	}
}

func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

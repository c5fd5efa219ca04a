// Package events implements the in-process notification bus the sync layer
// publishes batch lifecycle events on.
package events

import (
	"sync"

	"github.com/walletscope/assetcache/internal/domain"
)

// SyncDetails describes the progress of one batch inside a sync run.
type SyncDetails struct {
	// Count is how many rows the batch carried.
	Count int
	// Total is how many rows the whole run started with.
	Total int
	// Round is the 1-based batch index within the run.
	Round int
	// BatchSize is the run's configured batch size.
	BatchSize int
}

// RemoteDataUpserted is published after each batch write attempt. Aborted
// runs stop publishing from the abort point onward.
type RemoteDataUpserted struct {
	TaskKind  domain.TaskKind
	OwnerAddr string
	Details   SyncDetails
	// Success is false when the batch write failed.
	Success bool
}

// Handler consumes one event. Dispatch is synchronous on the publisher's
// goroutine; handlers must not block.
type Handler func(RemoteDataUpserted)

type subscription struct {
	kinds   map[domain.TaskKind]struct{}
	handler Handler
}

// Bus is a task-kind filtered publish/subscribe hub. Subscribing and
// unsubscribing during dispatch is safe; the in-flight dispatch keeps using
// the subscriber snapshot it started with.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*subscription)}
}

// Subscribe registers handler for the given task kinds and returns an
// unsubscribe function. With no kinds the handler receives every event
// except those carrying the reserved unknown kind.
func (b *Bus) Subscribe(handler Handler, kinds ...domain.TaskKind) func() {
	sub := &subscription{handler: handler}
	if len(kinds) > 0 {
		sub.kinds = make(map[domain.TaskKind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = sub
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers ev synchronously to every matching subscriber. Events
// carrying the reserved unknown kind are dropped.
func (b *Bus) Publish(ev RemoteDataUpserted) {
	if ev.TaskKind == domain.TaskUnknown {
		return
	}

	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.kinds != nil {
			if _, ok := sub.kinds[ev.TaskKind]; !ok {
				continue
			}
		}
		matched = append(matched, sub.handler)
	}
	b.mu.RUnlock()

	for _, h := range matched {
		h(ev)
	}
}

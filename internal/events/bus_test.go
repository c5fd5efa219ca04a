package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walletscope/assetcache/internal/domain"
)

func TestBusFiltersByTaskKind(t *testing.T) {
	bus := NewBus()

	var tokenEvents, historyEvents, allEvents []RemoteDataUpserted
	bus.Subscribe(func(ev RemoteDataUpserted) {
		tokenEvents = append(tokenEvents, ev)
	}, domain.TaskTokens)
	bus.Subscribe(func(ev RemoteDataUpserted) {
		historyEvents = append(historyEvents, ev)
	}, domain.TaskHistory, domain.TaskLocalHistory)
	bus.Subscribe(func(ev RemoteDataUpserted) {
		allEvents = append(allEvents, ev)
	})

	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskTokens, OwnerAddr: "0xa", Success: true})
	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskHistory, OwnerAddr: "0xa", Success: true})
	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskLocalHistory, OwnerAddr: "0xa", Success: true})

	assert.Len(t, tokenEvents, 1)
	assert.Len(t, historyEvents, 2)
	assert.Len(t, allEvents, 3)
}

func TestBusUnknownKindNeverDelivered(t *testing.T) {
	bus := NewBus()

	delivered := 0
	bus.Subscribe(func(RemoteDataUpserted) { delivered++ })
	bus.Subscribe(func(RemoteDataUpserted) { delivered++ }, domain.TaskUnknown)

	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskUnknown, OwnerAddr: "0xa"})

	assert.Zero(t, delivered)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	unsubscribe := bus.Subscribe(func(RemoteDataUpserted) { count++ }, domain.TaskTokens)

	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskTokens})
	unsubscribe()
	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskTokens})

	assert.Equal(t, 1, count)
}

func TestBusMutationDuringDispatch(t *testing.T) {
	bus := NewBus()

	var added bool
	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(RemoteDataUpserted) {
		// Subscribing and unsubscribing mid-dispatch must not deadlock or
		// affect the in-flight event.
		bus.Subscribe(func(RemoteDataUpserted) { added = true }, domain.TaskTokens)
		unsubscribe()
	}, domain.TaskTokens)

	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskTokens})
	assert.False(t, added)

	bus.Publish(RemoteDataUpserted{TaskKind: domain.TaskTokens})
	assert.True(t, added)
}

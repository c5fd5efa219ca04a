package syncer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/events"
	"github.com/walletscope/assetcache/internal/store"
	"github.com/walletscope/assetcache/internal/store/schema"
)

const taskTestOwner = "0xcccc000000000000000000000000000000000003"

func newTestSyncer(t *testing.T) (*Syncer, *store.Store, *events.Bus, *adapter.ManualClock) {
	t.Helper()
	clock := adapter.NewManualClock(time.Unix(1700000000, 0))
	st, err := store.Open(store.Config{
		Path:   filepath.Join(t.TempDir(), "cache.db"),
		Expiry: store.DefaultExpiry(),
	}, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	bus := events.NewBus()
	return New(st, bus, clock), st, bus, clock
}

func tokenRows(owner string, ids ...string) []*schema.TokenRow {
	rows := make([]*schema.TokenRow, len(ids))
	for i, id := range ids {
		row := schema.FillToken(owner, domain.TokenItem{ID: id, Chain: "ethereum", Amount: 1, Price: 10})
		rows[i] = &row
	}
	return rows
}

func TestBatchSaveWritesAllRows(t *testing.T) {
	for _, tc := range []struct {
		name            string
		disablePrepared bool
	}{
		{"prepared statements", false},
		{"bulk upserts", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sy, st, bus, _ := newTestSyncer(t)
			ctx := context.Background()

			var mu sync.Mutex
			var got []events.RemoteDataUpserted
			bus.Subscribe(func(ev events.RemoteDataUpserted) {
				mu.Lock()
				got = append(got, ev)
				mu.Unlock()
			}, domain.TaskTokens)

			rows := tokenRows(taskTestOwner, "a", "b", "c", "d", "e")
			handle, err := BatchSave(ctx, sy, &rows, Options{
				TaskKind:        domain.TaskTokens,
				OwnerAddr:       taskTestOwner,
				BatchSize:       2,
				WaitDone:        true,
				DisablePrepared: tc.disablePrepared,
			})
			require.NoError(t, err)

			assert.True(t, handle.Completed)
			assert.False(t, handle.Aborted())
			assert.Empty(t, rows, "input is consumed as batches stage")

			count, err := st.Tokens.CountForOwner(ctx, taskTestOwner)
			require.NoError(t, err)
			assert.EqualValues(t, 5, count)

			mu.Lock()
			defer mu.Unlock()
			require.Len(t, got, 3)
			assert.Equal(t, 5, got[0].Details.Total)
			assert.Equal(t, 2, got[0].Details.BatchSize)
			for _, ev := range got {
				assert.True(t, ev.Success)
				assert.Equal(t, taskTestOwner, ev.OwnerAddr)
			}
		})
	}
}

func TestBatchSaveIdempotentReplay(t *testing.T) {
	sy, st, _, clock := newTestSyncer(t)
	ctx := context.Background()

	first := tokenRows(taskTestOwner, "a", "b")
	_, err := BatchSave(ctx, sy, &first, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner, WaitDone: true,
	})
	require.NoError(t, err)

	key := schema.DeriveKey(taskTestOwner, "a", "ethereum")
	fresh, err := st.Tokens.Get(ctx, key)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	second := tokenRows(taskTestOwner, "a", "b")
	second[0].Amount = 9
	_, err = BatchSave(ctx, sy, &second, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner, WaitDone: true, DisablePrepared: true,
	})
	require.NoError(t, err)

	count, err := st.Tokens.CountForOwner(ctx, taskTestOwner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	got, err := st.Tokens.Get(ctx, key)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, got.Amount, 0.001)
	assert.Equal(t, fresh.LocalCreatedAt, got.LocalCreatedAt,
		"replays keep the first-insert time on both write paths")
	assert.Greater(t, got.LocalUpdatedAt, fresh.LocalUpdatedAt)
}

func TestBatchSaveSupersedesPriorRun(t *testing.T) {
	sy, st, _, _ := newTestSyncer(t)
	ctx := context.Background()

	first := tokenRows(taskTestOwner, "a", "b", "c")
	h1, err := BatchSave(ctx, sy, &first, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner, BatchSize: 1,
	})
	require.NoError(t, err)

	second := tokenRows(taskTestOwner, "x", "y")
	h2, err := BatchSave(ctx, sy, &second, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner, WaitDone: true,
	})
	require.NoError(t, err)

	assert.True(t, h1.Aborted(), "new run for the same slot aborts the old one")
	assert.False(t, h2.Aborted())
	assert.True(t, h2.Completed)

	for _, id := range []string{"x", "y"} {
		_, err := st.Tokens.Get(ctx, schema.DeriveKey(taskTestOwner, id, "ethereum"))
		assert.NoError(t, err)
	}
}

func TestBatchSaveNoAbortLeavesPriorRun(t *testing.T) {
	sy, _, _, _ := newTestSyncer(t)
	ctx := context.Background()

	first := tokenRows(taskTestOwner, "a")
	h1, err := BatchSave(ctx, sy, &first, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner,
	})
	require.NoError(t, err)

	second := tokenRows(taskTestOwner, "b")
	_, err = BatchSave(ctx, sy, &second, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner, NoAbort: true, WaitDone: true,
	})
	require.NoError(t, err)

	assert.False(t, h1.Aborted())
}

func TestBatchSaveDifferentKindsRunIndependently(t *testing.T) {
	sy, _, _, _ := newTestSyncer(t)
	ctx := context.Background()

	tokens := tokenRows(taskTestOwner, "a")
	h1, err := BatchSave(ctx, sy, &tokens, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner,
	})
	require.NoError(t, err)

	row := schema.FillCex(taskTestOwner, domain.CexInfo{ID: "binance"})
	cexRows := []*schema.CexRow{&row}
	_, err = BatchSave(ctx, sy, &cexRows, Options{
		TaskKind: domain.TaskCexInfo, OwnerAddr: taskTestOwner, WaitDone: true,
	})
	require.NoError(t, err)

	assert.False(t, h1.Aborted(), "different task kinds use different slots")
}

func TestBatchSaveAbortFromEventHandler(t *testing.T) {
	sy, _, bus, _ := newTestSyncer(t)
	ctx := context.Background()

	var mu sync.Mutex
	delivered := 0
	bus.Subscribe(func(ev events.RemoteDataUpserted) {
		mu.Lock()
		delivered++
		mu.Unlock()
		// Aborting from inside a handler stops later batches and silences
		// their events.
		sy.Abort(domain.TaskTokens, taskTestOwner)
	}, domain.TaskTokens)

	rows := tokenRows(taskTestOwner, "a", "b", "c", "d", "e", "f")
	handle, err := BatchSave(ctx, sy, &rows, Options{
		TaskKind:    domain.TaskTokens,
		OwnerAddr:   taskTestOwner,
		BatchSize:   2,
		Concurrency: 1,
		WaitDone:    true,
	})
	require.NoError(t, err)

	assert.True(t, handle.Aborted())
	assert.False(t, handle.Completed, "aborted runs never report completion")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, delivered)
}

func TestBatchSaveEmptyInput(t *testing.T) {
	sy, _, bus, _ := newTestSyncer(t)

	delivered := 0
	bus.Subscribe(func(events.RemoteDataUpserted) { delivered++ })

	var rows []*schema.TokenRow
	handle, err := BatchSave(context.Background(), sy, &rows, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner, WaitDone: true,
	})
	require.NoError(t, err)
	assert.True(t, handle.Completed)
	assert.Zero(t, delivered)
}

func TestBatchSaveRequiresOwner(t *testing.T) {
	sy, _, _, _ := newTestSyncer(t)

	rows := tokenRows(taskTestOwner, "a")
	_, err := BatchSave(context.Background(), sy, &rows, Options{TaskKind: domain.TaskTokens})
	assert.ErrorIs(t, err, domain.ErrEmptyOwner)
}

func TestTaskKey(t *testing.T) {
	assert.Equal(t, "tokens-0xabc", TaskKey(domain.TaskTokens, "0xABC"))
	assert.Equal(t, string(domain.TaskUnknown)+"-0xabc", TaskKey("", "0xabc"))
}

func TestAbortAll(t *testing.T) {
	sy, _, _, _ := newTestSyncer(t)
	ctx := context.Background()

	tokens := tokenRows(taskTestOwner, "a")
	h1, err := BatchSave(ctx, sy, &tokens, Options{
		TaskKind: domain.TaskTokens, OwnerAddr: taskTestOwner,
	})
	require.NoError(t, err)

	row := schema.FillCex(taskTestOwner, domain.CexInfo{ID: "binance"})
	cexRows := []*schema.CexRow{&row}
	h2, err := BatchSave(ctx, sy, &cexRows, Options{
		TaskKind: domain.TaskCexInfo, OwnerAddr: taskTestOwner,
	})
	require.NoError(t, err)

	sy.AbortAll()
	assert.True(t, h1.Aborted())
	assert.True(t, h2.Aborted())
}

// Package syncer schedules batched cache writes. Each (task kind, owner)
// pair has at most one active run; starting a new run aborts the previous
// one unless the caller opts out. Input slices are consumed destructively so
// an aborted run leaves the unstaged remainder untouched.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/walletscope/assetcache/internal/adapter"
	"github.com/walletscope/assetcache/internal/domain"
	"github.com/walletscope/assetcache/internal/events"
	"github.com/walletscope/assetcache/internal/logger"
	"github.com/walletscope/assetcache/internal/store"
	"github.com/walletscope/assetcache/internal/store/schema"
)

const (
	defaultBatchSize   = 100
	defaultConcurrency = 1
)

// Options tunes one batched save run.
type Options struct {
	TaskKind  domain.TaskKind
	OwnerAddr string

	// BatchSize is how many rows each staged batch carries. Defaults to 100.
	BatchSize int

	// Concurrency bounds how many batches write at once. Defaults to 1.
	Concurrency int

	// Delay staggers batch staging, giving readers breathing room between
	// writes. An abort during the delay discards the pending batch.
	Delay time.Duration

	// NoAbort leaves a previous run for the same key running instead of
	// cancelling it.
	NoAbort bool

	// WaitDone blocks until every staged batch finished, making the
	// handle's Completed flag meaningful.
	WaitDone bool

	// DisablePrepared forces the bulk write path even when the entity
	// provides a prepared statement.
	DisablePrepared bool

	// BeforeEmit, when set, sees every lifecycle event before it reaches
	// the bus and may adjust it.
	BeforeEmit func(*events.RemoteDataUpserted)
}

// RunHandle describes a started run.
type RunHandle struct {
	// TaskKey identifies the run's (kind, owner) slot.
	TaskKey string

	// RunID distinguishes this run from earlier occupants of the same slot
	// in logs.
	RunID string

	// Completed is true only when WaitDone was set and every batch finished
	// without the run being aborted. Cleanup passes key off it.
	Completed bool

	token *CancelToken
}

// Aborted reports whether the run was cancelled.
func (h *RunHandle) Aborted() bool {
	return h.token.Aborted()
}

// TaskKey builds the registry key for a (kind, owner) pair. An empty kind
// maps to the reserved unknown kind.
func TaskKey(kind domain.TaskKind, owner string) string {
	if kind == "" {
		kind = domain.TaskUnknown
	}
	return string(kind) + "-" + schema.NormalizeOwner(owner)
}

// Syncer owns the run registry and the store handles the writers use.
type Syncer struct {
	store *store.Store
	bus   *events.Bus
	clock adapter.Clock

	mu   sync.Mutex
	runs map[string]*CancelToken
}

func New(st *store.Store, bus *events.Bus, clock adapter.Clock) *Syncer {
	return &Syncer{
		store: st,
		bus:   bus,
		clock: clock,
		runs:  make(map[string]*CancelToken),
	}
}

// Abort cancels the active run for one (kind, owner) slot, if any.
func (s *Syncer) Abort(kind domain.TaskKind, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.runs[TaskKey(kind, owner)]; ok {
		token.Cancel()
	}
}

// AbortOwner cancels every active run belonging to owner.
func (s *Syncer) AbortOwner(owner string) {
	for _, kind := range domain.AllTaskKinds() {
		s.Abort(kind, owner)
	}
	s.Abort(domain.TaskUnknown, owner)
}

// AbortAll cancels every active run.
func (s *Syncer) AbortAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range s.runs {
		token.Cancel()
	}
}

// register installs a fresh token for key, cancelling the previous run
// unless told not to. The registry slot is always replaced; a NoAbort run
// still becomes the current occupant.
func (s *Syncer) register(key string, noAbort bool) *CancelToken {
	token := NewCancelToken()
	s.mu.Lock()
	if prev, ok := s.runs[key]; ok && !noAbort {
		prev.Cancel()
	}
	s.runs[key] = token
	s.mu.Unlock()
	return token
}

// BatchSave stages rows into batches and writes them through the task pool.
// The input slice is consumed as batches are staged; whatever remains after
// an abort was never staged. BatchSave returns once staging finished, or
// once all writes finished when WaitDone is set.
func BatchSave[R schema.Row](ctx context.Context, s *Syncer, rows *[]R, opts Options) (*RunHandle, error) {
	kind := opts.TaskKind
	if kind == "" {
		kind = domain.TaskUnknown
	}
	owner := schema.NormalizeOwner(opts.OwnerAddr)
	if owner == "" {
		return nil, domain.ErrEmptyOwner
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	key := TaskKey(kind, owner)
	token := s.register(key, opts.NoAbort)
	handle := &RunHandle{TaskKey: key, RunID: uuid.NewString(), token: token}

	total := len(*rows)
	if total == 0 {
		handle.Completed = opts.WaitDone
		return handle, nil
	}

	log := logger.WithTask(string(kind), owner, zap.String("run_id", handle.RunID))
	var probe R = (*rows)[0]
	writer := pickWriter(s, opts.DisablePrepared, probe, log)
	pool := pond.NewPool(concurrency, pond.WithContext(ctx))

	log.Debug("starting batch save",
		zap.Int("total", total),
		zap.Int("batch_size", batchSize),
		zap.String("writer", writer.Name()))

	round := 0
	for len(*rows) > 0 {
		if token.Aborted() {
			break
		}

		n := batchSize
		if n > len(*rows) {
			n = len(*rows)
		}
		batch := (*rows)[:n]
		*rows = (*rows)[n:]
		round++

		if opts.Delay > 0 && !waitOrAbort(ctx, s.clock, opts.Delay, token) {
			// Aborted mid-delay: the dequeued batch is dropped with the run.
			break
		}
		if token.Aborted() {
			break
		}

		batchRound := round
		pool.SubmitErr(func() error {
			if token.Aborted() {
				return nil
			}

			nowMS := s.clock.Now().UnixMilli()
			for _, row := range batch {
				row.StampLocal(nowMS)
			}

			err := writer.WriteBatch(ctx, batch)
			if err != nil {
				log.Error("batch write failed", zap.Int("round", batchRound), zap.Error(err))
			}

			// An abort that landed while the batch was writing silences its
			// event; the write itself is never torn mid-batch.
			if !token.Aborted() {
				ev := events.RemoteDataUpserted{
					TaskKind:  kind,
					OwnerAddr: owner,
					Details: events.SyncDetails{
						Count:     len(batch),
						Total:     total,
						Round:     batchRound,
						BatchSize: batchSize,
					},
					Success: err == nil,
				}
				if opts.BeforeEmit != nil {
					opts.BeforeEmit(&ev)
				}
				s.bus.Publish(ev)
			}
			return err
		})
	}

	if opts.WaitDone {
		pool.StopAndWait()
		handle.Completed = !token.Aborted()
	} else {
		go pool.StopAndWait()
	}
	return handle, nil
}

// waitOrAbort sleeps for d unless the run aborts or the context ends first.
// Returns false when the wait was interrupted.
func waitOrAbort(ctx context.Context, clock adapter.Clock, d time.Duration, token *CancelToken) bool {
	select {
	case <-clock.After(d):
		return true
	case <-token.Done():
		return false
	case <-ctx.Done():
		token.Cancel()
		return false
	}
}

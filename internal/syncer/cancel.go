package syncer

import "sync"

// CancelToken signals that a sync run was superseded or abandoned. Staged
// batches check it before running and suppress their events after it fires.
type CancelToken struct {
	once sync.Once
	done chan struct{}
}

func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel aborts the run. Idempotent.
func (t *CancelToken) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Aborted reports whether the run was cancelled.
func (t *CancelToken) Aborted() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done exposes the cancellation channel for select loops.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}

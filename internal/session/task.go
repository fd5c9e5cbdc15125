package session

import (
	"context"
	"sync"

	"github.com/listenupapp/bookfinder/internal/domain"
)

// SearchTask is the pending outcome of one submitted search.
// The session applies the outcome to its own state before Done is closed.
type SearchTask struct {
	// Seq is the submission number within the session, starting at 1.
	Seq   uint64
	Query domain.SearchQuery

	done   chan struct{}
	once   sync.Once
	result *domain.SearchResult
	err    error
}

func newSearchTask(seq uint64, q domain.SearchQuery) *SearchTask {
	return &SearchTask{Seq: seq, Query: q, done: make(chan struct{})}
}

// Done is closed once the search has completed and its outcome is applied.
func (t *SearchTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes or ctx is done. Cancelling ctx only
// stops the wait; the search itself keeps running.
func (t *SearchTask) Wait(ctx context.Context) (*domain.SearchResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *SearchTask) complete(result *domain.SearchResult, err error) {
	t.once.Do(func() {
		t.result = result
		t.err = err
		close(t.done)
	})
}

package session

import (
	"github.com/sourcegraph/conc"

	"github.com/alvarorichard/hianime/internal/util"
)

// Background runs fire-and-forget tasks. Callers of Spawn are never joined
// with the task and never see its failure; panics are recovered and logged
// when the scheduler is drained.
type Background struct {
	wg *conc.WaitGroup
}

// NewBackground creates an empty scheduler
func NewBackground() *Background {
	return &Background{wg: conc.NewWaitGroup()}
}

// Spawn starts task on its own goroutine and returns immediately
func (b *Background) Spawn(task func()) {
	b.wg.Go(task)
}

// Drain blocks until every spawned task has finished
func (b *Background) Drain() {
	if r := b.wg.WaitAndRecover(); r != nil {
		util.Warn("Background task panicked", "panic", r.Value)
	}
}

// Package resource implements the per-kind CRUD managers that map admin form
// state to document records and keep the rendered lists in sync. All store
// mutations in the system go through a manager.
package resource

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/events"
	"github.com/sanu276140-eng/examsk24/internal/store"
)

// Collection names managed by this package.
const (
	QuestionsCollection = "questions"
	ExamsCollection     = "exams"
	UsersCollection     = "users"
	ActivityCollection  = "activity"
)

// Question form validation errors.
var (
	// ErrAnswerNotInOptions rejects a question whose correct answer does not
	// reference one of its option labels.
	ErrAnswerNotInOptions = errors.New("answer must reference one of the option labels")
	// ErrIncompleteOptions rejects a question missing one of its four
	// labeled options.
	ErrIncompleteOptions = errors.New("all four labeled options are required")
)

// base carries what every manager shares: the store handle, the activity
// recorder and the refresh listeners fired after successful mutations so
// every displayed list re-queries.
type base struct {
	st  store.Store
	rec events.Recorder
	log zerolog.Logger

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

// OnMutate registers a hook fired after every successful save or delete on
// this manager. Console surfaces use it to trigger a re-list. The returned
// function unsubscribes; call it on view teardown.
func (b *base) OnMutate(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// mutated runs the post-mutation obligations: activity trail, then refresh.
func (b *base) mutated(ctx context.Context, action, detail string) {
	if b.rec != nil {
		b.rec.Record(ctx, action, detail)
	}

	b.mu.Lock()
	fns := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

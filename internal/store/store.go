package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a document id does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// Direction is a query sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Comparison operators accepted by Query.Where.
const (
	OpEq  = "=="
	OpGte = ">="
	OpLte = "<="
	OpGt  = ">"
	OpLt  = "<"
)

// Metadata field names usable in Where and OrderBy. They address the
// store-maintained timestamps rather than payload fields.
const (
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Document is a single record read back from a collection. Fields holds the
// schemaless payload; CreatedAt and UpdatedAt are server-assigned.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query is a composable read over one collection. Builder methods return a
// derived query and never mutate the receiver, so a base query can be reused.
type Query interface {
	Where(field, op string, value any) Query
	OrderBy(field string, dir Direction) Query
	Limit(n int) Query

	// Get runs the query once and returns a finite snapshot.
	Get(ctx context.Context) ([]Document, error)

	// Count returns the number of matching documents.
	Count(ctx context.Context) (int, error)

	// Subscribe runs the query and re-runs it after every mutation in the
	// collection. Each emission is a full replacement snapshot. The
	// subscription stops when ctx is done or Stop is called.
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Doc addresses a single document by id.
type Doc interface {
	ID() string
	Get(ctx context.Context) (Document, error)
	// Set replaces the whole payload, creating the document under this id if
	// it does not exist, and bumps the update timestamp.
	Set(ctx context.Context, fields map[string]any) error
	// Update merges the given fields into the payload and bumps the update
	// timestamp.
	Update(ctx context.Context, fields map[string]any) error
	Delete(ctx context.Context) error
}

// Collection is a named set of documents.
type Collection interface {
	Query

	// Add inserts a new document, assigning its id and creation timestamp.
	Add(ctx context.Context, fields map[string]any) (string, error)
	Doc(id string) Doc
}

// Store is the document database handle.
type Store interface {
	Collection(name string) Collection
}

// Subscription is a live query feed. C carries full result snapshots; it is
// closed after Stop or context cancellation.
type Subscription struct {
	C    <-chan []Document
	stop func()
}

// Stop terminates the subscription and closes C. Safe to call more than once.
func (s *Subscription) Stop() {
	s.stop()
}

func newSubscription(ch <-chan []Document, stop func()) *Subscription {
	var once sync.Once
	return &Subscription{
		C:    ch,
		stop: func() { once.Do(stop) },
	}
}

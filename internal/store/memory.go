package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process document store used by unit tests and local
// development. It honors the same query and subscription semantics as the
// Postgres store, including strictly increasing creation timestamps so
// ordering assertions are deterministic.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]memDoc
	subs        map[string][]*memSub
	lastStamp   time.Time
}

type memDoc struct {
	fields    map[string]any
	createdAt time.Time
	updatedAt time.Time
}

type memSub struct {
	query memQuery
	ch    chan []Document
	done  chan struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]memDoc),
		subs:        make(map[string][]*memSub),
	}
}

// Collection returns a handle to the named collection, creating it lazily.
func (m *Memory) Collection(name string) Collection {
	return &memCollection{memQuery{m: m, collection: name}}
}

// tick returns a timestamp strictly later than any previously issued one.
// Callers must hold the write lock.
func (m *Memory) tick() time.Time {
	now := time.Now()
	if !now.After(m.lastStamp) {
		now = m.lastStamp.Add(time.Microsecond)
	}
	m.lastStamp = now
	return now
}

// normalize round-trips fields through JSON so the payload carries the same
// types (float64 numbers, map[string]any objects) a database read would.
func normalize(fields map[string]any) (map[string]any, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// notify re-runs every live query on the collection. Callers must hold at
// least the read lock taken after the mutation.
func (m *Memory) notify(collection string) {
	for _, sub := range m.subs[collection] {
		select {
		case <-sub.done:
			continue
		default:
		}
		sendSnapshot(sub.ch, sub.query.run(m))
	}
}

type memQuery struct {
	m          *Memory
	collection string
	filters    []filter
	orderField string
	orderDir   Direction
	limit      int
	err        error
}

func (q memQuery) Where(field, op string, value any) Query {
	q2 := q
	if _, ok := sqlOps[op]; !ok && q2.err == nil {
		q2.err = fmt.Errorf("unsupported operator %q", op)
	}
	q2.filters = append(append([]filter(nil), q.filters...), filter{field, op, value})
	return q2
}

func (q memQuery) OrderBy(field string, dir Direction) Query {
	q2 := q
	if dir != Asc && dir != Desc && q2.err == nil {
		q2.err = fmt.Errorf("unsupported sort direction %q", dir)
	}
	q2.orderField = field
	q2.orderDir = dir
	return q2
}

func (q memQuery) Limit(n int) Query {
	q2 := q
	q2.limit = n
	return q2
}

func (q memQuery) Get(ctx context.Context) ([]Document, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.m.mu.RLock()
	defer q.m.mu.RUnlock()
	return q.run(q.m), nil
}

func (q memQuery) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	q.m.mu.RLock()
	defer q.m.mu.RUnlock()

	n := 0
	for _, doc := range q.m.collections[q.collection] {
		if q.matches(doc) {
			n++
		}
	}
	return n, nil
}

func (q memQuery) Subscribe(ctx context.Context) (*Subscription, error) {
	if q.err != nil {
		return nil, q.err
	}

	sub := &memSub{
		query: q,
		ch:    make(chan []Document, 1),
		done:  make(chan struct{}),
	}

	q.m.mu.Lock()
	q.m.subs[q.collection] = append(q.m.subs[q.collection], sub)
	sendSnapshot(sub.ch, q.run(q.m))
	q.m.mu.Unlock()

	stop := func() {
		q.m.mu.Lock()
		defer q.m.mu.Unlock()
		select {
		case <-sub.done:
			return
		default:
		}
		close(sub.done)
		subs := q.m.subs[q.collection]
		for i, s := range subs {
			if s == sub {
				q.m.subs[q.collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(sub.ch)
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-sub.done:
		}
	}()

	return newSubscription(sub.ch, stop), nil
}

// run evaluates the query against the current state. Callers must hold a lock.
func (q memQuery) run(m *Memory) []Document {
	var docs []Document
	for id, doc := range m.collections[q.collection] {
		if !q.matches(doc) {
			continue
		}
		docs = append(docs, Document{
			ID:        id,
			Fields:    doc.fields,
			CreatedAt: doc.createdAt,
			UpdatedAt: doc.updatedAt,
		})
	}

	field := q.orderField
	if field == "" {
		field = FieldCreatedAt
	}
	desc := q.orderField != "" && q.orderDir == Desc

	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return docLess(docs[j], docs[i], field)
		}
		return docLess(docs[i], docs[j], field)
	})

	if q.limit > 0 && len(docs) > q.limit {
		docs = docs[:q.limit]
	}
	return docs
}

func docLess(a, b Document, field string) bool {
	switch field {
	case FieldCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case FieldUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return Str(a.Fields, field) < Str(b.Fields, field)
	}
}

func (q memQuery) matches(doc memDoc) bool {
	for _, f := range q.filters {
		var cmp int
		switch f.field {
		case FieldCreatedAt, FieldUpdatedAt:
			want, ok := f.value.(time.Time)
			if !ok {
				return false
			}
			have := doc.createdAt
			if f.field == FieldUpdatedAt {
				have = doc.updatedAt
			}
			cmp = have.Compare(want)
		default:
			have := Str(doc.fields, f.field)
			if have == "" {
				if raw, ok := doc.fields[f.field]; ok {
					have = fmt.Sprint(raw)
				}
			}
			want := fmt.Sprint(f.value)
			switch {
			case have < want:
				cmp = -1
			case have > want:
				cmp = 1
			}
		}

		switch f.op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpGte:
			if cmp < 0 {
				return false
			}
		case OpLte:
			if cmp > 0 {
				return false
			}
		case OpGt:
			if cmp <= 0 {
				return false
			}
		case OpLt:
			if cmp >= 0 {
				return false
			}
		}
	}
	return true
}

type memCollection struct {
	memQuery
}

func (c *memCollection) Add(ctx context.Context, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	normalized, err := normalize(fields)
	if err != nil {
		return "", err
	}

	c.m.mu.Lock()
	defer c.m.mu.Unlock()

	if c.m.collections[c.collection] == nil {
		c.m.collections[c.collection] = make(map[string]memDoc)
	}

	id := uuid.New().String()
	now := c.m.tick()
	c.m.collections[c.collection][id] = memDoc{
		fields:    normalized,
		createdAt: now,
		updatedAt: now,
	}

	c.m.notify(c.collection)
	return id, nil
}

func (c *memCollection) Doc(id string) Doc {
	return &memDocRef{m: c.m, collection: c.collection, id: id}
}

type memDocRef struct {
	m          *Memory
	collection string
	id         string
}

func (d *memDocRef) ID() string { return d.id }

func (d *memDocRef) Get(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	d.m.mu.RLock()
	defer d.m.mu.RUnlock()

	doc, ok := d.m.collections[d.collection][d.id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{
		ID:        d.id,
		Fields:    doc.fields,
		CreatedAt: doc.createdAt,
		UpdatedAt: doc.updatedAt,
	}, nil
}

func (d *memDocRef) Set(ctx context.Context, fields map[string]any) error {
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	if d.m.collections[d.collection] == nil {
		d.m.collections[d.collection] = make(map[string]memDoc)
	}

	now := d.m.tick()
	doc, ok := d.m.collections[d.collection][d.id]
	if !ok {
		doc = memDoc{createdAt: now}
	}
	doc.fields = normalized
	doc.updatedAt = now
	d.m.collections[d.collection][d.id] = doc
	d.m.notify(d.collection)
	return nil
}

func (d *memDocRef) Update(ctx context.Context, fields map[string]any) error {
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}
	return d.mutate(ctx, func(doc *memDoc) {
		merged := make(map[string]any, len(doc.fields)+len(normalized))
		for k, v := range doc.fields {
			merged[k] = v
		}
		for k, v := range normalized {
			merged[k] = v
		}
		doc.fields = merged
	})
}

func (d *memDocRef) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	if _, ok := d.m.collections[d.collection][d.id]; !ok {
		return ErrNotFound
	}
	delete(d.m.collections[d.collection], d.id)
	d.m.notify(d.collection)
	return nil
}

func (d *memDocRef) mutate(ctx context.Context, apply func(*memDoc)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	doc, ok := d.m.collections[d.collection][d.id]
	if !ok {
		return ErrNotFound
	}
	apply(&doc)
	doc.updatedAt = d.m.tick()
	d.m.collections[d.collection][d.id] = doc
	d.m.notify(d.collection)
	return nil
}

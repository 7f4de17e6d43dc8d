package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sanu276140-eng/examsk24/internal/config"
)

// Postgres keeps every collection in a single documents table with a jsonb
// payload. Mutations publish a change event on Redis pub/sub so live queries
// on other connections re-run.
type Postgres struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewPostgres creates a Postgres-backed document store.
func NewPostgres(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *Postgres {
	return &Postgres{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "store").Logger(),
	}
}

// Collection returns a handle to the named collection.
func (s *Postgres) Collection(name string) Collection {
	return &pgCollection{pgQuery{s: s, collection: name}}
}

func (s *Postgres) publish(ctx context.Context, collection, op, id string) {
	payload, _ := json.Marshal(map[string]string{"op": op, "id": id})
	if err := s.rdb.Publish(ctx, config.CollectionChannel(collection), payload).Err(); err != nil {
		s.log.Warn().Err(err).
			Str("collection", collection).
			Msg("Change event publish failed")
	}
}

var sqlOps = map[string]string{
	OpEq:  "=",
	OpGte: ">=",
	OpLte: "<=",
	OpGt:  ">",
	OpLt:  "<",
}

type filter struct {
	field string
	op    string
	value any
}

// pgQuery is an immutable query description. Builder methods copy the
// receiver, so derived queries never affect the base.
type pgQuery struct {
	s          *Postgres
	collection string
	filters    []filter
	orderField string
	orderDir   Direction
	limit      int
	err        error
}

func (q pgQuery) Where(field, op string, value any) Query {
	q2 := q
	if _, ok := sqlOps[op]; !ok && q2.err == nil {
		q2.err = fmt.Errorf("unsupported operator %q", op)
	}
	q2.filters = append(append([]filter(nil), q.filters...), filter{field, op, value})
	return q2
}

func (q pgQuery) OrderBy(field string, dir Direction) Query {
	q2 := q
	if dir != Asc && dir != Desc && q2.err == nil {
		q2.err = fmt.Errorf("unsupported sort direction %q", dir)
	}
	q2.orderField = field
	q2.orderDir = dir
	return q2
}

func (q pgQuery) Limit(n int) Query {
	q2 := q
	q2.limit = n
	return q2
}

// buildWhere renders the WHERE tail after "collection = $1" and collects args.
func (q pgQuery) buildWhere(args *[]any) string {
	clause := ""
	for _, f := range q.filters {
		op := sqlOps[f.op]
		switch f.field {
		case FieldCreatedAt, FieldUpdatedAt:
			*args = append(*args, f.value)
			clause += fmt.Sprintf(" AND %s %s $%d", f.field, op, len(*args))
		default:
			// Payload fields compare as text; value and field name both travel
			// as parameters.
			*args = append(*args, f.field, fmt.Sprint(f.value))
			clause += fmt.Sprintf(" AND data->>$%d %s $%d", len(*args)-1, op, len(*args))
		}
	}
	return clause
}

func (q pgQuery) buildSelect(args *[]any) string {
	sql := `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`
	sql += q.buildWhere(args)

	switch q.orderField {
	case "":
		sql += " ORDER BY created_at ASC"
	case FieldCreatedAt, FieldUpdatedAt:
		sql += fmt.Sprintf(" ORDER BY %s %s", q.orderField, sqlDir(q.orderDir))
	default:
		*args = append(*args, q.orderField)
		sql += fmt.Sprintf(" ORDER BY data->>$%d %s", len(*args), sqlDir(q.orderDir))
	}

	if q.limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.limit)
	}
	return sql
}

func sqlDir(dir Direction) string {
	if dir == Desc {
		return "DESC"
	}
	return "ASC"
}

func (q pgQuery) Get(ctx context.Context) ([]Document, error) {
	if q.err != nil {
		return nil, q.err
	}

	args := []any{q.collection}
	sql := q.buildSelect(&args)

	rows, err := q.s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			doc  Document
			data []byte
		)
		if err := rows.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count ignores OrderBy and Limit; it counts everything the filters match.
func (q pgQuery) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}

	args := []any{q.collection}
	sql := `SELECT count(*) FROM documents WHERE collection = $1` + q.buildWhere(&args)

	var n int
	err := q.s.pool.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}

func (q pgQuery) Subscribe(ctx context.Context) (*Subscription, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.s.rdb == nil {
		return nil, errors.New("live queries require a redis client")
	}

	pubsub := q.s.rdb.Subscribe(ctx, config.CollectionChannel(q.collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", q.collection, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan []Document, 1)

	go func() {
		defer close(ch)
		defer pubsub.Close()

		emit := func() {
			docs, err := q.Get(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					q.s.log.Warn().Err(err).
						Str("collection", q.collection).
						Msg("Live query refresh failed, keeping previous snapshot")
				}
				return
			}
			sendSnapshot(ch, docs)
		}

		emit()

		msgs := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return newSubscription(ch, cancel), nil
}

// sendSnapshot delivers docs on a 1-buffered channel, replacing any snapshot
// the receiver has not picked up yet. A newer snapshot always supersedes an
// older one.
func sendSnapshot(ch chan []Document, docs []Document) {
	for {
		select {
		case ch <- docs:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// pgCollection adds document addressing and inserts on top of pgQuery.
type pgCollection struct {
	pgQuery
}

func (c *pgCollection) Add(ctx context.Context, fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	var id string
	err = c.s.pool.QueryRow(ctx,
		`INSERT INTO documents (collection, data) VALUES ($1, $2) RETURNING id`,
		c.collection, data,
	).Scan(&id)
	if err != nil {
		return "", err
	}

	c.s.publish(ctx, c.collection, "add", id)
	return id, nil
}

func (c *pgCollection) Doc(id string) Doc {
	return &pgDoc{s: c.s, collection: c.collection, id: id}
}

type pgDoc struct {
	s          *Postgres
	collection string
	id         string
}

func (d *pgDoc) ID() string { return d.id }

func (d *pgDoc) Get(ctx context.Context) (Document, error) {
	doc := Document{ID: d.id}

	var data []byte
	err := d.s.pool.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`,
		d.collection, d.id,
	).Scan(&data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}

	if err := json.Unmarshal(data, &doc.Fields); err != nil {
		return Document{}, fmt.Errorf("decode document %s: %w", d.id, err)
	}
	return doc, nil
}

func (d *pgDoc) Set(ctx context.Context, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = d.s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		d.collection, d.id, data,
	)
	if err != nil {
		return err
	}
	d.s.publish(ctx, d.collection, "set", d.id)
	return nil
}

func (d *pgDoc) Update(ctx context.Context, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return d.mutate(ctx, "update",
		`UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2`,
		data,
	)
}

func (d *pgDoc) Delete(ctx context.Context) error {
	return d.mutate(ctx, "delete",
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
	)
}

func (d *pgDoc) mutate(ctx context.Context, op, sql string, extra ...any) error {
	args := append([]any{d.collection, d.id}, extra...)
	tag, err := d.s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	d.s.publish(ctx, d.collection, op, d.id)
	return nil
}

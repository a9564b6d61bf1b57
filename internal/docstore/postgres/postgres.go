// Package postgres stores documents as JSONB rows. A batch is one transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection  TEXT        NOT NULL,
    id          TEXT        NOT NULL,
    data        JSONB       NOT NULL DEFAULT '{}'::jsonb,
    update_time TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
)`

type row struct {
	ID         string    `db:"id"`
	Data       []byte    `db:"data"`
	UpdateTime time.Time `db:"update_time"`
}

type Store struct {
	DB       *sqlx.DB
	notifier docstore.Notifier
	now      func() time.Time
}

// NewStore returns a store that signals n after each commit. n may be nil.
func NewStore(db *sqlx.DB, n docstore.Notifier) *Store {
	return &Store{DB: db, notifier: n, now: time.Now}
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, schema)
	return err
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var r row
	query := `SELECT id, data, update_time FROM documents WHERE collection = $1 AND id = $2`
	err := s.DB.GetContext(ctx, &r, query, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		return nil, err
	}
	doc, err := r.document()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.Query(ctx, docstore.Query{Collection: collection})
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	query := `SELECT id, data, update_time FROM documents WHERE collection = $1`
	args := []interface{}{q.Collection}

	if len(q.Where) > 0 {
		match := make(map[string]any, len(q.Where))
		for _, f := range q.Where {
			match[f.Field] = f.Value
		}
		raw, err := json.Marshal(match)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		args = append(args, string(raw))
		query += fmt.Sprintf(` AND data @> $%d::jsonb`, len(args))
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		dir := "ASC"
		if q.Direction == docstore.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(` ORDER BY data->$%d %s NULLS LAST, id`, len(args), dir)
	} else {
		query += ` ORDER BY id`
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	var rows []row
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := r.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) Batch() docstore.Batch {
	return &batch{store: s}
}

type batch struct {
	docstore.OpBuffer
	store *Store
}

const (
	mergeQuery = `
        INSERT INTO documents (collection, id, data, update_time)
        VALUES ($1, $2, $3::jsonb, $4)
        ON CONFLICT (collection, id)
        DO UPDATE SET
            data = documents.data || EXCLUDED.data,
            update_time = EXCLUDED.update_time
    `
	replaceQuery = `
        INSERT INTO documents (collection, id, data, update_time)
        VALUES ($1, $2, $3::jsonb, $4)
        ON CONFLICT (collection, id)
        DO UPDATE SET
            data = EXCLUDED.data,
            update_time = EXCLUDED.update_time
    `
	incrementQuery = `
        UPDATE documents
        SET data = jsonb_set(data, ARRAY[$3::text], to_jsonb(COALESCE(%s, 0) + $4)),
            update_time = $5
        WHERE collection = $1 AND id = $2
    `
)

// incrementSQL reads the starting value from field, then each fallback field in turn.
func incrementSQL(fallbacks int) string {
	reads := []string{"(data->>$3)::numeric"}
	for i := 0; i < fallbacks; i++ {
		reads = append(reads, fmt.Sprintf("(data->>$%d)::numeric", 6+i))
	}
	return fmt.Sprintf(incrementQuery, strings.Join(reads, ", "))
}

func (b *batch) Commit(ctx context.Context) error {
	ops, err := b.Begin()
	if err != nil {
		return err
	}

	tx, err := b.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := b.store.now().UTC()
	for _, op := range ops {
		if err := execOp(ctx, tx, op, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	if b.store.notifier != nil {
		for _, collection := range docstore.Collections(ops) {
			// The commit is durable at this point; a lost signal only delays watchers.
			_ = b.store.notifier.Notify(ctx, collection)
		}
	}
	return nil
}

func execOp(ctx context.Context, tx *sqlx.Tx, op docstore.Op, now time.Time) error {
	switch op.Kind {
	case docstore.OpSet:
		raw, err := json.Marshal(op.Data)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", op.Collection, op.ID, err)
		}
		query := replaceQuery
		if op.Merge {
			query = mergeQuery
		}
		if _, err := tx.ExecContext(ctx, query, op.Collection, op.ID, string(raw), now); err != nil {
			return fmt.Errorf("set %s/%s: %w", op.Collection, op.ID, err)
		}
	case docstore.OpIncrement:
		args := []any{op.Collection, op.ID, op.Field, op.Delta, now}
		for _, f := range op.Fallback {
			args = append(args, f)
		}
		res, err := tx.ExecContext(ctx, incrementSQL(len(op.Fallback)), args...)
		if err != nil {
			return fmt.Errorf("increment %s/%s: %w", op.Collection, op.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("increment %s/%s: %w", op.Collection, op.ID, docstore.ErrNotFound)
		}
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
	return nil
}

func (r row) document() (docstore.Document, error) {
	data := map[string]any{}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document %s: %w", r.ID, err)
	}
	return docstore.Document{ID: r.ID, Data: data, UpdateTime: r.UpdateTime}, nil
}

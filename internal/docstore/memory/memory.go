// Package memory is an in-process docstore used by tests and local runs without Postgres.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/repairshop-service/internal/docstore"
)

type record struct {
	data    map[string]any
	updated time.Time
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]record
	notifier    docstore.Notifier
	now         func() time.Time
}

type Option func(*Store)

func WithNotifier(n docstore.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]map[string]record),
		notifier:    docstore.NewLocalNotifier(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Notifier() docstore.Notifier { return s.notifier }

func (s *Store) Get(_ context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	doc := toDocument(id, rec)
	return &doc, nil
}

func (s *Store) GetAll(_ context.Context, collection string) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]docstore.Document, 0, len(s.collections[collection]))
	for id, rec := range s.collections[collection] {
		docs = append(docs, toDocument(id, rec))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	docs, err := s.GetAll(ctx, q.Collection)
	if err != nil {
		return nil, err
	}

	filtered := docs[:0]
	for _, doc := range docs {
		if matches(doc.Data, q.Where) {
			filtered = append(filtered, doc)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(filtered, func(i, j int) bool {
			c := compare(filtered[i].Data[q.OrderBy], filtered[j].Data[q.OrderBy])
			if q.Direction == docstore.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[:q.Limit]
	}
	return filtered, nil
}

func (s *Store) Batch() docstore.Batch {
	return &batch{store: s}
}

type batch struct {
	docstore.OpBuffer
	store *Store
}

func (b *batch) Commit(ctx context.Context) error {
	ops, err := b.Begin()
	if err != nil {
		return err
	}
	if err := b.store.apply(ops); err != nil {
		return err
	}
	for _, collection := range docstore.Collections(ops) {
		_ = b.store.notifier.Notify(ctx, collection)
	}
	return nil
}

// apply stages every op against copies and installs them only if all succeed.
func (s *Store) apply(ops []docstore.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	type key struct{ collection, id string }
	staged := make(map[key]*record)
	load := func(k key) *record {
		if rec, ok := staged[k]; ok {
			return rec
		}
		existing, ok := s.collections[k.collection][k.id]
		if !ok {
			return nil
		}
		rec := &record{data: clone(existing.data), updated: existing.updated}
		staged[k] = rec
		return rec
	}

	for _, op := range ops {
		k := key{op.Collection, op.ID}
		switch op.Kind {
		case docstore.OpSet:
			data, err := docstore.Normalize(op.Data)
			if err != nil {
				return err
			}
			rec := load(k)
			if rec == nil || !op.Merge {
				staged[k] = &record{data: data, updated: now}
				continue
			}
			for field, v := range data {
				rec.data[field] = v
			}
			rec.updated = now
		case docstore.OpIncrement:
			rec := load(k)
			if rec == nil {
				return fmt.Errorf("increment %s/%s: %w", op.Collection, op.ID, docstore.ErrNotFound)
			}
			var current float64
			for _, field := range append([]string{op.Field}, op.Fallback...) {
				if v, ok := docstore.Float64(rec.data, field); ok {
					current = v
					break
				}
			}
			rec.data[op.Field] = current + float64(op.Delta)
			rec.updated = now
		}
	}

	for k, rec := range staged {
		if s.collections[k.collection] == nil {
			s.collections[k.collection] = make(map[string]record)
		}
		s.collections[k.collection][k.id] = *rec
	}
	return nil
}

func toDocument(id string, rec record) docstore.Document {
	return docstore.Document{ID: id, Data: clone(rec.data), UpdateTime: rec.updated}
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func matches(data map[string]any, where []docstore.Filter) bool {
	if len(where) == 0 {
		return true
	}
	want := make(map[string]any, len(where))
	for _, f := range where {
		want[f.Field] = f.Value
	}
	normalized, err := docstore.Normalize(want)
	if err != nil {
		return false
	}
	for field, v := range normalized {
		if !reflect.DeepEqual(data[field], v) {
			return false
		}
	}
	return true
}

// compare orders missing values first, then numbers, then strings.
func compare(a, b any) int {
	rank := func(v any) int {
		switch v.(type) {
		case nil:
			return 0
		case float64:
			return 1
		case string:
			return 2
		}
		return 3
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}

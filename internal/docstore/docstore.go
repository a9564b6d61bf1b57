// Package docstore is the document database seen by the back-office: collections of
// JSON documents keyed by id, ordered queries, atomic write batches and change
// notifications for live subscriptions.
package docstore

import (
	"context"
	"errors"
	"time"
)

// MaxBatchOps is the hard ceiling of operations a single batch may carry.
const MaxBatchOps = 500

var (
	ErrNotFound       = errors.New("docstore: document not found")
	ErrBatchTooLarge  = errors.New("docstore: batch exceeds operation limit")
	ErrBatchCommitted = errors.New("docstore: batch already committed")
)

type Document struct {
	ID         string
	Data       map[string]any
	UpdateTime time.Time
}

type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is an equality match on a top-level field.
type Filter struct {
	Field string
	Value any
}

type Query struct {
	Collection string
	Where      []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	GetAll(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	Batch() Batch
}

// Batch collects writes that are applied all-or-nothing on Commit.
type Batch interface {
	// Set writes data at id. With merge, fields absent from data are preserved.
	Set(collection, id string, data map[string]any, merge bool)
	// Increment adds delta to a numeric field of an existing document. When field is
	// absent the first present fallback field is the starting value, else 0.
	Increment(collection, id, field string, delta int64, fallback ...string)
	Len() int
	Commit(ctx context.Context) error
}

type Notifier interface {
	Notify(ctx context.Context, collection string) error
	// Listen delivers a signal after changes to collection. Bursts may coalesce.
	Listen(ctx context.Context, collection string) (<-chan struct{}, func(), error)
}

type OpKind int

const (
	OpSet OpKind = iota
	OpIncrement
)

type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Data       map[string]any
	Merge      bool
	Field      string
	Fallback   []string
	Delta      int64
}

// OpBuffer implements the recording half of Batch for store implementations.
type OpBuffer struct {
	ops       []Op
	committed bool
}

func (b *OpBuffer) Set(collection, id string, data map[string]any, merge bool) {
	b.ops = append(b.ops, Op{Kind: OpSet, Collection: collection, ID: id, Data: data, Merge: merge})
}

func (b *OpBuffer) Increment(collection, id, field string, delta int64, fallback ...string) {
	b.ops = append(b.ops, Op{Kind: OpIncrement, Collection: collection, ID: id, Field: field, Fallback: fallback, Delta: delta})
}

func (b *OpBuffer) Len() int { return len(b.ops) }

// Begin validates the buffer and marks it committed. The returned ops must not be modified.
func (b *OpBuffer) Begin() ([]Op, error) {
	if b.committed {
		return nil, ErrBatchCommitted
	}
	if len(b.ops) > MaxBatchOps {
		return nil, ErrBatchTooLarge
	}
	b.committed = true
	return b.ops, nil
}

// Collections returns the distinct collections touched by ops, in first-seen order.
func Collections(ops []Op) []string {
	seen := make(map[string]struct{}, 1)
	var out []string
	for _, op := range ops {
		if _, ok := seen[op.Collection]; ok {
			continue
		}
		seen[op.Collection] = struct{}{}
		out = append(out, op.Collection)
	}
	return out
}

/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/panjf2000/ants/v2"

	"github.com/tidemark/tablestore/store"
)

// Options configures a Repository.
type Options struct {
	// Retry is the policy wrapped around every physical request.
	Retry RetryPolicy
	// Logger receives debug output. Defaults to a discarding logger.
	Logger *log.Logger
	// BulkWindow caps concurrent in-flight requests during bulk fan-out.
	BulkWindow int
	// DeleteWindow is the key-page size used by delete-by-predicate.
	DeleteWindow int
	// StreamBuffer is the channel buffer of streamed query results.
	StreamBuffer int
}

// Option mutates Options.
type Option func(*Options)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Options) { o.Retry = p }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithBulkWindow sets the bounded concurrency window for bulk operations.
func WithBulkWindow(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.BulkWindow = n
		}
	}
}

// WithDeleteWindow sets the page size of delete-by-predicate key windows.
func WithDeleteWindow(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.DeleteWindow = n
		}
	}
}

const (
	defaultBulkWindow   = 32
	defaultDeleteWindow = store.MaxPageSize
	defaultStreamBuffer = 64
)

// Repository is the typed CRUD/query surface over one logical table. All
// methods accept a context and observe cancellation at every suspension
// point: before page fetches, batch submissions, and fan-out dispatches.
type Repository[T any] struct {
	handle       *Handle
	codec        codec[T]
	retry        RetryPolicy
	logger       *log.Logger
	pool         *ants.Pool
	bulkWindow   int
	deleteWindow int
	streamBuffer int
}

// New builds a Repository for type T over the given store client. T must
// have a key map registered; see the registry package.
func New[T any](client store.TableClient, opts ...Option) (*Repository[T], error) {
	c, err := newCodec[T]()
	if err != nil {
		return nil, err
	}

	o := Options{
		Retry:        DefaultRetryPolicy(),
		BulkWindow:   defaultBulkWindow,
		DeleteWindow: defaultDeleteWindow,
		StreamBuffer: defaultStreamBuffer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Retry.Logger == nil {
		o.Retry.Logger = o.Logger
	}

	pool, err := ants.NewPool(o.BulkWindow)
	if err != nil {
		return nil, err
	}

	return &Repository[T]{
		handle:       NewHandle(client),
		codec:        c,
		retry:        o.Retry,
		logger:       o.Logger,
		pool:         pool,
		bulkWindow:   o.BulkWindow,
		deleteWindow: o.DeleteWindow,
		streamBuffer: o.StreamBuffer,
	}, nil
}

// Close releases the bulk worker pool.
func (r *Repository[T]) Close() {
	r.pool.Release()
}

// EnsureTable initializes the shared handle eagerly.
func (r *Repository[T]) EnsureTable(ctx context.Context) error {
	_, err := r.handle.Acquire(ctx)
	return err
}

// DropTable removes the backing table and resets the shared handle so the
// next operation rebuilds it.
func (r *Repository[T]) DropTable(ctx context.Context) error {
	client, err := r.handle.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := r.retry.Do(ctx, client.DropTable); err != nil {
		return err
	}
	r.handle.Reset()
	return nil
}

// Insert stores a new entity. An occupied key fails with ErrAlreadyExists.
func (r *Repository[T]) Insert(ctx context.Context, entity T) (T, error) {
	return r.write(ctx, entity, store.OpInsert)
}

// InsertOrUpdate stores the entity unconditionally.
func (r *Repository[T]) InsertOrUpdate(ctx context.Context, entity T) (T, error) {
	return r.write(ctx, entity, store.OpInsertOrReplace)
}

// Update replaces an existing entity. The entity's version tag is honored
// when the key map names an ETag field; without one the check is skipped.
// A stale tag fails with ErrConflict and is never auto-retried.
func (r *Repository[T]) Update(ctx context.Context, entity T) (T, error) {
	return r.write(ctx, entity, store.OpReplace)
}

func (r *Repository[T]) write(ctx context.Context, entity T, kind store.OpKind) (T, error) {
	var zero T

	row, err := r.codec.encode(entity)
	if err != nil {
		return zero, err
	}
	if kind == store.OpReplace && row.ETag == "" {
		row.ETag = store.ForceTag
	}

	client, err := r.handle.Acquire(ctx)
	if err != nil {
		return zero, err
	}

	var out store.Row
	err = r.retry.Do(ctx, func(ctx context.Context) error {
		var opErr error
		switch kind {
		case store.OpInsert:
			out, opErr = client.Insert(ctx, row)
		case store.OpInsertOrReplace:
			out, opErr = client.InsertOrReplace(ctx, row)
		default:
			out, opErr = client.Replace(ctx, row)
		}
		return opErr
	})
	if err != nil {
		return zero, err
	}
	return r.codec.decode(out)
}

// Get reads one entity by its raw string key, expanded through the key map.
// A missing row returns (nil, nil), not an error.
func (r *Repository[T]) Get(ctx context.Context, key string) (*T, error) {
	pk, rk := r.codec.keys(key)
	return r.GetByKey(ctx, pk, rk)
}

// GetByKey reads one entity by explicit partition and row key.
func (r *Repository[T]) GetByKey(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	client, err := r.handle.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var row *store.Row
	err = r.retry.Do(ctx, func(ctx context.Context) error {
		var opErr error
		row, opErr = client.Get(ctx, partitionKey, rowKey)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	entity, err := r.codec.decode(*row)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Delete removes the row addressed by a raw string key. The version check is
// skipped; use DeleteEntity for tag-guarded deletes.
func (r *Repository[T]) Delete(ctx context.Context, key string) error {
	pk, rk := r.codec.keys(key)
	return r.deleteRow(ctx, pk, rk, store.ForceTag)
}

// DeleteEntity removes the row for an entity, honoring its version tag when
// the key map names an ETag field.
func (r *Repository[T]) DeleteEntity(ctx context.Context, entity T) error {
	row, err := r.codec.encode(entity)
	if err != nil {
		return err
	}
	etag := row.ETag
	if etag == "" {
		etag = store.ForceTag
	}
	return r.deleteRow(ctx, row.PartitionKey, row.RowKey, etag)
}

func (r *Repository[T]) deleteRow(ctx context.Context, partitionKey, rowKey, etag string) error {
	client, err := r.handle.Acquire(ctx)
	if err != nil {
		return err
	}
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return client.Delete(ctx, partitionKey, rowKey, etag)
	})
}

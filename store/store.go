/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package store

import (
	"context"

	"github.com/google/uuid"
)

const (
	// MaxPageSize is the hard per-request row cap the store enforces
	// regardless of the requested page size.
	MaxPageSize = 1000

	// MaxBatchOperations is the store's limit on operations per atomic batch.
	MaxBatchOperations = 100

	// ForceTag is the version tag that bypasses the optimistic-concurrency check.
	ForceTag = "*"
)

// Row is one stored record. Identity is the (PartitionKey, RowKey) pair and
// is immutable after creation; a rewrite under a different key is a
// delete plus insert, never an update. ETag is the store-issued version tag.
type Row struct {
	PartitionKey string
	RowKey       string
	ETag         string
	Properties   map[string]any
}

// Clone returns a deep-enough copy for handing rows across goroutines.
func (r Row) Clone() Row {
	props := make(map[string]any, len(r.Properties))
	for k, v := range r.Properties {
		props[k] = v
	}
	r.Properties = props
	return r
}

// Ordering is one component of a native sort clause.
type Ordering struct {
	Property   string
	Descending bool
}

// Query describes one segmented-scan request.
type Query struct {
	// Filter is a predicate in the store's textual filter grammar; empty
	// selects everything.
	Filter string
	// OrderBy is applied by the store, in clause order. Providers that cannot
	// sort reject a non-empty clause.
	OrderBy []Ordering
	// Select limits the returned properties; keys and the version tag are
	// always present on returned rows. Nil returns every property.
	Select []string
	// PageSize caps rows per segment; the store clamps it to MaxPageSize.
	PageSize int32
	// Token resumes a scan. Empty means start from the beginning.
	Token string
}

// Page is one segment of a scan. An empty Next token means the scan is
// exhausted; otherwise Next resumes after the last row of this page.
type Page struct {
	Rows []Row
	Next string
}

// OpKind tags a batch operation.
type OpKind int

const (
	OpInsert OpKind = iota
	OpInsertOrReplace
	OpReplace
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpInsertOrReplace:
		return "insert-or-replace"
	case OpReplace:
		return "replace"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Operation is one write or delete inside a batch. Row.ETag is the version
// tag; ForceTag skips the concurrency check. Delete operations only need the
// row's keys and tag.
type Operation struct {
	Kind OpKind
	Row  Row
}

// Batch is an atomic multi-operation submission. Every operation must target
// Batch.PartitionKey; the store commits all of it or none of it.
type Batch struct {
	ID           uuid.UUID
	PartitionKey string
	Operations   []Operation
}

// TableClient is the upstream surface of one logical table. Implementations
// signal transient rate limiting by wrapping errors.ErrThrottled; every
// other failure is non-retryable.
type TableClient interface {
	// EnsureTable creates the table if it does not exist. Idempotent.
	EnsureTable(ctx context.Context) error

	// DropTable removes the table and everything in it.
	DropTable(ctx context.Context) error

	// Insert stores a new row and returns it with its version tag. A row
	// already under the key fails with ErrAlreadyExists.
	Insert(ctx context.Context, row Row) (Row, error)

	// InsertOrReplace stores the row unconditionally.
	InsertOrReplace(ctx context.Context, row Row) (Row, error)

	// Replace overwrites an existing row, honoring row.ETag. A missing row
	// fails with ErrNotFound, a stale tag with ErrConflict.
	Replace(ctx context.Context, row Row) (Row, error)

	// Delete removes a row, honoring the version tag the same way Replace does.
	Delete(ctx context.Context, partitionKey, rowKey, etag string) error

	// Get reads one row by key. A missing row returns (nil, nil).
	Get(ctx context.Context, partitionKey, rowKey string) (*Row, error)

	// QuerySegment fetches one page of a segmented scan.
	QuerySegment(ctx context.Context, q Query) (Page, error)

	// SubmitBatch commits a single-partition batch atomically and returns the
	// number of operations applied (len(b.Operations) on success, 0 on failure).
	SubmitBatch(ctx context.Context, b Batch) (int, error)
}

/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/tidemark/tablestore/store"
)

// BatchInsert builds an insert operation for a batch.
func (r *Repository[T]) BatchInsert(entity T) (store.Operation, error) {
	return r.batchOp(store.OpInsert, entity)
}

// BatchInsertOrUpdate builds an unconditional write operation for a batch.
func (r *Repository[T]) BatchInsertOrUpdate(entity T) (store.Operation, error) {
	return r.batchOp(store.OpInsertOrReplace, entity)
}

// BatchUpdate builds a replace operation for a batch, honoring the entity's
// version tag.
func (r *Repository[T]) BatchUpdate(entity T) (store.Operation, error) {
	return r.batchOp(store.OpReplace, entity)
}

// BatchDelete builds a delete operation for a batch.
func (r *Repository[T]) BatchDelete(entity T) (store.Operation, error) {
	return r.batchOp(store.OpDelete, entity)
}

func (r *Repository[T]) batchOp(kind store.OpKind, entity T) (store.Operation, error) {
	row, err := r.codec.encode(entity)
	if err != nil {
		return store.Operation{}, err
	}
	if row.ETag == "" && (kind == store.OpReplace || kind == store.OpDelete) {
		row.ETag = store.ForceTag
	}
	return store.Operation{Kind: kind, Row: row}, nil
}

// ExecuteBatch groups heterogeneous write/delete operations into
// partition-scoped atomic chunks and submits them through the retry
// executor. Input order is preserved within each partition; the input does
// not need to be pre-sorted. Chunks never exceed the store's batch cap and
// never span partitions; that is a structural constraint of the store, not
// a performance choice.
//
// Each chunk commits all-or-nothing. The returned count is the sum of
// applied chunk sizes; a failed chunk contributes nothing and fails the
// call, leaving earlier chunks committed.
func (r *Repository[T]) ExecuteBatch(ctx context.Context, ops []store.Operation) (int, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	client, err := r.handle.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	// Group by partition key, keeping first-seen partition order.
	var partitions []string
	grouped := make(map[string][]store.Operation)
	for _, op := range ops {
		pk := op.Row.PartitionKey
		if _, seen := grouped[pk]; !seen {
			partitions = append(partitions, pk)
		}
		grouped[pk] = append(grouped[pk], op)
	}

	applied := 0
	for _, pk := range partitions {
		group := grouped[pk]
		for start := 0; start < len(group); start += store.MaxBatchOperations {
			if err := ctx.Err(); err != nil {
				return applied, err
			}

			end := start + store.MaxBatchOperations
			if end > len(group) {
				end = len(group)
			}
			batch := store.Batch{
				ID:           uuid.New(),
				PartitionKey: pk,
				Operations:   group[start:end],
			}

			var n int
			err := r.retry.Do(ctx, func(ctx context.Context) error {
				var opErr error
				n, opErr = client.SubmitBatch(ctx, batch)
				return opErr
			})
			if err != nil {
				return applied, err
			}
			applied += n
			r.logger.Debug("batch committed", "batch", batch.ID, "partition", pk, "ops", len(batch.Operations))
		}
	}
	return applied, nil
}

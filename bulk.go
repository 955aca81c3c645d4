/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"sync"

	"github.com/tidemark/tablestore/filter"
	"github.com/tidemark/tablestore/store"
)

// InsertAll inserts a collection, one logical request per entity, fanned out
// through the bounded worker window. Returns the number of inserts that
// succeeded and the first error encountered.
func (r *Repository[T]) InsertAll(ctx context.Context, entities []T) (int, error) {
	return r.fanOut(ctx, len(entities), func(ctx context.Context, i int) error {
		_, err := r.Insert(ctx, entities[i])
		return err
	})
}

// UpsertAll writes a collection unconditionally with bounded fan-out.
func (r *Repository[T]) UpsertAll(ctx context.Context, entities []T) (int, error) {
	return r.fanOut(ctx, len(entities), func(ctx context.Context, i int) error {
		_, err := r.InsertOrUpdate(ctx, entities[i])
		return err
	})
}

// UpdateAll replaces a collection with bounded fan-out, honoring each
// entity's version tag.
func (r *Repository[T]) UpdateAll(ctx context.Context, entities []T) (int, error) {
	return r.fanOut(ctx, len(entities), func(ctx context.Context, i int) error {
		_, err := r.Update(ctx, entities[i])
		return err
	})
}

// DeleteAll removes a collection with bounded fan-out.
func (r *Repository[T]) DeleteAll(ctx context.Context, entities []T) (int, error) {
	return r.fanOut(ctx, len(entities), func(ctx context.Context, i int) error {
		return r.DeleteEntity(ctx, entities[i])
	})
}

// DeleteMatching removes every entity matching the predicate. Equivalent to
// Query().Where(pred).Delete(ctx).
func (r *Repository[T]) DeleteMatching(ctx context.Context, pred filter.Expr) (int, error) {
	return r.deleteWhere(ctx, pred)
}

// fanOut dispatches one call per item, at most bulkWindow in flight, and
// awaits each window before admitting the next. This caps peak concurrent
// connections to the store while still pipelining latency. Cancellation is
// checked before every dispatch.
func (r *Repository[T]) fanOut(ctx context.Context, count int, each func(ctx context.Context, i int) error) (int, error) {
	var (
		mu        sync.Mutex
		firstErr  error
		succeeded int
	)

	for start := 0; start < count; start += r.bulkWindow {
		end := start + r.bulkWindow
		if end > count {
			end = count
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				break
			}

			wg.Add(1)
			if err := r.pool.Submit(func() {
				defer wg.Done()
				if err := each(ctx, i); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				mu.Lock()
				succeeded++
				mu.Unlock()
			}); err != nil {
				wg.Done()
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}
		wg.Wait()

		mu.Lock()
		err := firstErr
		mu.Unlock()
		if err != nil {
			return succeeded, err
		}
	}
	return succeeded, nil
}

// deleteWhere implements delete-by-predicate: page through matching keys in
// fixed-size windows, delete each window through the batcher, and repeat
// until a window comes back empty. Memory stays bounded to one window of
// keys no matter how large the matched set is.
func (r *Repository[T]) deleteWhere(ctx context.Context, pred filter.Expr) (int, error) {
	var filterText string
	if pred != nil {
		text, err := filter.Translate(pred)
		if err != nil {
			return 0, err
		}
		filterText = text
	}

	client, err := r.handle.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for {
		rows, err := r.fetchKeyWindow(ctx, client, filterText, r.deleteWindow)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			return total, nil
		}

		ops := make([]store.Operation, 0, len(rows))
		for _, row := range rows {
			ops = append(ops, store.Operation{
				Kind: store.OpDelete,
				Row: store.Row{
					PartitionKey: row.PartitionKey,
					RowKey:       row.RowKey,
					ETag:         store.ForceTag,
				},
			})
		}

		n, err := r.ExecuteBatch(ctx, ops)
		total += n
		if err != nil {
			return total, err
		}
	}
}

// fetchKeyWindow collects up to window matching keys, projecting nothing
// beyond the key columns.
func (r *Repository[T]) fetchKeyWindow(ctx context.Context, client store.TableClient, filterText string, window int) ([]store.Row, error) {
	pageSize := window
	if pageSize > store.MaxPageSize {
		pageSize = store.MaxPageSize
	}
	sq := store.Query{
		Filter:   filterText,
		Select:   []string{},
		PageSize: int32(pageSize),
	}

	var rows []store.Row
	for len(rows) < window {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var page store.Page
		err := r.retry.Do(ctx, func(ctx context.Context) error {
			var opErr error
			page, opErr = client.QuerySegment(ctx, sq)
			return opErr
		})
		if err != nil {
			return nil, err
		}

		for _, row := range page.Rows {
			rows = append(rows, row)
			if len(rows) == window {
				break
			}
		}

		if page.Next == "" {
			break
		}
		sq.Token = page.Next
	}
	return rows, nil
}

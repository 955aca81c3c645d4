/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"

	"github.com/tidemark/tablestore/filter"
	"github.com/tidemark/tablestore/store"
)

// Result is one element of a streamed query: an item or an error, never both.
type Result[T any] struct {
	Item T
	Err  error
}

// QueryBuilder assembles a filtered, ordered, windowed query over one
// repository. Builders are single-shot: each terminal call starts a fresh
// cursor at skip zero relative to its own invocation.
type QueryBuilder[T any] struct {
	repo    *Repository[T]
	pred    filter.Expr
	orders  []filter.Order
	project filter.Selector
	skip    int
	take    int
	hasTake bool
}

// Query starts a new query builder.
func (r *Repository[T]) Query() *QueryBuilder[T] {
	return &QueryBuilder[T]{repo: r}
}

// Where adds a predicate. Multiple calls combine left-to-right with "and".
func (q *QueryBuilder[T]) Where(pred filter.Expr) *QueryBuilder[T] {
	if q.pred == nil {
		q.pred = pred
	} else if pred != nil {
		q.pred = filter.And(q.pred, pred)
	}
	return q
}

// OrderBy appends ordering clauses; clause order is tie-break priority, so
// OrderBy(filter.Asc("Club"), filter.Desc("Score")) sorts by club first.
func (q *QueryBuilder[T]) OrderBy(orders ...filter.Order) *QueryBuilder[T] {
	q.orders = append(q.orders, orders...)
	return q
}

// Project limits the returned properties to a selector's members.
func (q *QueryBuilder[T]) Project(sel filter.Selector) *QueryBuilder[T] {
	q.project = sel
	return q
}

// Skip discards the first n matches client-side. The store has no native
// offset, so skipped rows are still fetched and paid for.
func (q *QueryBuilder[T]) Skip(n int) *QueryBuilder[T] {
	if n > 0 {
		q.skip = n
	}
	return q
}

// Take bounds the number of yielded items.
func (q *QueryBuilder[T]) Take(n int) *QueryBuilder[T] {
	q.take = n
	q.hasTake = true
	return q
}

// compile translates the predicate, ordering, and projection clauses into a
// store query. The physical page size is min(MaxPageSize, take+skip) with an
// unbounded take treated as a full page; the store clamps anything larger.
func (q *QueryBuilder[T]) compile() (store.Query, error) {
	var sq store.Query

	if q.pred != nil {
		text, err := filter.Translate(q.pred)
		if err != nil {
			return sq, err
		}
		sq.Filter = text
	}

	for _, o := range q.orders {
		names, err := filter.TranslateMembers(o.Member)
		if err != nil {
			return sq, err
		}
		sq.OrderBy = append(sq.OrderBy, store.Ordering{
			Property:   names[0],
			Descending: o.Direction == filter.Descending,
		})
	}

	if q.project != nil {
		names, err := filter.TranslateMembers(q.project)
		if err != nil {
			return sq, err
		}
		sq.Select = names
	}

	want := store.MaxPageSize
	if q.hasTake && q.take+q.skip < want {
		want = q.take + q.skip
	}
	if want < 1 {
		want = 1
	}
	sq.PageSize = int32(want)

	return sq, nil
}

// pageCursor is the explicit skip/take state threaded across continuation
// hops. Skip and take are not native to the store's protocol, so the window
// has to survive page boundaries here.
type pageCursor struct {
	token         string
	skipRemaining int
	yielded       int
}

// Stream executes the query lazily, yielding items in store order as pages
// arrive. The channel closes when the take bound is reached, the scan is
// exhausted, or the context ends. The sequence is not restartable.
func (q *QueryBuilder[T]) Stream(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T], q.repo.streamBuffer)

	go func() {
		defer close(out)

		fail := func(err error) {
			select {
			case out <- Result[T]{Err: err}:
			case <-ctx.Done():
			}
		}

		if q.hasTake && q.take <= 0 {
			return
		}

		sq, err := q.compile()
		if err != nil {
			fail(err)
			return
		}

		client, err := q.repo.handle.Acquire(ctx)
		if err != nil {
			fail(err)
			return
		}

		cursor := pageCursor{skipRemaining: q.skip}
		for {
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}

			sq.Token = cursor.token
			var page store.Page
			err := q.repo.retry.Do(ctx, func(ctx context.Context) error {
				var opErr error
				page, opErr = client.QuerySegment(ctx, sq)
				return opErr
			})
			if err != nil {
				fail(err)
				return
			}

			for _, row := range page.Rows {
				if cursor.skipRemaining > 0 {
					cursor.skipRemaining--
					continue
				}

				item, err := q.repo.codec.decode(row)
				select {
				case out <- Result[T]{Item: item, Err: err}:
				case <-ctx.Done():
					return
				}

				cursor.yielded++
				if q.hasTake && cursor.yielded >= q.take {
					return
				}
			}

			if page.Next == "" {
				return
			}
			cursor.token = page.Next
		}
	}()

	return out
}

// All drains the query into a slice, stopping at the first error.
func (q *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	for res := range q.Stream(ctx) {
		if res.Err != nil {
			return items, res.Err
		}
		items = append(items, res.Item)
	}
	return items, nil
}

// First returns the first match, or (nil, nil) when nothing matches.
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	items, err := q.Take(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Count pages through the matches counting rows, projecting nothing beyond
// the keys to keep transfer minimal. Skip and take do not apply.
func (q *QueryBuilder[T]) Count(ctx context.Context) (int, error) {
	sq, err := q.compile()
	if err != nil {
		return 0, err
	}
	sq.OrderBy = nil
	sq.Select = []string{}
	sq.PageSize = store.MaxPageSize

	client, err := q.repo.handle.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		var page store.Page
		err := q.repo.retry.Do(ctx, func(ctx context.Context) error {
			var opErr error
			page, opErr = client.QuerySegment(ctx, sq)
			return opErr
		})
		if err != nil {
			return total, err
		}

		total += len(page.Rows)
		if page.Next == "" {
			return total, nil
		}
		sq.Token = page.Next
	}
}

// Delete removes every match in key windows; see Repository.DeleteMatching.
func (q *QueryBuilder[T]) Delete(ctx context.Context) (int, error) {
	return q.repo.deleteWhere(ctx, q.pred)
}

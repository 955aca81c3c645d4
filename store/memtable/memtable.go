/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package memtable

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	tserrors "github.com/tidemark/tablestore/errors"
	"github.com/tidemark/tablestore/filter"
	"github.com/tidemark/tablestore/store"
)

// Table is an in-process store.TableClient. It keeps rows in memory, sorts
// scans by (PartitionKey, RowKey) unless an ordering is requested, and pages
// with offset tokens. It also carries fault-injection hooks so callers can
// exercise throttling and request accounting without a live store.
type Table struct {
	mu   sync.Mutex
	name string

	created bool
	rows    map[string]map[string]store.Row

	requests          int
	queries           int
	throttleRemaining int
}

// New creates an empty table.
func New(name string) *Table {
	return &Table{
		name: name,
		rows: make(map[string]map[string]store.Row),
	}
}

// ThrottleNext makes the next n requests fail with the transient throttling
// signal before doing any work.
func (t *Table) ThrottleNext(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.throttleRemaining = n
}

// Requests reports how many requests the table has received, including
// throttled ones.
func (t *Table) Requests() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requests
}

// QueryCount reports how many scan segments have been served.
func (t *Table) QueryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queries
}

// begin accounts for one request and applies pending fault injection.
// Callers must hold the mutex.
func (t *Table) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.requests++
	if t.throttleRemaining > 0 {
		t.throttleRemaining--
		return fmt.Errorf("%s: %w", t.name, tserrors.ErrThrottled)
	}
	return nil
}

func (t *Table) EnsureTable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return err
	}
	t.created = true
	if t.rows == nil {
		t.rows = make(map[string]map[string]store.Row)
	}
	return nil
}

func (t *Table) DropTable(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return err
	}
	t.created = false
	t.rows = make(map[string]map[string]store.Row)
	return nil
}

func (t *Table) Insert(ctx context.Context, row store.Row) (store.Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return store.Row{}, err
	}
	return t.insert(row)
}

func (t *Table) InsertOrReplace(ctx context.Context, row store.Row) (store.Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return store.Row{}, err
	}
	return t.insertOrReplace(row)
}

func (t *Table) Replace(ctx context.Context, row store.Row) (store.Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return store.Row{}, err
	}
	return t.replace(row)
}

func (t *Table) Delete(ctx context.Context, partitionKey, rowKey, etag string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return err
	}
	return t.delete(partitionKey, rowKey, etag)
}

func (t *Table) Get(ctx context.Context, partitionKey, rowKey string) (*store.Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return nil, err
	}
	row, ok := t.rows[partitionKey][rowKey]
	if !ok {
		return nil, nil
	}
	out := row.Clone()
	return &out, nil
}

// QuerySegment scans the whole table, filters, sorts, and slices one page.
// Tokens are offsets into the sorted match set, so concurrent mutation can
// shift page boundaries; that mirrors the weak consistency of a real scan.
func (t *Table) QuerySegment(ctx context.Context, q store.Query) (store.Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return store.Page{}, err
	}
	t.queries++

	var pred filter.Expr
	if q.Filter != "" {
		parsed, err := filter.Parse(q.Filter)
		if err != nil {
			return store.Page{}, err
		}
		pred = parsed
	}

	var matches []store.Row
	for _, partition := range t.rows {
		for _, row := range partition {
			if pred != nil {
				ok, err := filter.Match(pred, rowLookup(row))
				if err != nil {
					return store.Page{}, err
				}
				if !ok {
					continue
				}
			}
			matches = append(matches, row)
		}
	}

	if err := sortRows(matches, q.OrderBy); err != nil {
		return store.Page{}, err
	}

	offset := 0
	if q.Token != "" {
		parsed, err := strconv.Atoi(q.Token)
		if err != nil || parsed < 0 {
			return store.Page{}, fmt.Errorf("memtable: malformed continuation token %q", q.Token)
		}
		offset = parsed
	}

	size := int(q.PageSize)
	if size <= 0 || size > store.MaxPageSize {
		size = store.MaxPageSize
	}

	var page store.Page
	for i := offset; i < len(matches) && len(page.Rows) < size; i++ {
		page.Rows = append(page.Rows, project(matches[i], q.Select))
	}
	if end := offset + len(page.Rows); end < len(matches) {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

// SubmitBatch validates the batch shape, dry-runs every operation against the
// current state, and only then applies. A batch therefore commits all of its
// operations or none of them.
func (t *Table) SubmitBatch(ctx context.Context, b store.Batch) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(ctx); err != nil {
		return 0, err
	}

	if len(b.Operations) > store.MaxBatchOperations {
		return 0, fmt.Errorf("%w: %d operations", tserrors.ErrBatchTooLarge, len(b.Operations))
	}
	for _, op := range b.Operations {
		if op.Row.PartitionKey != b.PartitionKey {
			return 0, fmt.Errorf("%w: %q and %q", tserrors.ErrMixedPartitions, b.PartitionKey, op.Row.PartitionKey)
		}
	}

	for _, op := range b.Operations {
		if err := t.check(op); err != nil {
			return 0, err
		}
	}
	for _, op := range b.Operations {
		t.apply(op)
	}
	return len(b.Operations), nil
}

func (t *Table) check(op store.Operation) error {
	current, exists := t.rows[op.Row.PartitionKey][op.Row.RowKey]
	switch op.Kind {
	case store.OpInsert:
		if exists {
			return tserrors.NewAlreadyExistsError(op.Row.PartitionKey, op.Row.RowKey)
		}
	case store.OpReplace, store.OpDelete:
		if !exists {
			return tserrors.NewNotFoundError(op.Row.PartitionKey, op.Row.RowKey)
		}
		if op.Row.ETag != store.ForceTag && op.Row.ETag != current.ETag {
			return tserrors.NewConflictError(op.Row.PartitionKey, op.Row.RowKey)
		}
	}
	return nil
}

func (t *Table) apply(op store.Operation) {
	switch op.Kind {
	case store.OpDelete:
		delete(t.rows[op.Row.PartitionKey], op.Row.RowKey)
	default:
		t.put(op.Row)
	}
}

func (t *Table) insert(row store.Row) (store.Row, error) {
	if _, exists := t.rows[row.PartitionKey][row.RowKey]; exists {
		return store.Row{}, tserrors.NewAlreadyExistsError(row.PartitionKey, row.RowKey)
	}
	return t.put(row), nil
}

func (t *Table) insertOrReplace(row store.Row) (store.Row, error) {
	return t.put(row), nil
}

func (t *Table) replace(row store.Row) (store.Row, error) {
	current, exists := t.rows[row.PartitionKey][row.RowKey]
	if !exists {
		return store.Row{}, tserrors.NewNotFoundError(row.PartitionKey, row.RowKey)
	}
	if row.ETag != store.ForceTag && row.ETag != current.ETag {
		return store.Row{}, tserrors.NewConflictError(row.PartitionKey, row.RowKey)
	}
	return t.put(row), nil
}

func (t *Table) delete(partitionKey, rowKey, etag string) error {
	current, exists := t.rows[partitionKey][rowKey]
	if !exists {
		return tserrors.NewNotFoundError(partitionKey, rowKey)
	}
	if etag != store.ForceTag && etag != current.ETag {
		return tserrors.NewConflictError(partitionKey, rowKey)
	}
	delete(t.rows[partitionKey], rowKey)
	return nil
}

// put stores a clone of the row under a fresh version tag and returns it.
func (t *Table) put(row store.Row) store.Row {
	stored := row.Clone()
	stored.ETag = uuid.NewString()
	partition, ok := t.rows[stored.PartitionKey]
	if !ok {
		partition = make(map[string]store.Row)
		t.rows[stored.PartitionKey] = partition
	}
	partition[stored.RowKey] = stored
	return stored.Clone()
}

// rowLookup exposes a row's properties to the predicate matcher, with the
// keys and version tag addressable as virtual properties.
func rowLookup(row store.Row) func(name string) (any, bool) {
	return func(name string) (any, bool) {
		switch name {
		case "PartitionKey":
			return row.PartitionKey, true
		case "RowKey":
			return row.RowKey, true
		case "ETag":
			return row.ETag, true
		}
		v, ok := row.Properties[name]
		return v, ok
	}
}

func sortRows(rows []store.Row, orderBy []store.Ordering) error {
	var sortErr error
	less := func(a, b store.Row) bool {
		for _, o := range orderBy {
			av, aok := rowLookup(a)(o.Property)
			bv, bok := rowLookup(b)(o.Property)
			if !aok || !bok {
				// Rows missing the sort property collate first.
				if aok != bok {
					return !aok != o.Descending
				}
				continue
			}
			c, err := filter.CompareValues(av, bv)
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				continue
			}
			if c != 0 {
				return (c < 0) != o.Descending
			}
		}
		if a.PartitionKey != b.PartitionKey {
			return a.PartitionKey < b.PartitionKey
		}
		return a.RowKey < b.RowKey
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	return sortErr
}

// project applies the Select clause. Nil keeps everything; an empty, non-nil
// clause strips every property, leaving a keys-only row.
func project(row store.Row, selected []string) store.Row {
	out := row.Clone()
	if selected == nil {
		return out
	}
	props := make(map[string]any, len(selected))
	for _, name := range selected {
		if v, ok := out.Properties[name]; ok {
			props[name] = v
		}
	}
	out.Properties = props
	return out
}

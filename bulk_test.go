/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/tidemark/tablestore/errors"
	"github.com/tidemark/tablestore/filter"
	"github.com/tidemark/tablestore/store/memtable"
)

func makeNotes(n int) []note {
	notes := make([]note, 0, n)
	for i := 0; i < n; i++ {
		notes = append(notes, note{ID: fmt.Sprintf("n%04d", i), Body: "body"})
	}
	return notes
}

func TestInsertAll(t *testing.T) {
	repo, _ := newNoteRepo(t)
	ctx := context.Background()

	inserted, err := repo.InsertAll(ctx, makeNotes(100))
	require.NoError(t, err)
	assert.Equal(t, 100, inserted)

	total, err := repo.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, total)
}

func TestInsertAllReportsPartialSuccess(t *testing.T) {
	repo, _ := newNoteRepo(t)
	ctx := context.Background()

	// One key is pre-occupied, so its insert fails inside the first window.
	_, err := repo.Insert(ctx, note{ID: "n0003", Body: "taken"})
	require.NoError(t, err)

	inserted, err := repo.InsertAll(ctx, makeNotes(20))
	require.Error(t, err)
	assert.True(t, tserrors.IsAlreadyExists(err))
	assert.Less(t, inserted, 20)
}

func TestInsertAllRespectsWindow(t *testing.T) {
	table := memtable.New("notes")
	repo, err := New[note](table,
		WithRetryPolicy(testRetryPolicy()),
		WithBulkWindow(4),
	)
	require.NoError(t, err)
	defer repo.Close()

	inserted, err := repo.InsertAll(context.Background(), makeNotes(10))
	require.NoError(t, err)
	assert.Equal(t, 10, inserted)
}

func TestUpsertAllOverwrites(t *testing.T) {
	repo, _ := newNoteRepo(t)
	ctx := context.Background()

	_, err := repo.InsertAll(ctx, makeNotes(10))
	require.NoError(t, err)

	updated := makeNotes(10)
	for i := range updated {
		updated[i].Body = "rewritten"
	}
	n, err := repo.UpsertAll(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	got, err := repo.Get(ctx, "n0005")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Body)
}

func TestDeleteAll(t *testing.T) {
	repo, _ := newNoteRepo(t)
	ctx := context.Background()

	stored := make([]note, 0, 10)
	for _, n := range makeNotes(10) {
		s, err := repo.Insert(ctx, n)
		require.NoError(t, err)
		stored = append(stored, s)
	}

	deleted, err := repo.DeleteAll(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, 10, deleted)

	total, err := repo.Query().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBulkHonorsCancellation(t *testing.T) {
	repo, _ := newNoteRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inserted, err := repo.InsertAll(ctx, makeNotes(10))
	require.Error(t, err)
	assert.Zero(t, inserted)
}

// DeleteMatching pages keys in windows and terminates once a window comes
// back empty, so the matched set can exceed any single page.
func TestDeleteMatchingWindows(t *testing.T) {
	table := memtable.New("notes")
	repo, err := New[note](table,
		WithRetryPolicy(testRetryPolicy()),
		WithDeleteWindow(7),
	)
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	_, err = repo.InsertAll(ctx, makeNotes(30))
	require.NoError(t, err)

	deleted, err := repo.DeleteMatching(ctx, filter.StartsWith("ID", "n00"))
	require.NoError(t, err)
	assert.Equal(t, 30, deleted)

	total, err := repo.Query().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeleteMatchingNilPredicatePurges(t *testing.T) {
	repo, _ := newNoteRepo(t)
	ctx := context.Background()

	_, err := repo.InsertAll(ctx, makeNotes(12))
	require.NoError(t, err)

	deleted, err := repo.DeleteMatching(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, deleted)
}

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

	"github.com/tidemark/tablestore/filter"
)

func seedPlayers(t *testing.T, repo *Repository[player], n int) {
	t.Helper()
	ctx := context.Background()
	clubs := []string{"Rapid", "Aurora", "Meridian", "Harbor"}
	for i := 0; i < n; i++ {
		_, err := repo.Insert(ctx, player{
			ID:     fmt.Sprintf("p%04d", i),
			Name:   fmt.Sprintf("Player %d", i),
			Club:   clubs[i%len(clubs)],
			Rating: 1200 + (i*37)%1400,
		})
		require.NoError(t, err)
	}
}

func seedNotes(t *testing.T, repo *Repository[note], n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := repo.Insert(ctx, note{ID: fmt.Sprintf("n%04d", i), Body: "body"})
		require.NoError(t, err)
	}
}

func TestQueryWhere(t *testing.T) {
	repo, _ := newPlayerRepo(t)
	seedPlayers(t, repo, 40)

	got, err := repo.Query().Where(filter.Eq("Club", "Rapid")).All(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 10)
	for _, p := range got {
		assert.Equal(t, "Rapid", p.Club)
	}
}

func TestQueryWhereChainsWithAnd(t *testing.T) {
	repo, _ := newPlayerRepo(t)
	seedPlayers(t, repo, 40)

	got, err := repo.Query().
		Where(filter.Eq("Club", "Rapid")).
		Where(filter.Ge("Rating", 1500)).
		All(context.Background())
	require.NoError(t, err)
	for _, p := range got {
		assert.Equal(t, "Rapid", p.Club)
		assert.GreaterOrEqual(t, p.Rating, 1500)
	}
}

func TestQueryOrderBy(t *testing.T) {
	repo, _ := newPlayerRepo(t)
	seedPlayers(t, repo, 30)

	got, err := repo.Query().
		OrderBy(filter.Desc("Rating")).
		All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 30)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Rating, got[i].Rating)
	}
}

func TestQuerySkipTakeWindow(t *testing.T) {
	repo, _ := newNoteRepo(t)
	seedNotes(t, repo, 30)

	got, err := repo.Query().Skip(10).Take(5).All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 5)
	// Default scan order is (PartitionKey, RowKey), so ids are sequential.
	for i, n := range got {
		assert.Equal(t, fmt.Sprintf("n%04d", 10+i), n.ID)
	}
}

func TestQueryTakeZeroYieldsNothing(t *testing.T) {
	repo, table := newNoteRepo(t)
	seedNotes(t, repo, 3)
	before := table.QueryCount()

	got, err := repo.Query().Take(0).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, before, table.QueryCount(), "an empty window never reaches the store")
}

func TestQuerySkipBeyondEnd(t *testing.T) {
	repo, _ := newNoteRepo(t)
	seedNotes(t, repo, 5)

	got, err := repo.Query().Skip(100).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

// A deep skip/take window pages through the scan: skipped rows are fetched
// and discarded client-side, so the window costs one fetch per thousand rows
// passed over.
func TestQueryDeepWindowPages(t *testing.T) {
	if testing.Short() {
		t.Skip("seeds 2500 rows")
	}
	repo, table := newNoteRepo(t)
	seedNotes(t, repo, 2500)

	before := table.QueryCount()
	got, err := repo.Query().Skip(2400).Take(50).All(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 50)
	for i, n := range got {
		assert.Equal(t, fmt.Sprintf("n%04d", 2400+i), n.ID)
	}
	assert.GreaterOrEqual(t, table.QueryCount()-before, 3, "the window spans at least three segments")
}

func TestQueryFirst(t *testing.T) {
	repo, _ := newPlayerRepo(t)
	seedPlayers(t, repo, 12)

	first, err := repo.Query().
		Where(filter.Eq("Club", "Aurora")).
		OrderBy(filter.Desc("Rating")).
		First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Aurora", first.Club)

	none, err := repo.Query().Where(filter.Eq("Club", "Nowhere")).First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestQueryCount(t *testing.T) {
	repo, _ := newPlayerRepo(t)
	seedPlayers(t, repo, 40)

	total, err := repo.Query().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, total)

	rapid, err := repo.Query().Where(filter.Eq("Club", "Rapid")).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, rapid)
}

func TestQueryProjection(t *testing.T) {
	repo, _ := newPlayerRepo(t)
	seedPlayers(t, repo, 8)

	got, err := repo.Query().
		Where(filter.Eq("Club", "Rapid")).
		Project(filter.Fields("ID", "Club")).
		All(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, p := range got {
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "Rapid", p.Club)
		assert.Empty(t, p.Name, "unselected properties stay zero")
		assert.Zero(t, p.Rating)
	}
}

func TestQueryStreamStopsOnCancel(t *testing.T) {
	repo, _ := newNoteRepo(t)
	seedNotes(t, repo, 20)

	ctx, cancel := context.WithCancel(context.Background())
	results := repo.Query().Stream(ctx)

	// Drain a couple of items, then abandon the stream.
	<-results
	<-results
	cancel()

	for range results {
	}
}

func TestQueryRetriesThrottledSegments(t *testing.T) {
	repo, table := newNoteRepo(t)
	seedNotes(t, repo, 10)

	table.ThrottleNext(2)
	got, err := repo.Query().All(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestQueryUntranslatablePredicateFails(t *testing.T) {
	repo, _ := newNoteRepo(t)

	_, err := repo.Query().Where(filter.Eq("Body", struct{ X int }{})).All(context.Background())
	assert.Error(t, err)
}

func TestQueryDeleteByPredicate(t *testing.T) {
	repo, _ := newPlayerRepo(t)
	seedPlayers(t, repo, 40)
	ctx := context.Background()

	deleted, err := repo.Query().Where(filter.Eq("Club", "Rapid")).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, deleted)

	remaining, err := repo.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, remaining)

	none, err := repo.Query().Where(filter.Eq("Club", "Rapid")).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, none)
}

/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"testing"
	"time"

	"github.com/tidemark/tablestore/registry"
	"github.com/tidemark/tablestore/store/memtable"
)

// player is partitioned by club, so one club's roster shares a partition.
type player struct {
	ID     string `table:"ID"`
	Name   string `table:"Name"`
	Club   string `table:"Club"`
	Rating int    `table:"Rating"`
	Tag    string `table:"Tag"`
}

// note has a one-field identity; both keys derive from ID.
type note struct {
	ID   string `table:"ID"`
	Body string `table:"Body"`
	Rev  string `table:"Rev"`
}

func init() {
	registry.RegisterKeyMap[player](registry.KeyMap{
		PartitionKey: "CLUB#{Club}",
		RowKey:       "PLAYER#{ID}",
		ETagField:    "Tag",
	})
	registry.RegisterKeyMap[note](registry.KeyMap{
		PartitionKey: "NOTE#{ID}",
		RowKey:       "NOTE#{ID}",
		ETagField:    "Rev",
	})
}

// testRetryPolicy keeps backoff waits out of the test clock.
func testRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		MinBackoff:  time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
	}
}

func newPlayerRepo(t *testing.T) (*Repository[player], *memtable.Table) {
	t.Helper()
	table := memtable.New("players")
	repo, err := New[player](table, WithRetryPolicy(testRetryPolicy()))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo, table
}

func newNoteRepo(t *testing.T) (*Repository[note], *memtable.Table) {
	t.Helper()
	table := memtable.New("notes")
	repo, err := New[note](table, WithRetryPolicy(testRetryPolicy()))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo, table
}

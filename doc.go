/*
Package tablestore provides a typed data-access layer over partitioned,
eventually-consistent table stores, offering key-map-driven persistence,
a typed filter-expression language, and resilient paging over large result
sets.

Key Features:
  - Type-safe repositories using Go generics
  - Typed predicates compiled to a portable textual filter grammar
  - Continuation-token paging with client-side skip/take windows
  - Bounded retry with randomized backoff around every physical request
  - Partition-scoped atomic batches and bounded bulk fan-out
  - Pluggable backends (in-memory, DynamoDB)

Basic Usage:

	// Describe how Player maps onto table keys
	registry.RegisterKeyMap[Player](registry.KeyMap{
		PartitionKey: "PLAYER#{ID}",
		RowKey:       "PLAYER#{ID}",
		ETagField:    "ETag",
	})

	// Build a repository over a backend
	repo, _ := tablestore.New[Player](memtable.New("players"))
	defer repo.Close()

	// Store and query
	_, err := repo.Insert(ctx, player)
	top, err := repo.Query().
		Where(filter.Ge("Rating", 2000)).
		OrderBy(filter.Desc("Rating")).
		Take(10).
		All(ctx)

For more information, see the documentation at https://github.com/tidemark/tablestore
*/
package tablestore

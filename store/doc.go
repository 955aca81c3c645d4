/*
Package store defines the upstream surface the repository core drives: rows
keyed by partition and row key, point operations with optimistic-concurrency
version tags, a segmented scan with opaque continuation tokens, and a
single-partition atomic batch submission.

Two providers implement TableClient:

  - store/memtable: an in-process table service that parses and evaluates the
    filter grammar itself. It backs the test suite and the CLI.
  - store/dynamo: a thin adapter over AWS DynamoDB.

The protocol constants live here: MaxPageSize (1000 rows per physical page),
MaxBatchOperations (100 per atomic batch), and ForceTag ("*", which bypasses
the version check).
*/
package store

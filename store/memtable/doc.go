/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

// Package memtable implements the table client against process memory. It is
// the reference provider: scans evaluate the textual filter grammar with the
// structural matcher, batches commit atomically per partition, and hooks for
// throttling and request counting make it the workhorse of the test suite.
package memtable

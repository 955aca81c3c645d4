/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"sync"

	"github.com/tidemark/tablestore/store"
)

// Handle shares one store client across every call issued against a logical
// table. Initialization is lazy and idempotent under the mutex: the first
// caller ensures the table exists, later callers reuse the session. Reset
// clears the initialized flag after a destructive operation so the next
// caller rebuilds.
type Handle struct {
	mu     sync.Mutex
	client store.TableClient
	ready  bool
}

// NewHandle wraps a store client. The client is injected, never ambient.
func NewHandle(client store.TableClient) *Handle {
	return &Handle{client: client}
}

// Acquire returns the shared client, ensuring the table exists on first use.
func (h *Handle) Acquire(ctx context.Context) (store.TableClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.ready {
		if err := h.client.EnsureTable(ctx); err != nil {
			return nil, err
		}
		h.ready = true
	}
	return h.client, nil
}

// Reset forces the next Acquire to re-initialize.
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = false
}

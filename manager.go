/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"fmt"
	"sync"
)

// Manager holds a collection of repositories keyed by entity name. Its
// methods are not generic; callers type-assert the returned value to the
// concrete *Repository[T].
type Manager interface {
	// Register stores a repository under a given key (for example, "Player").
	Register(key string, repo any) error
	// Get retrieves the registered repository for a given key.
	Get(key string) (any, error)
}

// manager is a thread-safe Manager implementation.
type manager struct {
	mu    sync.RWMutex
	repos map[string]any
}

// NewManager creates an empty Manager.
func NewManager() Manager {
	return &manager{
		repos: make(map[string]any),
	}
}

func (m *manager) Register(key string, repo any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.repos[key]; exists {
		return fmt.Errorf("repository with key %q already registered", key)
	}
	m.repos[key] = repo
	return nil
}

func (m *manager) Get(key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	repo, exists := m.repos[key]
	if !exists {
		return nil, fmt.Errorf("repository with key %q not found", key)
	}
	return repo, nil
}

// RegisterRepository registers a typed repository with a Manager.
func RegisterRepository[T any](m Manager, key string, repo *Repository[T]) error {
	return m.Register(key, repo)
}

// GetRepository retrieves a typed repository from a Manager, asserting the
// element type.
func GetRepository[T any](m Manager, key string) (*Repository[T], error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	repo, ok := v.(*Repository[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("repository with key %q does not hold %T entities", key, zero)
	}
	return repo, nil
}

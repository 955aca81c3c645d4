/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// KeyMap binds a Go type to the store's two-part key via macro templates.
// Templates reference entity fields as "{Field}", e.g. "PLAYER#{ID}".
type KeyMap struct {
	// PartitionKey is the partition-key template.
	PartitionKey string
	// RowKey is the row-key template.
	RowKey string
	// EntityType is the discriminator property injected on write. Defaults to
	// the Go type name.
	EntityType string
	// ETagField optionally names the entity field that mirrors the store's
	// version tag. The field never persists as a property.
	ETagField string
}

var (
	keyMaps = make(map[reflect.Type]KeyMap)
	mu      sync.RWMutex
)

var macroPattern = regexp.MustCompile(`\{([^}]+)\}`)

// RegisterKeyMap associates type T with a key map. Re-registration replaces
// the previous entry.
func RegisterKeyMap[T any](km KeyMap) {
	var zero T
	t := reflect.TypeOf(zero)

	if km.PartitionKey == "" || km.RowKey == "" {
		panic(fmt.Sprintf("registry: key map for %v needs both key templates", t))
	}
	if km.EntityType == "" {
		km.EntityType = t.Name()
	}

	mu.Lock()
	defer mu.Unlock()
	keyMaps[t] = km
}

// GetKeyMap retrieves the key map for type T, if any.
func GetKeyMap[T any]() (KeyMap, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	km, ok := keyMaps[t]
	return km, ok
}

// ExpandTemplate replaces every {Field} macro with the corresponding property
// value. A macro naming a missing or non-scalar property is an error.
func ExpandTemplate(template string, props map[string]any) (string, error) {
	var expandErr error
	expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
		field := macro[1 : len(macro)-1]
		v, ok := props[field]
		if !ok {
			if expandErr == nil {
				expandErr = fmt.Errorf("registry: template %q references missing field %q", template, field)
			}
			return ""
		}
		s, err := formatScalar(v)
		if err != nil {
			if expandErr == nil {
				expandErr = fmt.Errorf("registry: template %q field %q: %w", template, field, err)
			}
			return ""
		}
		return s
	})
	return expanded, expandErr
}

// ExpandKey expands both key templates from a single raw string key, replacing
// every macro occurrence with the key. This covers the common case of a
// one-field identity without materializing the entity.
func ExpandKey(km KeyMap, key string) (partitionKey, rowKey string) {
	partitionKey = macroPattern.ReplaceAllString(km.PartitionKey, key)
	rowKey = macroPattern.ReplaceAllString(km.RowKey, key)
	return partitionKey, rowKey
}

func formatScalar(v any) (string, error) {
	switch tv := v.(type) {
	case string:
		return tv, nil
	case bool:
		return strconv.FormatBool(tv), nil
	case int:
		return strconv.Itoa(tv), nil
	case int32:
		return strconv.FormatInt(int64(tv), 10), nil
	case int64:
		return strconv.FormatInt(tv, 10), nil
	case float64:
		return strconv.FormatFloat(tv, 'g', -1, 64), nil
	case time.Time:
		return tv.UTC().Format(time.RFC3339), nil
	case *string:
		if tv == nil {
			return "", fmt.Errorf("nil value")
		}
		return *tv, nil
	default:
		return "", fmt.Errorf("value of type %T cannot appear in a key", v)
	}
}

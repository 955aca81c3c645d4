/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package tablestore

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	tserrors "github.com/tidemark/tablestore/errors"
	"github.com/tidemark/tablestore/registry"
	"github.com/tidemark/tablestore/store"
)

// entityTypeProperty is injected on every write so heterogeneous rows remain
// distinguishable in one table.
const entityTypeProperty = "EntityType"

// codec converts between entities of type T and store rows, expanding the
// registered key-map macros and carrying the version tag through the
// configured ETag field.
type codec[T any] struct {
	keyMap registry.KeyMap
}

func newCodec[T any]() (codec[T], error) {
	km, ok := registry.GetKeyMap[T]()
	if !ok {
		var zero T
		return codec[T]{}, fmt.Errorf("%w: %T", tserrors.ErrNoKeyMap, zero)
	}
	return codec[T]{keyMap: km}, nil
}

func (c codec[T]) encode(entity T) (store.Row, error) {
	props := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "table",
		Result:  &props,
	})
	if err != nil {
		return store.Row{}, err
	}
	if err := dec.Decode(entity); err != nil {
		return store.Row{}, fmt.Errorf("encode entity: %w", err)
	}

	var etag string
	if c.keyMap.ETagField != "" {
		if v, ok := props[c.keyMap.ETagField].(string); ok {
			etag = v
		}
		delete(props, c.keyMap.ETagField)
	}

	pk, err := registry.ExpandTemplate(c.keyMap.PartitionKey, props)
	if err != nil {
		return store.Row{}, err
	}
	rk, err := registry.ExpandTemplate(c.keyMap.RowKey, props)
	if err != nil {
		return store.Row{}, err
	}

	props[entityTypeProperty] = c.keyMap.EntityType

	return store.Row{
		PartitionKey: pk,
		RowKey:       rk,
		ETag:         etag,
		Properties:   props,
	}, nil
}

func (c codec[T]) decode(row store.Row) (T, error) {
	var entity T

	props := make(map[string]any, len(row.Properties)+1)
	for k, v := range row.Properties {
		props[k] = v
	}
	delete(props, entityTypeProperty)
	if c.keyMap.ETagField != "" {
		props[c.keyMap.ETagField] = row.ETag
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "table",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		Result:           &entity,
	})
	if err != nil {
		return entity, err
	}
	if err := dec.Decode(props); err != nil {
		return entity, fmt.Errorf("decode row (%q, %q): %w", row.PartitionKey, row.RowKey, err)
	}
	return entity, nil
}

// keys expands the key templates for a raw string key, covering one-field
// identities without materializing the entity.
func (c codec[T]) keys(key string) (partitionKey, rowKey string) {
	return registry.ExpandKey(c.keyMap, key)
}

/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyedEntity struct {
	ID   string
	Club string
}

func TestRegisterKeyMap(t *testing.T) {
	RegisterKeyMap[keyedEntity](KeyMap{
		PartitionKey: "CLUB#{Club}",
		RowKey:       "PLAYER#{ID}",
	})

	km, ok := GetKeyMap[keyedEntity]()
	require.True(t, ok)
	assert.Equal(t, "CLUB#{Club}", km.PartitionKey)
	assert.Equal(t, "keyedEntity", km.EntityType, "entity type defaults to the Go type name")
}

func TestRegisterKeyMapPanicsOnMissingTemplates(t *testing.T) {
	assert.Panics(t, func() {
		RegisterKeyMap[keyedEntity](KeyMap{PartitionKey: "P"})
	})
}

func TestExpandTemplate(t *testing.T) {
	props := map[string]any{"ID": "42", "Club": "TTOakville", "Rank": 7}

	t.Run("StringField", func(t *testing.T) {
		got, err := ExpandTemplate("CLUB#{Club}", props)
		require.NoError(t, err)
		assert.Equal(t, "CLUB#TTOakville", got)
	})

	t.Run("NumericField", func(t *testing.T) {
		got, err := ExpandTemplate("RANK#{Rank}", props)
		require.NoError(t, err)
		assert.Equal(t, "RANK#7", got)
	})

	t.Run("StaticTemplate", func(t *testing.T) {
		got, err := ExpandTemplate("PROFILE", props)
		require.NoError(t, err)
		assert.Equal(t, "PROFILE", got)
	})

	t.Run("MissingField", func(t *testing.T) {
		_, err := ExpandTemplate("USER#{Email}", props)
		require.Error(t, err)
	})
}

func TestExpandKey(t *testing.T) {
	km := KeyMap{PartitionKey: "PLAYER#{ID}", RowKey: "PROFILE#{ID}"}
	pk, rk := ExpandKey(km, "42")
	assert.Equal(t, "PLAYER#42", pk)
	assert.Equal(t, "PROFILE#42", rk)
}

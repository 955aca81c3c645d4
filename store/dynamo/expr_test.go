/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark/tablestore/store"
)

func TestCompileFilterComparison(t *testing.T) {
	b := newExprBuilder()
	rendered, err := compileFilter(b, "Rating ge 1500")
	require.NoError(t, err)

	assert.Equal(t, "#n0 >= :v0", rendered)
	assert.Equal(t, map[string]string{"#n0": "Rating"}, b.names)
	require.Contains(t, b.values, ":v0")
	n, ok := b.values[":v0"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "1500", n.Value)
}

func TestCompileFilterLogical(t *testing.T) {
	b := newExprBuilder()
	rendered, err := compileFilter(b, "(Rating ge 1500) and (Club eq 'Rapid')")
	require.NoError(t, err)

	assert.Equal(t, "(#n0 >= :v0) AND (#n1 = :v1)", rendered)
	assert.Equal(t, "Club", b.names["#n1"])
	s, ok := b.values[":v1"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "Rapid", s.Value)
}

func TestCompileFilterNegationAndCalls(t *testing.T) {
	b := newExprBuilder()
	rendered, err := compileFilter(b, "not (startswith(Name, 'Jo'))")
	require.NoError(t, err)
	assert.Equal(t, "NOT (begins_with(#n0, :v0))", rendered)

	b = newExprBuilder()
	rendered, err = compileFilter(b, "contains(Name, 'ar')")
	require.NoError(t, err)
	assert.Equal(t, "contains(#n0, :v0)", rendered)
}

func TestCompileFilterOperators(t *testing.T) {
	cases := map[string]string{
		"A eq 1": "#n0 = :v0",
		"A ne 1": "#n0 <> :v0",
		"A lt 1": "#n0 < :v0",
		"A le 1": "#n0 <= :v0",
		"A gt 1": "#n0 > :v0",
		"A ge 1": "#n0 >= :v0",
	}
	for in, want := range cases {
		b := newExprBuilder()
		rendered, err := compileFilter(b, in)
		require.NoError(t, err, in)
		assert.Equal(t, want, rendered, in)
	}
}

func TestCompileFilterDatetimeLiteral(t *testing.T) {
	b := newExprBuilder()
	_, err := compileFilter(b, "When lt datetime'2024-06-01T12:00:00Z'")
	require.NoError(t, err)

	s, ok := b.values[":v0"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "2024-06-01T12:00:00Z", s.Value)
}

func TestCompileProjectionCarriesKeys(t *testing.T) {
	b := newExprBuilder()
	rendered := compileProjection(b, []string{"Name", "Rating"})

	assert.Equal(t, "#n0, #n1, #n2, #n3, #n4", rendered)
	assert.Equal(t, attrPartitionKey, b.names["#n0"])
	assert.Equal(t, attrRowKey, b.names["#n1"])
	assert.Equal(t, attrETag, b.names["#n2"])
	assert.Equal(t, "Name", b.names["#n3"])
	assert.Equal(t, "Rating", b.names["#n4"])

	// Key attributes in the clause are not duplicated.
	b = newExprBuilder()
	rendered = compileProjection(b, []string{attrPartitionKey})
	assert.Equal(t, "#n0, #n1, #n2", rendered)
}

func TestMarshalScalarDatetime(t *testing.T) {
	av, err := marshalScalar(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	s, ok := av.(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "2024-06-01T12:00:00Z", s.Value)
}

func TestTokenRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		attrPartitionKey: &types.AttributeValueMemberS{Value: "CLUB#Rapid"},
		attrRowKey:       &types.AttributeValueMemberS{Value: "PLAYER#p1"},
	}

	token, err := encodeToken(key)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := decodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = decodeToken("%%%not-base64%%%")
	assert.Error(t, err)
}

func rowFixture() store.Row {
	return store.Row{
		PartitionKey: "CLUB#Rapid",
		RowKey:       "PLAYER#p1",
		ETag:         "v7",
		Properties: map[string]any{
			"Name":   "Mara",
			"Rating": 1720,
		},
	}
}

func TestRowMarshalRoundTrip(t *testing.T) {
	in := rowFixture()
	item, err := marshalRow(in)
	require.NoError(t, err)

	out, err := unmarshalRow(item)
	require.NoError(t, err)

	assert.Equal(t, in.PartitionKey, out.PartitionKey)
	assert.Equal(t, in.RowKey, out.RowKey)
	assert.Equal(t, in.ETag, out.ETag)
	assert.Equal(t, "Mara", out.Properties["Name"])
}

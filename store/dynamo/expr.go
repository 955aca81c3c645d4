/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package dynamo

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	tserrors "github.com/tidemark/tablestore/errors"
	"github.com/tidemark/tablestore/filter"
)

// exprBuilder compiles a parsed predicate tree into a DynamoDB filter
// expression with attribute name/value placeholders.
type exprBuilder struct {
	names  map[string]string
	values map[string]types.AttributeValue
}

func newExprBuilder() *exprBuilder {
	return &exprBuilder{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
}

func (b *exprBuilder) name(member string) string {
	placeholder := fmt.Sprintf("#n%d", len(b.names))
	b.names[placeholder] = member
	return placeholder
}

func (b *exprBuilder) value(v any) (string, error) {
	av, err := marshalScalar(v)
	if err != nil {
		return "", err
	}
	placeholder := fmt.Sprintf(":v%d", len(b.values))
	b.values[placeholder] = av
	return placeholder, nil
}

// compile renders one predicate node. Logical operands are always
// parenthesized, matching the textual grammar's shape.
func (b *exprBuilder) compile(e filter.Expr) (string, error) {
	switch n := e.(type) {
	case filter.Comparison:
		op, err := dynamoOp(n.Op)
		if err != nil {
			return "", err
		}
		vp, err := b.value(n.Value.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", b.name(n.Member.Name), op, vp), nil

	case filter.Conjunction:
		l, err := b.compile(n.Left)
		if err != nil {
			return "", err
		}
		r, err := b.compile(n.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s) AND (%s)", l, r), nil

	case filter.Disjunction:
		l, err := b.compile(n.Left)
		if err != nil {
			return "", err
		}
		r, err := b.compile(n.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s) OR (%s)", l, r), nil

	case filter.Negation:
		inner, err := b.compile(n.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("NOT (%s)", inner), nil

	case filter.Call:
		vp, err := b.value(n.Arg.Value)
		if err != nil {
			return "", err
		}
		switch n.Func {
		case filter.FuncStartsWith:
			return fmt.Sprintf("begins_with(%s, %s)", b.name(n.Member.Name), vp), nil
		case filter.FuncContains:
			return fmt.Sprintf("contains(%s, %s)", b.name(n.Member.Name), vp), nil
		}
		return "", tserrors.NewUnsupportedExpressionError("function", string(n.Func))

	default:
		return "", tserrors.NewUnsupportedExpressionError("node", fmt.Sprintf("%T", e))
	}
}

func dynamoOp(op filter.Op) (string, error) {
	switch op {
	case filter.OpEq:
		return "=", nil
	case filter.OpNe:
		return "<>", nil
	case filter.OpLt:
		return "<", nil
	case filter.OpLe:
		return "<=", nil
	case filter.OpGt:
		return ">", nil
	case filter.OpGe:
		return ">=", nil
	}
	return "", tserrors.NewUnsupportedExpressionError("operator", fmt.Sprintf("%s", op))
}

// compileFilter parses a textual predicate and renders it for DynamoDB.
func compileFilter(b *exprBuilder, text string) (string, error) {
	pred, err := filter.Parse(text)
	if err != nil {
		return "", err
	}
	return b.compile(pred)
}

// compileProjection renders a Select clause, always carrying the key
// attributes and the version tag so rows stay addressable.
func compileProjection(b *exprBuilder, selected []string) string {
	parts := []string{
		b.name(attrPartitionKey),
		b.name(attrRowKey),
		b.name(attrETag),
	}
	for _, name := range selected {
		switch name {
		case attrPartitionKey, attrRowKey, attrETag:
			continue
		}
		parts = append(parts, b.name(name))
	}
	return strings.Join(parts, ", ")
}

// marshalScalar folds the grammar's literal kinds onto DynamoDB attribute
// values. Datetimes travel as RFC 3339 strings so ordering comparisons hold.
func marshalScalar(v any) (types.AttributeValue, error) {
	switch tv := v.(type) {
	case time.Time:
		return &types.AttributeValueMemberS{Value: tv.UTC().Format(time.RFC3339Nano)}, nil
	case strfmt.DateTime:
		return marshalScalar(time.Time(tv))
	case uuid.UUID:
		return &types.AttributeValueMemberS{Value: tv.String()}, nil
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dynamo: marshal literal %T: %w", v, err)
	}
	return av, nil
}

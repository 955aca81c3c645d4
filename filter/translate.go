/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package filter

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	tserrors "github.com/tidemark/tablestore/errors"
)

var memberPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Translate compiles a predicate tree into the store's textual filter syntax.
// It is pure and total over the supported grammar; any construct outside it
// fails with an UnsupportedExpressionError. The emitted string preserves the
// written left-to-right shape of the tree: logical operands are always
// parenthesized and never reordered, mirroring the store's precedence-free
// parser.
func Translate(e Expr) (string, error) {
	var b strings.Builder
	if err := translateInto(&b, e); err != nil {
		return "", err
	}
	return b.String(), nil
}

func translateInto(b *strings.Builder, e Expr) error {
	switch n := e.(type) {
	case Comparison:
		if err := validateMember(n.Member); err != nil {
			return err
		}
		if err := validateOp(n.Op); err != nil {
			return err
		}
		lit, err := EncodeLiteral(n.Value.Value)
		if err != nil {
			return err
		}
		b.WriteString(n.Member.Name)
		b.WriteByte(' ')
		b.WriteString(string(n.Op))
		b.WriteByte(' ')
		b.WriteString(lit)
		return nil

	case Conjunction:
		return translateBinary(b, n.Left, "and", n.Right)

	case Disjunction:
		return translateBinary(b, n.Left, "or", n.Right)

	case Negation:
		if n.Operand == nil {
			return tserrors.NewUnsupportedExpressionError("negation", "missing operand")
		}
		b.WriteString("not (")
		if err := translateInto(b, n.Operand); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil

	case Call:
		if n.Func != FuncStartsWith && n.Func != FuncContains {
			return tserrors.NewUnsupportedExpressionError("function call", fmt.Sprintf("%q is not in the translation whitelist", n.Func))
		}
		if err := validateMember(n.Member); err != nil {
			return err
		}
		arg, ok := n.Arg.Value.(string)
		if !ok {
			return tserrors.NewUnsupportedExpressionError("function call", fmt.Sprintf("%s requires a string argument, got %T", n.Func, n.Arg.Value))
		}
		fmt.Fprintf(b, "%s(%s, %s)", n.Func, n.Member.Name, quoteString(arg))
		return nil

	case nil:
		return tserrors.NewUnsupportedExpressionError("predicate", "empty expression")

	default:
		return tserrors.NewUnsupportedExpressionError("predicate", fmt.Sprintf("unknown node %T", e))
	}
}

func translateBinary(b *strings.Builder, left Expr, op string, right Expr) error {
	if left == nil || right == nil {
		return tserrors.NewUnsupportedExpressionError(op, "missing operand")
	}
	b.WriteByte('(')
	if err := translateInto(b, left); err != nil {
		return err
	}
	b.WriteString(") ")
	b.WriteString(op)
	b.WriteString(" (")
	if err := translateInto(b, right); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

func validateMember(m Member) error {
	if !memberPattern.MatchString(m.Name) {
		return tserrors.NewUnsupportedExpressionError("member access", fmt.Sprintf("%q is not a plain property name", m.Name))
	}
	return nil
}

func validateOp(op Op) error {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return nil
	}
	return tserrors.NewUnsupportedExpressionError("comparison", fmt.Sprintf("unknown operator %q", op))
}

// EncodeLiteral renders a constant using the store's literal encoding rules.
// Strings double embedded quotes, datetimes are ISO-8601 in a datetime'...'
// wrapper, binary is hex in X'...', GUIDs use guid'...', and 64-bit integers
// carry an L suffix. Unsupported value types fail translation.
func EncodeLiteral(v any) (string, error) {
	switch tv := v.(type) {
	case string:
		return quoteString(tv), nil
	case bool:
		return strconv.FormatBool(tv), nil
	case int:
		return strconv.Itoa(tv), nil
	case int8:
		return strconv.FormatInt(int64(tv), 10), nil
	case int16:
		return strconv.FormatInt(int64(tv), 10), nil
	case int32:
		return strconv.FormatInt(int64(tv), 10), nil
	case int64:
		return strconv.FormatInt(tv, 10) + "L", nil
	case uint:
		return strconv.FormatUint(uint64(tv), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(tv), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(tv), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(tv), 10), nil
	case uint64:
		return strconv.FormatUint(tv, 10) + "L", nil
	case float32:
		return formatFloat(float64(tv)), nil
	case float64:
		return formatFloat(tv), nil
	case time.Time:
		return "datetime'" + tv.UTC().Format(time.RFC3339Nano) + "'", nil
	case strfmt.DateTime:
		return "datetime'" + time.Time(tv).UTC().Format(time.RFC3339Nano) + "'", nil
	case []byte:
		return "X'" + hex.EncodeToString(tv) + "'", nil
	case uuid.UUID:
		return "guid'" + tv.String() + "'", nil
	case *string:
		return encodeDeref(tv)
	case *bool:
		return encodeDeref(tv)
	case *int:
		return encodeDeref(tv)
	case *int64:
		return encodeDeref(tv)
	case *float64:
		return encodeDeref(tv)
	case *time.Time:
		return encodeDeref(tv)
	case *strfmt.DateTime:
		return encodeDeref(tv)
	case nil:
		return "", tserrors.NewUnsupportedExpressionError("constant", "nil has no literal form")
	default:
		return "", tserrors.NewUnsupportedExpressionError("constant", fmt.Sprintf("no literal encoding for %T", v))
	}
}

func encodeDeref[T any](p *T) (string, error) {
	if p == nil {
		return "", tserrors.NewUnsupportedExpressionError("constant", "nil has no literal form")
	}
	return EncodeLiteral(*p)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// The grammar distinguishes floats from integers by the decimal point.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

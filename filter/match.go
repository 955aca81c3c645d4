/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package filter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Match evaluates a predicate tree against one row's properties. The lookup
// callback returns the property value and whether the property exists; a
// comparison against a missing property never matches, it is not an error.
// Match is the structural counterpart of Translate and backs the in-process
// providers.
func Match(e Expr, lookup func(name string) (any, bool)) (bool, error) {
	switch n := e.(type) {
	case Comparison:
		v, ok := lookup(n.Member.Name)
		if !ok {
			return false, nil
		}
		c, err := CompareValues(v, n.Value.Value)
		if err != nil {
			return false, nil // type mismatch behaves like a missing property
		}
		switch n.Op {
		case OpEq:
			return c == 0, nil
		case OpNe:
			return c != 0, nil
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		case OpGe:
			return c >= 0, nil
		}
		return false, validateOp(n.Op)

	case Conjunction:
		l, err := Match(n.Left, lookup)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return Match(n.Right, lookup)

	case Disjunction:
		l, err := Match(n.Left, lookup)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return Match(n.Right, lookup)

	case Negation:
		v, err := Match(n.Operand, lookup)
		if err != nil {
			return false, err
		}
		return !v, nil

	case Call:
		v, ok := lookup(n.Member.Name)
		if !ok {
			return false, nil
		}
		s, ok := v.(string)
		if !ok {
			return false, nil
		}
		arg, ok := n.Arg.Value.(string)
		if !ok {
			return false, fmt.Errorf("filter: %s requires a string argument", n.Func)
		}
		switch n.Func {
		case FuncStartsWith:
			return strings.HasPrefix(s, arg), nil
		case FuncContains:
			return strings.Contains(s, arg), nil
		}
		return false, fmt.Errorf("filter: unknown function %q", n.Func)

	case nil:
		return false, fmt.Errorf("filter: empty expression")

	default:
		return false, fmt.Errorf("filter: unknown node %T", e)
	}
}

// CompareValues orders two property values of the same scalar kind, returning
// a negative, zero, or positive result. Numeric widths are unified before
// comparing; values of different kinds do not compare.
func CompareValues(a, b any) (int, error) {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		if !ok {
			return 0, fmt.Errorf("filter: cannot compare number with %T", b)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}

	switch av := normalize(a).(type) {
	case string:
		bv, ok := normalize(b).(string)
		if !ok {
			return 0, fmt.Errorf("filter: cannot compare string with %T", b)
		}
		return strings.Compare(av, bv), nil
	case bool:
		bv, ok := normalize(b).(bool)
		if !ok {
			return 0, fmt.Errorf("filter: cannot compare bool with %T", b)
		}
		switch {
		case av == bv:
			return 0, nil
		case !av:
			return -1, nil
		}
		return 1, nil
	case time.Time:
		bv, ok := normalize(b).(time.Time)
		if !ok {
			return 0, fmt.Errorf("filter: cannot compare datetime with %T", b)
		}
		return av.Compare(bv), nil
	case []byte:
		bv, ok := normalize(b).([]byte)
		if !ok {
			return 0, fmt.Errorf("filter: cannot compare binary with %T", b)
		}
		return bytes.Compare(av, bv), nil
	}
	return 0, fmt.Errorf("filter: values of type %T do not compare", a)
}

func asFloat(v any) (float64, bool) {
	switch tv := v.(type) {
	case int:
		return float64(tv), true
	case int8:
		return float64(tv), true
	case int16:
		return float64(tv), true
	case int32:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case uint:
		return float64(tv), true
	case uint8:
		return float64(tv), true
	case uint16:
		return float64(tv), true
	case uint32:
		return float64(tv), true
	case uint64:
		return float64(tv), true
	case float32:
		return float64(tv), true
	case float64:
		return tv, true
	}
	return 0, false
}

// normalize folds wrapper types onto the grammar's scalar kinds.
func normalize(v any) any {
	switch tv := v.(type) {
	case strfmt.DateTime:
		return time.Time(tv)
	case uuid.UUID:
		return tv.String()
	default:
		return v
	}
}

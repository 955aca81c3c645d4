/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package filter

import (
	"fmt"

	tserrors "github.com/tidemark/tablestore/errors"
)

// Selector identifies entity properties for ordering and projection clauses.
// A selector is either a single member path or a composite of member paths;
// composites expand to their constituent names in declaration order.
type Selector interface {
	isSelector()
}

func (Member) isSelector() {}

// Composite is a multi-member selector, the AST shape of an anonymous
// projection such as new { A, B }.
type Composite struct {
	Parts []Selector
}

func (Composite) isSelector() {}

// Path selects a single member by name.
func Path(name string) Member {
	return Member{Name: name}
}

// Fields builds a composite selector over the named members, in order.
func Fields(names ...string) Selector {
	c := Composite{Parts: make([]Selector, 0, len(names))}
	for _, n := range names {
		c.Parts = append(c.Parts, Member{Name: n})
	}
	return c
}

// TranslateMembers compiles a selector into an ordered property-name list.
// Only pure member paths and flat composites of member paths translate;
// anything else fails with an UnsupportedExpressionError.
func TranslateMembers(s Selector) ([]string, error) {
	switch sel := s.(type) {
	case Member:
		if err := validateMember(sel); err != nil {
			return nil, err
		}
		return []string{sel.Name}, nil

	case Composite:
		if len(sel.Parts) == 0 {
			return nil, tserrors.NewUnsupportedExpressionError("selector", "empty composite")
		}
		names := make([]string, 0, len(sel.Parts))
		for _, part := range sel.Parts {
			m, ok := part.(Member)
			if !ok {
				return nil, tserrors.NewUnsupportedExpressionError("selector", fmt.Sprintf("composite parts must be member paths, got %T", part))
			}
			if err := validateMember(m); err != nil {
				return nil, err
			}
			names = append(names, m.Name)
		}
		return names, nil

	case nil:
		return nil, tserrors.NewUnsupportedExpressionError("selector", "empty selector")

	default:
		return nil, tserrors.NewUnsupportedExpressionError("selector", fmt.Sprintf("unknown selector %T", s))
	}
}

// Direction of an ordering clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Order is one (member, direction) pair of an ordering clause. Clause order
// defines tie-break priority.
type Order struct {
	Member    Member
	Direction Direction
}

// Asc orders by the named member, ascending.
func Asc(name string) Order {
	return Order{Member: Member{Name: name}, Direction: Ascending}
}

// Desc orders by the named member, descending.
func Desc(name string) Order {
	return Order{Member: Member{Name: name}, Direction: Descending}
}

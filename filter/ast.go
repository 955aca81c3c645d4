/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package filter

// Op is a comparison operator in the store's filter grammar.
type Op string

const (
	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpLe Op = "le"
	OpGt Op = "gt"
	OpGe Op = "ge"
)

// Func is a whitelisted string function. Nothing outside this list translates.
type Func string

const (
	FuncStartsWith Func = "startswith"
	FuncContains   Func = "contains"
)

// Expr is a boolean node in a predicate tree. The tree is a tagged-variant
// AST produced by the constructors below (or by Parse) and interpreted
// structurally by Translate and Match.
type Expr interface {
	isExpr()
}

// Member is a leaf access of a single entity property.
type Member struct {
	Name string
}

// Constant is a literal captured at predicate construction time. Its value is
// encoded exactly once, when the predicate is translated, never per item.
type Constant struct {
	Value any
}

// Comparison applies a comparison operator between a member and a constant.
type Comparison struct {
	Member Member
	Op     Op
	Value  Constant
}

// Conjunction joins two operands with "and". Operands keep their written
// left-to-right order; the store parser infers no precedence.
type Conjunction struct {
	Left  Expr
	Right Expr
}

// Disjunction joins two operands with "or".
type Disjunction struct {
	Left  Expr
	Right Expr
}

// Negation inverts its operand.
type Negation struct {
	Operand Expr
}

// Call applies a whitelisted string function to a member and a constant.
type Call struct {
	Func   Func
	Member Member
	Arg    Constant
}

func (Comparison) isExpr()  {}
func (Conjunction) isExpr() {}
func (Disjunction) isExpr() {}
func (Negation) isExpr()    {}
func (Call) isExpr()        {}

// Comparison constructors.

func compare(member string, op Op, value any) Expr {
	return Comparison{Member: Member{Name: member}, Op: op, Value: Constant{Value: value}}
}

// Eq builds "member eq value".
func Eq(member string, value any) Expr { return compare(member, OpEq, value) }

// Ne builds "member ne value".
func Ne(member string, value any) Expr { return compare(member, OpNe, value) }

// Lt builds "member lt value".
func Lt(member string, value any) Expr { return compare(member, OpLt, value) }

// Le builds "member le value".
func Le(member string, value any) Expr { return compare(member, OpLe, value) }

// Gt builds "member gt value".
func Gt(member string, value any) Expr { return compare(member, OpGt, value) }

// Ge builds "member ge value".
func Ge(member string, value any) Expr { return compare(member, OpGe, value) }

// And joins predicates left-to-right: And(a, b, c) reads ((a and b) and c).
func And(first Expr, rest ...Expr) Expr {
	e := first
	for _, r := range rest {
		e = Conjunction{Left: e, Right: r}
	}
	return e
}

// Or joins predicates left-to-right: Or(a, b, c) reads ((a or b) or c).
func Or(first Expr, rest ...Expr) Expr {
	e := first
	for _, r := range rest {
		e = Disjunction{Left: e, Right: r}
	}
	return e
}

// Not inverts a predicate.
func Not(operand Expr) Expr {
	return Negation{Operand: operand}
}

// StartsWith builds "startswith(member, 'prefix')".
func StartsWith(member, prefix string) Expr {
	return Call{Func: FuncStartsWith, Member: Member{Name: member}, Arg: Constant{Value: prefix}}
}

// Contains builds "contains(member, 'substring')".
func Contains(member, substring string) Expr {
	return Call{Func: FuncContains, Member: Member{Name: member}, Arg: Constant{Value: substring}}
}

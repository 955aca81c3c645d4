/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package filter

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Parse is the reference parser for the store's filter grammar. It accepts
// everything Translate emits and, like the store's own parser, is naive:
// "and" and "or" bind with equal strength and associate left-to-right, so
// only parentheses group. Parse is used by in-process providers to evaluate
// filters and by tests to check grammar-level round-trips.
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(tEOF) {
		return nil, fmt.Errorf("filter: unexpected %q after expression", p.peek().text)
	}
	return e, nil
}

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tLiteral
	tLParen
	tRParen
	tComma
)

type token struct {
	kind  tokenKind
	text  string
	value any // decoded literal value for tLiteral
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tRParen, text: ")"})
			i++
		case c == ',':
			toks = append(toks, token{kind: tComma, text: ","})
			i++
		case c == '\'':
			s, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tLiteral, text: s, value: s})
			i = next
		case c == '-' || (c >= '0' && c <= '9'):
			tok, next, err := lexNumber(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case isIdentStart(c):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			word := input[start:i]
			// Typed literal wrappers glue an identifier to a quoted body.
			if i < len(input) && input[i] == '\'' && (word == "datetime" || word == "guid" || word == "X") {
				body, next, err := lexString(input, i)
				if err != nil {
					return nil, err
				}
				v, err := decodeTyped(word, body)
				if err != nil {
					return nil, err
				}
				toks = append(toks, token{kind: tLiteral, text: word + "'" + body + "'", value: v})
				i = next
				continue
			}
			switch word {
			case "true":
				toks = append(toks, token{kind: tLiteral, text: word, value: true})
			case "false":
				toks = append(toks, token{kind: tLiteral, text: word, value: false})
			default:
				toks = append(toks, token{kind: tIdent, text: word})
			}
		default:
			return nil, fmt.Errorf("filter: unexpected character %q at offset %d", c, i)
		}
	}
	toks = append(toks, token{kind: tEOF})
	return toks, nil
}

// lexString consumes a quoted body starting at input[start] == '\''. Doubled
// quotes unescape to a single quote.
func lexString(input string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(input) {
		if input[i] == '\'' {
			if i+1 < len(input) && input[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(input[i])
		i++
	}
	return "", 0, fmt.Errorf("filter: unterminated string starting at offset %d", start)
}

func lexNumber(input string, start int) (token, int, error) {
	i := start
	if input[i] == '-' {
		i++
	}
	isFloat := false
	for i < len(input) {
		c := input[i]
		if c >= '0' && c <= '9' {
			i++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			i++
			continue
		}
		if (c == '+' || c == '-') && (input[i-1] == 'e' || input[i-1] == 'E') {
			i++
			continue
		}
		break
	}
	text := input[start:i]
	if i < len(input) && input[i] == 'L' {
		if isFloat {
			return token{}, 0, fmt.Errorf("filter: malformed number %q", input[start:i+1])
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return token{}, 0, fmt.Errorf("filter: malformed number %q: %w", text, err)
		}
		return token{kind: tLiteral, text: text + "L", value: v}, i + 1, nil
	}
	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, 0, fmt.Errorf("filter: malformed number %q: %w", text, err)
		}
		return token{kind: tLiteral, text: text, value: v}, i, nil
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return token{}, 0, fmt.Errorf("filter: malformed number %q: %w", text, err)
	}
	return token{kind: tLiteral, text: text, value: v}, i, nil
}

func decodeTyped(wrapper, body string) (any, error) {
	switch wrapper {
	case "datetime":
		t, err := time.Parse(time.RFC3339Nano, body)
		if err != nil {
			return nil, fmt.Errorf("filter: malformed datetime literal %q: %w", body, err)
		}
		return t, nil
	case "guid":
		id, err := uuid.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("filter: malformed guid literal %q: %w", body, err)
		}
		return id, nil
	case "X":
		raw, err := hex.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("filter: malformed binary literal %q: %w", body, err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("filter: unknown literal wrapper %q", wrapper)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind tokenKind) bool {
	return p.peek().kind == kind
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return token{}, fmt.Errorf("filter: expected %s, got %q", what, t.text)
	}
	return t, nil
}

// parseExpr handles the flat "and"/"or" chain. Equal binding strength,
// left-associative; this intentionally mirrors the store parser.
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(tIdent) && (p.peek().text == "and" || p.peek().text == "or") {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "and" {
			left = Conjunction{Left: left, Right: right}
		} else {
			left = Disjunction{Left: left, Right: right}
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	switch {
	case p.at(tLParen):
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen, ")"); err != nil {
			return nil, err
		}
		return e, nil

	case p.at(tIdent) && p.peek().text == "not":
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Negation{Operand: operand}, nil

	case p.at(tIdent):
		return p.parseSimple()

	default:
		return nil, fmt.Errorf("filter: expected expression, got %q", p.peek().text)
	}
}

// parseSimple parses either a comparison or a whitelisted function call.
func (p *parser) parseSimple() (Expr, error) {
	head := p.next()

	if p.at(tLParen) && (head.text == string(FuncStartsWith) || head.text == string(FuncContains)) {
		p.next()
		member, err := p.expect(tIdent, "property name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tComma, ","); err != nil {
			return nil, err
		}
		arg, err := p.expect(tLiteral, "string literal")
		if err != nil {
			return nil, err
		}
		s, ok := arg.value.(string)
		if !ok {
			return nil, fmt.Errorf("filter: %s requires a string argument, got %q", head.text, arg.text)
		}
		if _, err := p.expect(tRParen, ")"); err != nil {
			return nil, err
		}
		return Call{Func: Func(head.text), Member: Member{Name: member.text}, Arg: Constant{Value: s}}, nil
	}

	opTok, err := p.expect(tIdent, "comparison operator")
	if err != nil {
		return nil, err
	}
	op := Op(opTok.text)
	if err := validateOp(op); err != nil {
		return nil, fmt.Errorf("filter: %q is not a comparison operator", opTok.text)
	}
	lit, err := p.expect(tLiteral, "literal")
	if err != nil {
		return nil, err
	}
	return Comparison{Member: Member{Name: head.text}, Op: op, Value: Constant{Value: lit.value}}, nil
}

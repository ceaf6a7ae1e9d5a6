/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

/*
condition.go evaluates the small infix expression language used by
if/elseif/for header strings. It is a separate tokenizer and
Pratt parser from the statement-level lexer package, since condition
strings carry a distinct operator set (==, !=, <, <=, >, >=, and, or,
not, in, contains) that the statement grammar never needs. The
hand-rolled rune-scanner shape is grounded on lexer/lexer.go's
next()/backup() state machine, generalized here into a simpler
single-pass tokenizer since condition strings have no newlines or
blocks to track.
*/
package interpreter

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

type condTokKind int

const (
	condEOF condTokKind = iota
	condNumber
	condString
	condIdent
	condVariable
	condLParen
	condRParen
	condOp
)

type condTok struct {
	kind condTokKind
	text string
	num  float64
}

/*
condLex tokenizes a condition-string expression.
*/
func condLex(src string) ([]condTok, error) {
	var toks []condTok
	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		if unicode.IsSpace(rune(c)) {
			i++
			continue
		}

		switch {
		case c == '(':
			toks = append(toks, condTok{kind: condLParen})
			i++
		case c == ')':
			toks = append(toks, condTok{kind: condRParen})
			i++
		case c == ',':
			toks = append(toks, condTok{kind: condOp, text: ","})
			i++
		case c == '$':
			start := i
			i++
			for i < n && (isIdentByte(src[i]) || src[i] == '.' || src[i] == '[' || src[i] == ']') {
				i++
			}
			toks = append(toks, condTok{kind: condVariable, text: src[start:i]})
		case c == '"' || c == '\'':
			quote := c
			i++
			start := i
			for i < n && src[i] != quote {
				i++
			}
			if i >= n {
				return nil, fmt.Errorf("unterminated string in condition expression")
			}
			toks = append(toks, condTok{kind: condString, text: src[start:i]})
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < n && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				i++
			}
			f, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, err
			}
			toks = append(toks, condTok{kind: condNumber, num: f})
		case c == '=' && i+1 < n && src[i+1] == '=':
			toks = append(toks, condTok{kind: condOp, text: "=="})
			i += 2
		case c == '!' && i+1 < n && src[i+1] == '=':
			toks = append(toks, condTok{kind: condOp, text: "!="})
			i += 2
		case c == '<' && i+1 < n && src[i+1] == '=':
			toks = append(toks, condTok{kind: condOp, text: "<="})
			i += 2
		case c == '>' && i+1 < n && src[i+1] == '=':
			toks = append(toks, condTok{kind: condOp, text: ">="})
			i += 2
		case c == '<':
			toks = append(toks, condTok{kind: condOp, text: "<"})
			i++
		case c == '>':
			toks = append(toks, condTok{kind: condOp, text: ">"})
			i++
		case isIdentStartByte(c):
			start := i
			for i < n && isIdentByte(src[i]) {
				i++
			}
			word := src[start:i]
			switch word {
			case "true":
				toks = append(toks, condTok{kind: condIdent, text: "true"})
			case "false":
				toks = append(toks, condTok{kind: condIdent, text: "false"})
			case "null":
				toks = append(toks, condTok{kind: condIdent, text: "null"})
			case "and", "or", "not", "in", "contains":
				toks = append(toks, condTok{kind: condOp, text: word})
			default:
				toks = append(toks, condTok{kind: condIdent, text: word})
			}
		default:
			return nil, fmt.Errorf("unexpected character %q in condition expression", c)
		}
	}

	toks = append(toks, condTok{kind: condEOF})
	return toks, nil
}

func isIdentStartByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStartByte(c) || (c >= '0' && c <= '9')
}

/*
condParser is a Pratt parser evaluating directly against a Frame as it
descends, rather than building an intermediate AST - condition strings
are re-evaluated fresh on every loop iteration, so there is no reuse
benefit to a cached tree.
*/
type condParser struct {
	toks  []condTok
	pos   int
	frame *Frame
	env   *Environment
}

/*
EvalCondition evaluates a condition-string expression against
frame, returning its (possibly non-boolean) value. Callers applying a
conditional branch coerce the result with Truthy.
*/
func EvalCondition(expr string, frame *Frame, env *Environment) (interface{}, error) {
	toks, err := condLex(expr)
	if err != nil {
		return nil, rtErr(util.ErrParse, err.Error())
	}
	p := &condParser{toks: toks, frame: frame, env: env}
	v, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != condEOF {
		return nil, rtErr(util.ErrParse, "unexpected trailing tokens in condition expression")
	}
	return v, nil
}

func (p *condParser) cur() condTok  { return p.toks[p.pos] }
func (p *condParser) advance()      { p.pos++ }

func (p *condParser) parseOr() (interface{}, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == condOp && p.cur().text == "or" {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Truthy(left) || Truthy(right)
	}
	return left, nil
}

func (p *condParser) parseAnd() (interface{}, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == condOp && p.cur().text == "and" {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = Truthy(left) && Truthy(right)
	}
	return left, nil
}

func (p *condParser) parseInContains() (interface{}, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == condOp && (p.cur().text == "in" || p.cur().text == "contains") {
		op := p.cur().text
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "in" {
			left = membership(left, right)
		} else {
			left = membership(right, left)
		}
	}
	return left, nil
}

func (p *condParser) parseComparison() (interface{}, error) {
	left, err := p.parseInContains()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == condOp && isComparisonOp(p.cur().text) {
		op := p.cur().text
		p.advance()
		right, err := p.parseInContains()
		if err != nil {
			return nil, err
		}
		left, err = compare(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *condParser) parseUnary() (interface{}, error) {
	if p.cur().kind == condOp && p.cur().text == "not" {
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return !Truthy(v), nil
	}
	return p.parseAtom()
}

func (p *condParser) parseAtom() (interface{}, error) {
	t := p.cur()

	switch t.kind {
	case condNumber:
		p.advance()
		return t.num, nil

	case condString:
		p.advance()
		return t.text, nil

	case condVariable:
		p.advance()
		name, path := splitVarPathText(t.text)
		if len(path) == 0 {
			v, _ := p.frame.GetVar(name)
			return v, nil
		}
		v, _, err := p.frame.GetPath(name, path)
		return v, err

	case condIdent:
		p.advance()
		switch t.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		if p.cur().kind == condLParen {
			return p.parseCall(t.text)
		}
		return nil, rtErr(util.ErrNotFound, "unknown identifier "+t.text+" in condition expression")

	case condLParen:
		p.advance()
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != condRParen {
			return nil, rtErr(util.ErrParse, "expected ')' in condition expression")
		}
		p.advance()
		return v, nil
	}

	return nil, rtErr(util.ErrParse, "unexpected token in condition expression")
}

func (p *condParser) parseCall(name string) (interface{}, error) {
	p.advance() // '('
	var args []interface{}
	for p.cur().kind != condRParen {
		if p.cur().kind == condEOF {
			return nil, rtErr(util.ErrParse, "unterminated call in condition expression")
		}
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		if p.cur().kind == condOp && p.cur().text == "," {
			p.advance()
		}
	}
	p.advance() // ')'
	return DispatchCall(name, "", args, p.frame, p.env)
}

/*
splitVarPathText mirrors parser.parseVarPath for the condition
tokenizer's own variable tokens.
*/
func splitVarPathText(text string) (string, []parser.PathSeg) {
	s := text[1:]
	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '[' {
		i++
	}
	name := s[:i]
	rest := s[i:]

	var path []parser.PathSeg
	for len(rest) > 0 {
		if rest[0] == '.' {
			j := 1
			for j < len(rest) && rest[j] != '.' && rest[j] != '[' {
				j++
			}
			path = append(path, parser.PathSeg{Property: rest[1:j]})
			rest = rest[j:]
		} else if rest[0] == '[' {
			j := 1
			for j < len(rest) && rest[j] != ']' {
				j++
			}
			idx, _ := strconv.Atoi(rest[1:j])
			path = append(path, parser.PathSeg{Index: idx, IsIndex: true})
			rest = rest[j+1:]
		} else {
			break
		}
	}
	return name, path
}

/*
Truthy applies the truthiness rule: null, false, 0, "", empty
array, empty object are falsy; everything else is truthy.
*/
func Truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	}
	return true
}

func membership(needle, haystack interface{}) bool {
	switch h := haystack.(type) {
	case []interface{}:
		for _, e := range h {
			if deepEqual(e, needle) {
				return true
			}
		}
		return false
	case map[string]interface{}:
		if k, ok := needle.(string); ok {
			_, exists := h[k]
			return exists
		}
		return false
	case string:
		if s, ok := needle.(string); ok {
			return strings.Contains(h, s)
		}
	}
	return false
}

func compare(op string, a, b interface{}) (interface{}, error) {
	if op == "==" {
		return deepEqual(a, b), nil
	}
	if op == "!=" {
		return !deepEqual(a, b), nil
	}

	af, aIsNum := a.(float64)
	bf, bIsNum := b.(float64)
	if aIsNum && bIsNum {
		switch op {
		case "<":
			return af < bf, nil
		case "<=":
			return af <= bf, nil
		case ">":
			return af > bf, nil
		case ">=":
			return af >= bf, nil
		}
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch op {
		case "<":
			return as < bs, nil
		case "<=":
			return as <= bs, nil
		case ">":
			return as > bs, nil
		case ">=":
			return as >= bs, nil
		}
	}

	return false, nil
}

func deepEqual(a, b interface{}) bool {
	return deepEqualSeen(a, b, map[[2]uintptr]bool{})
}

/*
deepEqualSeen tracks the container pointer pairs already on the current
recursion path so a cyclic array/object compares as equal on the
repeated pair rather than recursing forever.
*/
func deepEqualSeen(a, b interface{}, seen map[[2]uintptr]bool) bool {
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		if len(av) == 0 {
			return true
		}
		key, isCycle := notePair(av, bv, seen)
		if isCycle {
			return true
		}
		defer delete(seen, key)
		for i := range av {
			if !deepEqualSeen(av[i], bv[i], seen) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		if len(av) == 0 {
			return true
		}
		key, isCycle := notePair(av, bv, seen)
		if isCycle {
			return true
		}
		defer delete(seen, key)
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !deepEqualSeen(v, bvv, seen) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

/*
notePair returns the pointer-pair key for a/b's backing storage and
whether that pair is already on the current recursion path.
*/
func notePair(a, b interface{}, seen map[[2]uintptr]bool) ([2]uintptr, bool) {
	key := [2]uintptr{reflect.ValueOf(a).Pointer(), reflect.ValueOf(b).Pointer()}
	if seen[key] {
		return key, true
	}
	seen[key] = true
	return key, false
}

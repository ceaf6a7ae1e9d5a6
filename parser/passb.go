/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package parser

import (
	"strconv"
	"strings"

	"github.com/wiredwp/robinpath/lexer"
)

// parseStatement - the ordered statement dispatch table
// =================================================================

/*
parseStatement parses exactly one statement starting at token index i
(which must not be Newline/Comment - those are handled by the caller's
comment-association loop) and returns it along with the index of the
first token after its content (not yet past any trailing inline comment
or newline - the caller absorbs those uniformly).
*/
func (p *Parser) parseStatement(i, to int) (*Statement, int, error) {
	t := p.ts.At(i)

	if t.Kind == lexer.At && atLineStart(p.ts, i) {
		decorators, termIdx := scanDecoratorRun(p.ts, i)
		term := p.ts.At(termIdx)
		if term.Kind == lexer.Keyword && (term.Text == "var" || term.Text == "const") {
			stmt, next, err := p.parseStatement(termIdx, to)
			if err != nil {
				return nil, 0, err
			}
			stmt.Decorators = decorators
			return stmt, next, nil
		}
		return nil, 0, &ParseError{
			Kind: ErrOrphanedDecorator, Line: t.Line, Col: t.Col,
			Detail: "decorator run is not followed by def, var, or const",
		}
	}

	if t.Kind == lexer.Keyword {
		switch t.Text {
		case "together":
			return p.parseTogether(i, to)
		case "do":
			return p.parseScopeBlock(i, to)
		case "for":
			return p.parseForLoop(i, to)
		case "if":
			return p.parseIf(i, to)
		case "iftrue":
			return p.parseIfTrueFalse(i, to, StmtIfTrue)
		case "iffalse":
			return p.parseIfTrueFalse(i, to, StmtIfFalse)
		case "return":
			return p.parseReturn(i, to)
		case "break":
			return &Statement{Kind: StmtBreak, Pos: posSpan(t)}, i + 1, nil
		case "continue":
			return &Statement{Kind: StmtContinue, Pos: posSpan(t)}, i + 1, nil
		case "var", "const", "use", "end", "import":
			return p.parseKeywordCommand(i, to)
		}
	}

	if t.Kind == lexer.Variable {
		return p.parseVariableLineStart(i, to)
	}

	if t.Kind == lexer.Identifier {
		if headEnd, ok := p.detectParenCallHead(i); ok {
			return p.parseParenCall(i, headEnd, to)
		}
		return p.parseSpaceCommand(i, to)
	}

	return nil, 0, &ParseError{
		Kind: ErrUnexpectedToken, Line: t.Line, Col: t.Col,
		Detail: "unexpected token " + t.String() + " at start of statement",
	}
}

// Variable-led statements: Assignment / ShorthandAssignment
// =============================================================

func (p *Parser) parseVariableLineStart(i, to int) (*Statement, int, error) {
	vt := p.ts.At(i)
	name, path := parseVarPath(vt.Text)

	if p.ts.At(i+1).Kind == lexer.Assign {
		return p.parseAssignment(i, to, name, path)
	}

	return &Statement{Kind: StmtShorthandAssignment, TargetName: name, Pos: posSpan(vt)}, i + 1, nil
}

/*
parseAssignment parses the assignment right-hand-side grammar.
*/
func (p *Parser) parseAssignment(i, to int, name string, path []PathSeg) (*Statement, int, error) {
	startTok := p.ts.At(i)
	rhsStart := i + 2
	t := p.ts.At(rhsStart)

	mk := func(end int, fill func(*Statement)) (*Statement, int, error) {
		s := &Statement{Kind: StmtAssignment, TargetName: name, TargetPath: path, Pos: posBetween(p.ts, startTok, end)}
		fill(s)
		return s, end, nil
	}

	if t.Kind == lexer.Variable && t.Text == "$" {
		if p.ts.At(rhsStart+1).Kind == lexer.LParen {
			inner, end, err := p.captureBalanced(rhsStart + 1)
			if err != nil {
				return nil, 0, err
			}
			cmd := subexprCommand(inner)
			return mk(end, func(s *Statement) { s.Command = cmd })
		}
		return mk(rhsStart+1, func(s *Statement) { s.IsLastValue = true })
	}

	if t.Kind == lexer.LBrace {
		inner, end, err := p.captureBalanced(rhsStart)
		if err != nil {
			return nil, 0, err
		}
		cmd := objectCommand(inner)
		return mk(end, func(s *Statement) { s.Command = cmd })
	}

	if t.Kind == lexer.LBracket {
		inner, end, err := p.captureBalanced(rhsStart)
		if err != nil {
			return nil, 0, err
		}
		cmd := arrayCommand(inner)
		return mk(end, func(s *Statement) { s.Command = cmd })
	}

	if t.Kind == lexer.String {
		j := rhsStart
		var parts []string
		for p.ts.At(j).Kind == lexer.String {
			parts = append(parts, p.ts.At(j).Value.(string))
			j++
		}
		return mk(j, func(s *Statement) {
			s.LiteralValue = strings.Join(parts, "")
			s.LiteralType = LitString
		})
	}

	if t.Kind == lexer.Number && p.atRHSBoundary(rhsStart+1) {
		return mk(rhsStart+1, func(s *Statement) {
			s.LiteralValue = t.Value.(float64)
			s.LiteralType = LitNumber
		})
	}

	if t.Kind == lexer.Minus && p.ts.At(rhsStart+1).Kind == lexer.Number && p.atRHSBoundary(rhsStart+2) {
		n := p.ts.At(rhsStart + 1)
		return mk(rhsStart+2, func(s *Statement) {
			s.LiteralValue = -n.Value.(float64)
			s.LiteralType = LitNumber
		})
	}

	if t.Kind == lexer.Boolean && p.atRHSBoundary(rhsStart+1) {
		return mk(rhsStart+1, func(s *Statement) {
			s.LiteralValue = t.Value.(bool)
			s.LiteralType = LitBoolean
		})
	}

	if t.Kind == lexer.Null && p.atRHSBoundary(rhsStart+1) {
		return mk(rhsStart+1, func(s *Statement) {
			s.LiteralValue = nil
			s.LiteralType = LitNull
		})
	}

	if t.Kind == lexer.Variable && p.atRHSBoundary(rhsStart+1) {
		vn, vp := parseVarPath(t.Text)
		cmd := &Statement{
			Kind: StmtCommand, Name: "_var", Pos: posSpan(t),
			Args: []*Arg{{Kind: ArgVar, VarName: vn, VarPath: vp, Pos: posSpan(t)}},
		}
		return mk(rhsStart+1, func(s *Statement) { s.Command = cmd })
	}

	if t.Kind == lexer.Identifier {
		if headEnd, ok := p.detectParenCallHead(rhsStart); ok {
			module, cname, _ := p.parseDottedHead(rhsStart)
			args, named, multiline, end, err := p.parseParenArgs(headEnd)
			if err != nil {
				return nil, 0, err
			}
			args, syntax := finishArgs(args, named, multiline)
			cmd := &Statement{Kind: StmtCommand, Module: module, Name: cname, Args: args, Syntax: syntax, Pos: posBetween(p.ts, t, end)}
			return mk(end, func(s *Statement) { s.Command = cmd })
		}

		module, cname, j := p.parseDottedHead(rhsStart)
		args, end, err := p.parseSpaceArgs(j, to)
		if err != nil {
			return nil, 0, err
		}
		cmd := &Statement{Kind: StmtCommand, Module: module, Name: cname, Args: args, Syntax: SyntaxSpace, Pos: posBetween(p.ts, t, end)}
		return mk(end, func(s *Statement) { s.Command = cmd })
	}

	return nil, 0, &ParseError{
		Kind: ErrInvalidAssignmentTarget, Line: t.Line, Col: t.Col,
		Detail: "invalid right-hand side in assignment",
	}
}

func subexprCommand(code string) *Statement {
	return &Statement{Kind: StmtCommand, Name: "_subexpr", Args: []*Arg{{Kind: ArgSubexpr, Str: code}}}
}

func objectCommand(code string) *Statement {
	return &Statement{Kind: StmtCommand, Name: "_object", Args: []*Arg{{Kind: ArgObject, Str: code}}}
}

func arrayCommand(code string) *Statement {
	return &Statement{Kind: StmtCommand, Name: "_array", Args: []*Arg{{Kind: ArgArray, Str: code}}}
}

/*
atRHSBoundary reports whether token index j sits at the end of an
assignment's right-hand side: end of line, a comment, EOF, or the
`into` keyword.
*/
func (p *Parser) atRHSBoundary(j int) bool {
	t := p.ts.At(j)
	if t.Kind == lexer.Newline || t.Kind == lexer.Comment || t.Kind == lexer.EOF {
		return true
	}
	return t.Kind == lexer.Keyword && t.Text == "into"
}

// Commands: space form, parenthesized forms
// =============================================

func (p *Parser) parseSpaceCommand(i, to int) (*Statement, int, error) {
	start := p.ts.At(i)
	module, name, j := p.parseDottedHead(i)

	args, j2, err := p.parseSpaceArgs(j, to)
	if err != nil {
		return nil, 0, err
	}

	into, j3, err := p.parseInto(j2)
	if err != nil {
		return nil, 0, err
	}

	return &Statement{
		Kind: StmtCommand, Name: name, Module: module, Args: args,
		Syntax: SyntaxSpace, Into: into, Pos: posBetween(p.ts, start, j3),
	}, j3, nil
}

func (p *Parser) parseKeywordCommand(i, to int) (*Statement, int, error) {
	t := p.ts.At(i)

	args, j, err := p.parseSpaceArgs(i+1, to)
	if err != nil {
		return nil, 0, err
	}

	into, j2, err := p.parseInto(j)
	if err != nil {
		return nil, 0, err
	}

	return &Statement{
		Kind: StmtCommand, Name: t.Text, Args: args, Syntax: SyntaxSpace,
		Into: into, Pos: posBetween(p.ts, t, j2),
	}, j2, nil
}

/*
detectParenCallHead reports whether the identifier (optionally
module-dotted) starting at i is immediately followed by '(' - a
parenthesized call head - and if so returns the index of that '('.
*/
func (p *Parser) detectParenCallHead(i int) (int, bool) {
	j := i + 1
	for p.ts.At(j).Kind == lexer.Dot && p.ts.At(j+1).Kind == lexer.Identifier {
		j += 2
	}
	if p.ts.At(j).Kind == lexer.LParen {
		return j, true
	}
	return 0, false
}

/*
parseDottedHead reads a bare `name` or `module.name` head starting at i
and returns (module, name, index-after-head).
*/
func (p *Parser) parseDottedHead(i int) (string, string, int) {
	first := p.ts.At(i).Text
	j := i + 1
	if p.ts.At(j).Kind == lexer.Dot && p.ts.At(j+1).Kind == lexer.Identifier {
		return first, p.ts.At(j + 1).Text, j + 2
	}
	return "", first, i + 1
}

func (p *Parser) parseParenCall(i, openIdx, to int) (*Statement, int, error) {
	start := p.ts.At(i)
	module, name, _ := p.parseDottedHead(i)

	args, named, multiline, endIdx, err := p.parseParenArgs(openIdx)
	if err != nil {
		return nil, 0, err
	}
	args, syntax := finishArgs(args, named, multiline)

	into, next, err := p.parseIntoAfterParen(endIdx)
	if err != nil {
		return nil, 0, err
	}

	return &Statement{
		Kind: StmtCommand, Name: name, Module: module, Args: args,
		Syntax: syntax, Into: into, Pos: posBetween(p.ts, start, next),
	}, next, nil
}

func finishArgs(args []*Arg, named map[string]*Arg, multiline bool) ([]*Arg, CallSyntax) {
	syntax := SyntaxParens
	if len(named) > 0 {
		args = append(args, &Arg{Kind: ArgNamedArgs, Named: named})
		syntax = SyntaxNamedParens
	}
	if multiline {
		syntax = SyntaxMultilineParens
	}
	return args, syntax
}

/*
parseParenArgs scans the parenthesized argument list starting right
after the opening '(' at openIdx (whose index was already returned by
detectParenCallHead), honoring newlines, commas and comments as
separators, until the matching ')'.
*/
func (p *Parser) parseParenArgs(openIdx int) (args []*Arg, named map[string]*Arg, multiline bool, next int, err error) {
	named = map[string]*Arg{}
	i := openIdx + 1

	for {
		t := p.ts.At(i)

		if t.Kind == lexer.EOF {
			open := p.ts.At(openIdx)
			return nil, nil, false, 0, &ParseError{
				Kind: ErrUnterminatedBracket, Line: open.Line, Col: open.Col,
				Detail: "unterminated parenthesized call",
			}
		}
		if t.Kind == lexer.RParen {
			return args, named, multiline, i + 1, nil
		}
		if t.Kind == lexer.Newline {
			multiline = true
			i++
			continue
		}
		if t.Kind == lexer.Comma || t.Kind == lexer.Comment {
			i++
			continue
		}

		if p.isNamedArgStart(i) {
			key, val, nx, e := p.parseNamedArg(i)
			if e != nil {
				return nil, nil, false, 0, e
			}
			named[key] = val
			i = nx
			continue
		}

		arg, nx, e := p.parseOneArg(i)
		if e != nil {
			return nil, nil, false, 0, e
		}
		args = append(args, arg)
		i = nx
	}
}

/*
parseIntoAfterParen looks for `into $lvalue` either right after the
closing ')' on the same line, or as the first thing on the next
non-blank line.
*/
func (p *Parser) parseIntoAfterParen(i int) (*IntoTarget, int, error) {
	if into, next, err := p.parseInto(i); err != nil {
		return nil, 0, err
	} else if into != nil {
		return into, next, nil
	}

	j := i
	for p.ts.At(j).Kind == lexer.Newline {
		j++
	}
	if j > i && p.ts.At(j).Kind == lexer.Keyword && p.ts.At(j).Text == "into" {
		return p.parseInto(j)
	}

	return nil, i, nil
}

func (p *Parser) parseInto(i int) (*IntoTarget, int, error) {
	t := p.ts.At(i)
	if !(t.Kind == lexer.Keyword && t.Text == "into") {
		return nil, i, nil
	}
	vt := p.ts.At(i + 1)
	if vt.Kind != lexer.Variable {
		return nil, 0, &ParseError{
			Kind: ErrUnexpectedToken, Line: vt.Line, Col: vt.Col,
			Detail: "into requires a $variable target",
		}
	}
	name, path := parseVarPath(vt.Text)
	return &IntoTarget{Name: name, Path: path}, i + 2, nil
}

// Argument-list parsing (space form) and single-argument parsing
// ===================================================================

func (p *Parser) parseSpaceArgs(i, to int) ([]*Arg, int, error) {
	var args []*Arg
	named := map[string]*Arg{}

	for {
		if i >= to {
			break
		}
		t := p.ts.At(i)
		if t.Kind == lexer.Newline || t.Kind == lexer.Comment || t.Kind == lexer.EOF {
			break
		}
		if t.Kind == lexer.Keyword && t.Text == "into" {
			break
		}

		if p.isNamedArgStart(i) {
			key, val, next, err := p.parseNamedArg(i)
			if err != nil {
				return nil, 0, err
			}
			named[key] = val
			i = next
			continue
		}

		arg, next, err := p.parseOneArg(i)
		if err != nil {
			return nil, 0, err
		}
		args = append(args, arg)
		i = next
	}

	if len(named) > 0 {
		args = append(args, &Arg{Kind: ArgNamedArgs, Named: named})
	}

	return args, i, nil
}

func (p *Parser) isNamedArgStart(i int) bool {
	t := p.ts.At(i)
	if t.Kind == lexer.Variable && t.Text != "$" {
		return p.ts.At(i+1).Kind == lexer.Assign
	}
	if t.Kind == lexer.Identifier {
		return p.ts.At(i+1).Kind == lexer.Assign
	}
	return false
}

func (p *Parser) parseNamedArg(i int) (string, *Arg, int, error) {
	t := p.ts.At(i)
	key := t.Text
	if t.Kind == lexer.Variable {
		key = strings.TrimPrefix(key, "$")
	}
	val, next, err := p.parseOneArg(i + 2) // skip key + '='
	return key, val, next, err
}

/*
parseOneArg parses a single Arg starting at token index i, per the
argument-classification rules.
*/
func (p *Parser) parseOneArg(i int) (*Arg, int, error) {
	t := p.ts.At(i)

	switch t.Kind {
	case lexer.Variable:
		if t.Text == "$" {
			if p.ts.At(i+1).Kind == lexer.LParen {
				inner, end, err := p.captureBalanced(i + 1)
				if err != nil {
					return nil, 0, err
				}
				return &Arg{Kind: ArgSubexpr, Str: inner, Pos: posBetween(p.ts, t, end)}, end, nil
			}
			return &Arg{Kind: ArgLastValue, Pos: posSpan(t)}, i + 1, nil
		}
		name, path := parseVarPath(t.Text)
		return &Arg{Kind: ArgVar, VarName: name, VarPath: path, Pos: posSpan(t)}, i + 1, nil

	case lexer.String:
		return &Arg{Kind: ArgString, Str: t.Value.(string), Pos: posSpan(t)}, i + 1, nil

	case lexer.Number:
		return &Arg{Kind: ArgNumber, Number: t.Value.(float64), Pos: posSpan(t)}, i + 1, nil

	case lexer.Boolean, lexer.Null:
		return &Arg{Kind: ArgLiteral, Str: t.Text, Pos: posSpan(t)}, i + 1, nil

	case lexer.Minus:
		nt := p.ts.At(i + 1)
		if nt.Kind == lexer.Number {
			return &Arg{Kind: ArgNumber, Number: -nt.Value.(float64), Pos: posRange(t, nt)}, i + 2, nil
		}
		return &Arg{Kind: ArgLiteral, Str: "-", Pos: posSpan(t)}, i + 1, nil

	case lexer.LBrace:
		inner, end, err := p.captureBalanced(i)
		if err != nil {
			return nil, 0, err
		}
		return &Arg{Kind: ArgObject, Str: inner, Pos: posBetween(p.ts, t, end)}, end, nil

	case lexer.LBracket:
		inner, end, err := p.captureBalanced(i)
		if err != nil {
			return nil, 0, err
		}
		return &Arg{Kind: ArgArray, Str: inner, Pos: posBetween(p.ts, t, end)}, end, nil

	case lexer.Identifier, lexer.Keyword:
		text := t.Text
		end := i + 1
		for p.ts.At(end).Kind == lexer.Dot &&
			(p.ts.At(end+1).Kind == lexer.Identifier || p.ts.At(end+1).Kind == lexer.Keyword) {
			text += "." + p.ts.At(end+1).Text
			end += 2
		}
		return &Arg{Kind: ArgLiteral, Str: text, Pos: posBetween(p.ts, t, end)}, end, nil
	}

	return nil, 0, &ParseError{
		Kind: ErrUnexpectedToken, Line: t.Line, Col: t.Col,
		Detail: "unexpected token " + t.String() + " in argument position",
	}
}

/*
captureBalanced captures the raw source text strictly inside a bracket
pair, tracking a stack of nested (), {}, [] so an unrelated close of a
different kind nested one level down does not terminate the scan early.
openIdx must point at the opening bracket token.
*/
func (p *Parser) captureBalanced(openIdx int) (string, int, error) {
	open := p.ts.At(openIdx)
	stack := []lexer.Kind{open.Kind}
	i := openIdx + 1
	innerStart := open.End

	for {
		t := p.ts.At(i)
		if t.Kind == lexer.EOF {
			return "", 0, &ParseError{
				Kind: ErrUnterminatedBracket, Line: open.Line, Col: open.Col,
				Detail: "unterminated bracket",
			}
		}

		switch t.Kind {
		case lexer.LParen, lexer.LBrace, lexer.LBracket:
			stack = append(stack, t.Kind)
		case lexer.RParen, lexer.RBrace, lexer.RBracket:
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return p.src[innerStart:t.Pos], i + 1, nil
			}
		}
		i++
	}
}

/*
parseVarPath splits a lexed Variable token's text ("$name.prop[2].foo")
into its bare name and attribute path.
*/
func parseVarPath(text string) (string, []PathSeg) {
	s := text[1:] // strip '$'

	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '[' {
		i++
	}
	name := s[:i]
	rest := s[i:]

	var path []PathSeg
	for len(rest) > 0 {
		if rest[0] == '.' {
			j := 1
			for j < len(rest) && rest[j] != '.' && rest[j] != '[' {
				j++
			}
			path = append(path, PathSeg{Property: rest[1:j]})
			rest = rest[j:]
		} else if rest[0] == '[' {
			j := 1
			for j < len(rest) && rest[j] != ']' {
				j++
			}
			idx, _ := strconv.Atoi(rest[1:j])
			path = append(path, PathSeg{Index: idx, IsIndex: true})
			rest = rest[j+1:]
		} else {
			break
		}
	}

	return name, path
}

// Control-flow statements
// ===========================

func (p *Parser) parseReturn(i, to int) (*Statement, int, error) {
	t := p.ts.At(i)
	j := i + 1
	nt := p.ts.At(j)
	if nt.Kind == lexer.Newline || nt.Kind == lexer.Comment || nt.Kind == lexer.EOF {
		return &Statement{Kind: StmtReturn, Pos: posSpan(t)}, j, nil
	}

	val, next, err := p.parseOneArg(j)
	if err != nil {
		return nil, 0, err
	}
	return &Statement{Kind: StmtReturn, Value: val, Pos: posBetween(p.ts, t, next)}, next, nil
}

func (p *Parser) parseIfTrueFalse(i, to int, kind StmtKind) (*Statement, int, error) {
	t := p.ts.At(i)
	cmd, next, err := p.parseStatement(i+1, to)
	if err != nil {
		return nil, 0, err
	}
	return &Statement{Kind: kind, Command: cmd, Pos: posBetween(p.ts, t, next)}, next, nil
}

/*
captureConditionExpr captures the raw source text of a condition
expression starting at i, stopping at the first Newline/EOF or at a
`then` keyword (used to disambiguate InlineIf from IfBlock). It returns
the text, the index of the stopping token, and whether that token was
`then`.
*/
func (p *Parser) captureConditionExpr(i, to int) (string, int, bool) {
	start := p.ts.At(i).Pos
	j := i
	lastEnd := start

	for {
		t := p.ts.At(j)
		if t.Kind == lexer.Newline || t.Kind == lexer.EOF {
			return strings.TrimSpace(p.src[start:lastEnd]), j, false
		}
		if t.Kind == lexer.Keyword && t.Text == "then" {
			return strings.TrimSpace(p.src[start:lastEnd]), j, true
		}
		lastEnd = t.End
		j++
	}
}

func (p *Parser) parseIf(i, to int) (*Statement, int, error) {
	t := p.ts.At(i)
	condText, afterCond, hasThen := p.captureConditionExpr(i+1, to)

	if hasThen {
		cmd, next, err := p.parseStatement(afterCond+1, to)
		if err != nil {
			return nil, 0, err
		}
		return &Statement{Kind: StmtInlineIf, ConditionExpr: condText, InlineCommand: cmd, Pos: posBetween(p.ts, t, next)}, next, nil
	}

	bodyStart := afterCond
	if p.ts.At(bodyStart).Kind == lexer.Newline {
		bodyStart++
	}

	then, elseifs, elseBranch, endIdx, err := p.parseIfBody(bodyStart, to)
	if err != nil {
		return nil, 0, err
	}

	return &Statement{
		Kind: StmtIfBlock, ConditionExpr: condText, ThenBranch: then,
		ElseIfs: elseifs, ElseBranch: elseBranch, Pos: posRange(t, p.ts.At(endIdx)),
	}, endIdx + 1, nil
}

/*
parseIfBody splits the body of an if/elseif/else chain into its
segments at the top (depth-0) nesting level and parses each segment,
returning the index of the terminating `endif`.
*/
func (p *Parser) parseIfBody(bodyStart, to int) ([]*Statement, []ElseIfBranch, []*Statement, int, error) {
	var thenBranch, elseBranch []*Statement
	var elseifs []ElseIfBranch

	depth := 0
	i := bodyStart
	segStart := bodyStart
	state := 0 // 0=then, 1=elseif, 2=else
	var pendingCond string

	closeSegment := func(segEnd int) error {
		stmts, err := p.parseBodyRange(segStart, segEnd)
		if err != nil {
			return err
		}
		switch state {
		case 0:
			thenBranch = stmts
		case 1:
			elseifs = append(elseifs, ElseIfBranch{ConditionExpr: pendingCond, Body: stmts})
		case 2:
			elseBranch = stmts
		}
		return nil
	}

	for {
		t := p.ts.At(i)
		if t.Kind == lexer.EOF {
			return nil, nil, nil, 0, &ParseError{
				Kind: ErrUnterminatedBlock, Line: p.ts.At(bodyStart).Line, Col: p.ts.At(bodyStart).Col,
				Detail: "unterminated if block",
			}
		}
		if sk := inSkip(p.skips, i); sk != nil {
			i = sk.end + 1
			continue
		}

		if t.Kind == lexer.Keyword && atLineStart(p.ts, i) {
			switch t.Text {
			case "if", "for", "do", "together", "on":
				depth++
			case "endfor", "enddo", "endtogether", "endon":
				depth--
			case "endif":
				if depth == 0 {
					if err := closeSegment(i); err != nil {
						return nil, nil, nil, 0, err
					}
					return thenBranch, elseifs, elseBranch, i, nil
				}
				depth--
			case "elseif":
				if depth == 0 {
					if err := closeSegment(i); err != nil {
						return nil, nil, nil, 0, err
					}
					condText, afterCond, _ := p.captureConditionExpr(i+1, to)
					pendingCond = condText
					state = 1
					segStart = afterCond
					if p.ts.At(segStart).Kind == lexer.Newline {
						segStart++
					}
					i = segStart
					continue
				}
			case "else":
				if depth == 0 {
					if err := closeSegment(i); err != nil {
						return nil, nil, nil, 0, err
					}
					state = 2
					segStart = i + 1
					if p.ts.At(segStart).Kind == lexer.Newline {
						segStart++
					}
					i = segStart
					continue
				}
			}
		}
		i++
	}
}

func (p *Parser) parseForLoop(i, to int) (*Statement, int, error) {
	t := p.ts.At(i)

	vt := p.ts.At(i + 1)
	if vt.Kind != lexer.Variable {
		return nil, 0, &ParseError{
			Kind: ErrUnexpectedToken, Line: vt.Line, Col: vt.Col,
			Detail: "for requires a $variable",
		}
	}
	varName := vt.Text[1:]

	inTok := p.ts.At(i + 2)
	if !(inTok.Kind == lexer.Keyword && inTok.Text == "in") {
		return nil, 0, &ParseError{
			Kind: ErrExpectedKeyword, Line: inTok.Line, Col: inTok.Col,
			Detail: "for loop expects 'in' after its variable",
		}
	}

	exprText, afterExpr, _ := p.captureConditionExpr(i+3, to)
	bodyStart := afterExpr
	if p.ts.At(bodyStart).Kind == lexer.Newline {
		bodyStart++
	}

	endIdx, err := blockEndIndex(p.ts, i)
	if err != nil {
		return nil, 0, err
	}

	body, err := p.parseBodyRange(bodyStart, endIdx)
	if err != nil {
		return nil, 0, err
	}

	return &Statement{
		Kind: StmtForLoop, VarName: varName, IterableExpr: exprText,
		Body: body, Pos: posRange(t, p.ts.At(endIdx)),
	}, endIdx + 1, nil
}

func (p *Parser) parseScopeBlock(i, to int) (*Statement, int, error) {
	t := p.ts.At(i)

	j := i + 1
	var params []string
	for p.ts.At(j).Kind == lexer.Variable {
		params = append(params, p.ts.At(j).Text[1:])
		j++
	}

	into, j2, err := p.parseInto(j)
	if err != nil {
		return nil, 0, err
	}

	bodyStart := j2
	if p.ts.At(bodyStart).Kind == lexer.Comment {
		bodyStart++
	}
	if p.ts.At(bodyStart).Kind == lexer.Newline {
		bodyStart++
	}

	endIdx, err := blockEndIndex(p.ts, i)
	if err != nil {
		return nil, 0, err
	}

	body, err := p.parseBodyRange(bodyStart, endIdx)
	if err != nil {
		return nil, 0, err
	}

	return &Statement{
		Kind: StmtScopeBlock, ScopeParams: params, Body: body, Into: into,
		Pos: posRange(t, p.ts.At(endIdx)),
	}, endIdx + 1, nil
}

func (p *Parser) parseTogether(i, to int) (*Statement, int, error) {
	t := p.ts.At(i)

	endIdx, err := blockEndIndex(p.ts, i)
	if err != nil {
		return nil, 0, err
	}

	j := i + 1
	if p.ts.At(j).Kind == lexer.Newline {
		j++
	}

	var blocks []*Statement
	for j < endIdx {
		tok := p.ts.At(j)
		if tok.Kind == lexer.Newline || tok.Kind == lexer.Comment {
			j++
			continue
		}
		if tok.Kind == lexer.Keyword && tok.Text == "do" {
			blk, next, err := p.parseScopeBlock(j, endIdx)
			if err != nil {
				return nil, 0, err
			}
			blocks = append(blocks, blk)
			j = next
			continue
		}
		return nil, 0, &ParseError{
			Kind: ErrUnexpectedToken, Line: tok.Line, Col: tok.Col,
			Detail: "a together block accepts only do blocks",
		}
	}

	return &Statement{Kind: StmtTogetherBlock, Blocks: blocks, Pos: posRange(t, p.ts.At(endIdx))}, endIdx + 1, nil
}

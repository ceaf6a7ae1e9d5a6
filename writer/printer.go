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
Package writer turns an edited AST back into source text. Per-node
rendering dispatches on the node kind; instead of a full-tree reprint,
the writer builds a minimal byte-range edit set, so only nodes whose
canonical text differs from the original bytes at their CodePos are
touched and untouched formatting, comments and quote style survive
verbatim.
*/
package writer

import (
	"strconv"
	"strings"

	"github.com/krotik/common/stringutil"

	"github.com/wiredwp/robinpath/jsonlit"
	"github.com/wiredwp/robinpath/parser"
)

/*
indentUnit is the number of spaces the canonical printer uses per
nesting level.
*/
const indentUnit = 2

func indentStr(depth int) string {
	return stringutil.GenerateRollingString(" ", depth*indentUnit)
}

/*
Print renders the canonical source text of a single statement at the
given nesting depth, including its attached/inline comments. This is
only ever invoked for nodes the edit-set builder decided need
reprinting.
*/
func Print(s *parser.Statement, depth int) string {
	var b strings.Builder

	ind := indentStr(depth)

	for _, c := range attachedComments(s) {
		writeCommentLines(&b, c.Text, ind)
	}

	body := printBody(s, depth)
	b.WriteString(body)

	if ic := inlineComment(s); ic != nil && strings.TrimSpace(ic.Text) != "" {
		b.WriteString("  # ")
		b.WriteString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ic.Text), "#")))
	}

	return b.String()
}

func attachedComments(s *parser.Statement) []parser.Comment {
	var out []parser.Comment
	for _, c := range s.Comments {
		if !c.Inline && strings.TrimSpace(c.Text) != "" {
			out = append(out, c)
		}
	}
	return out
}

func inlineComment(s *parser.Statement) *parser.Comment {
	for i, c := range s.Comments {
		if c.Inline {
			return &s.Comments[i]
		}
	}
	return nil
}

func writeCommentLines(b *strings.Builder, text, ind string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(ind)
		b.WriteString("# ")
		b.WriteString(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		b.WriteString("\n")
	}
}

func printBody(s *parser.Statement, depth int) string {
	ind := indentStr(depth)

	switch s.Kind {
	case parser.StmtComment:
		var b strings.Builder
		for i, c := range s.OrphanComments {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(ind)
			b.WriteString("# ")
			b.WriteString(strings.TrimPrefix(strings.TrimSpace(c.Text), "#"))
		}
		return b.String()

	case parser.StmtCommand:
		return ind + printDecorators(s, depth) + printCommand(s)

	case parser.StmtAssignment:
		return ind + printDecorators(s, depth) + printAssignment(s)

	case parser.StmtShorthandAssignment:
		return ind + "$" + s.TargetName + " = $"

	case parser.StmtIfBlock:
		return printIfBlock(s, depth)

	case parser.StmtInlineIf:
		return ind + "if " + s.ConditionExpr + " then " + strings.TrimLeft(Print(s.InlineCommand, 0), " ")

	case parser.StmtIfTrue:
		return ind + "iftrue " + strings.TrimLeft(Print(s.Command, 0), " ")

	case parser.StmtIfFalse:
		return ind + "iffalse " + strings.TrimLeft(Print(s.Command, 0), " ")

	case parser.StmtForLoop:
		var b strings.Builder
		b.WriteString(ind)
		b.WriteString("for $")
		b.WriteString(s.VarName)
		b.WriteString(" in ")
		b.WriteString(s.IterableExpr)
		b.WriteString("\n")
		writeBody(&b, s.Body, depth+1)
		b.WriteString(ind)
		b.WriteString("endfor")
		return b.String()

	case parser.StmtDefineFunction:
		var b strings.Builder
		b.WriteString(printDecorators(s, depth))
		b.WriteString(ind)
		b.WriteString("def ")
		b.WriteString(s.Name)
		for _, p := range s.ParamNames {
			b.WriteString(" $")
			b.WriteString(p)
		}
		b.WriteString("\n")
		writeBody(&b, s.Body, depth+1)
		b.WriteString(ind)
		b.WriteString("enddef")
		return b.String()

	case parser.StmtScopeBlock:
		var b strings.Builder
		b.WriteString(ind)
		b.WriteString("do")
		for _, p := range s.ScopeParams {
			b.WriteString(" $")
			b.WriteString(p)
		}
		if s.Into != nil {
			b.WriteString(" into ")
			b.WriteString(printIntoTarget(s.Into))
		}
		b.WriteString("\n")
		writeBody(&b, s.Body, depth+1)
		b.WriteString(ind)
		b.WriteString("enddo")
		return b.String()

	case parser.StmtTogetherBlock:
		var b strings.Builder
		b.WriteString(ind)
		b.WriteString("together\n")
		for _, blk := range s.Blocks {
			b.WriteString(Print(blk, depth+1))
			b.WriteString("\n")
		}
		b.WriteString(ind)
		b.WriteString("endtogether")
		return b.String()

	case parser.StmtReturn:
		if s.Value == nil {
			return ind + "return"
		}
		return ind + "return " + s.Value.String()

	case parser.StmtBreak:
		return ind + "break"

	case parser.StmtContinue:
		return ind + "continue"

	case parser.StmtOnBlock:
		var b strings.Builder
		b.WriteString(ind)
		b.WriteString("on ")
		b.WriteString(s.EventName)
		b.WriteString("\n")
		writeBody(&b, s.Body, depth+1)
		b.WriteString(ind)
		b.WriteString("endon")
		return b.String()
	}

	return ind
}

func writeBody(b *strings.Builder, body []*parser.Statement, depth int) {
	for _, stmt := range body {
		b.WriteString(Print(stmt, depth))
		b.WriteString("\n")
	}
}

func printIfBlock(s *parser.Statement, depth int) string {
	ind := indentStr(depth)
	var b strings.Builder

	b.WriteString(ind)
	b.WriteString("if ")
	b.WriteString(s.ConditionExpr)
	b.WriteString("\n")
	writeBody(&b, s.ThenBranch, depth+1)

	for _, ei := range s.ElseIfs {
		b.WriteString(ind)
		b.WriteString("elseif ")
		b.WriteString(ei.ConditionExpr)
		b.WriteString("\n")
		writeBody(&b, ei.Body, depth+1)
	}

	if s.ElseBranch != nil {
		b.WriteString(ind)
		b.WriteString("else\n")
		writeBody(&b, s.ElseBranch, depth+1)
	}

	b.WriteString(ind)
	b.WriteString("endif")

	return b.String()
}

func printDecorators(s *parser.Statement, depth int) string {
	if len(s.Decorators) == 0 {
		return ""
	}
	ind := indentStr(depth)
	var b strings.Builder
	for _, d := range s.Decorators {
		b.WriteString(ind)
		b.WriteString("@")
		b.WriteString(d.Name)
		for _, a := range d.Args {
			b.WriteString(" ")
			b.WriteString(a.String())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func printIntoTarget(t *parser.IntoTarget) string {
	s := "$" + t.Name
	for _, seg := range t.Path {
		s += seg.String()
	}
	return s
}

/*
printCommand renders a Command statement in its recorded syntax form
(space-separated, parenthesized, named or multiline).
*/
func printCommand(s *parser.Statement) string {
	var b strings.Builder

	if s.Module != "" {
		b.WriteString(s.Module)
		b.WriteString(".")
	}
	b.WriteString(s.Name)

	positional, named := splitArgs(s.Args)

	switch s.Syntax {
	case parser.SyntaxSpace:
		for _, a := range positional {
			b.WriteString(" ")
			b.WriteString(a.String())
		}
		for _, k := range sortedKeys(named) {
			b.WriteString(" $")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(named[k].String())
		}

	case parser.SyntaxParens:
		b.WriteString("(")
		parts := make([]string, 0, len(positional))
		for _, a := range positional {
			parts = append(parts, a.String())
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString(")")

	case parser.SyntaxNamedParens:
		b.WriteString("(")
		var parts []string
		for _, a := range positional {
			parts = append(parts, a.String())
		}
		for _, k := range sortedKeys(named) {
			parts = append(parts, "$"+k+"="+named[k].String())
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString(")")

	case parser.SyntaxMultilineParens:
		b.WriteString("(\n")
		for _, a := range positional {
			b.WriteString("  ")
			b.WriteString(a.String())
			b.WriteString("\n")
		}
		for _, k := range sortedKeys(named) {
			b.WriteString("  $")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(named[k].String())
			b.WriteString("\n")
		}
		b.WriteString(")")
	}

	if s.Into != nil {
		b.WriteString(" into ")
		b.WriteString(printIntoTarget(s.Into))
	}

	return b.String()
}

func splitArgs(args []*parser.Arg) ([]*parser.Arg, map[string]*parser.Arg) {
	var positional []*parser.Arg
	named := map[string]*parser.Arg{}
	for _, a := range args {
		if a.Kind == parser.ArgNamedArgs {
			for k, v := range a.Named {
				named[k] = v
			}
			continue
		}
		positional = append(positional, a)
	}
	return positional, named
}

func sortedKeys(m map[string]*parser.Arg) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

/*
printAssignment renders an Assignment statement: target, path suffix
and the right-hand side selected by its literalValue/command/
isLastValue dispatch, coercing a mismatched literalValue to its
declared literalValueType where representable.
*/
func printAssignment(s *parser.Statement) string {
	var b strings.Builder
	b.WriteString("$")
	b.WriteString(s.TargetName)
	for _, seg := range s.TargetPath {
		b.WriteString(seg.String())
	}
	b.WriteString(" = ")

	switch {
	case s.IsLastValue:
		b.WriteString("$")

	case s.Command != nil:
		b.WriteString(printRHSCommand(s.Command))

	default:
		b.WriteString(printLiteral(s.LiteralValue, s.LiteralType))
	}

	return b.String()
}

/*
printRHSCommand renders the pseudo-commands the parser synthesizes for
an assignment's right-hand side ($(...), {...}, [...], bare $var) back
into their original surface syntax, and otherwise falls back to the
generic command printer.
*/
func printRHSCommand(cmd *parser.Statement) string {
	switch cmd.Name {
	case "_subexpr":
		return "$(" + cmd.Args[0].Str + ")"
	case "_object":
		return "{" + cmd.Args[0].Str + "}"
	case "_array":
		return "[" + cmd.Args[0].Str + "]"
	case "_var":
		return cmd.Args[0].String()
	}
	return printCommand(cmd)
}

func printLiteral(v interface{}, t parser.LiteralType) string {
	coerced := coerce(v, t)

	switch cv := coerced.(type) {
	case nil:
		return "null"
	case bool:
		if cv {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(cv, 'g', -1, 64)
	case string:
		return strconv.Quote(cv)
	case []interface{}:
		return "[" + jsonlit.Encode(cv) + "]"
	case map[string]interface{}:
		return "{" + jsonlit.Encode(cv) + "}"
	}
	return "null"
}

/*
coerce applies the lossy string<->number<->bool<->null<->array<->object
conversion matrix. When a value cannot be meaningfully represented as
the declared type, the original value is returned unchanged under its
own type instead of collapsing to null, per the Open Question decision
recorded in DESIGN.md.
*/
func coerce(v interface{}, t parser.LiteralType) interface{} {
	switch t {
	case parser.LitString:
		switch cv := v.(type) {
		case string:
			return cv
		case float64:
			return strconv.FormatFloat(cv, 'g', -1, 64)
		case bool:
			return strconv.FormatBool(cv)
		case nil:
			return "null"
		}
		return v

	case parser.LitNumber:
		switch cv := v.(type) {
		case float64:
			return cv
		case string:
			if f, err := strconv.ParseFloat(cv, 64); err == nil {
				return f
			}
			return v
		case bool:
			if cv {
				return float64(1)
			}
			return float64(0)
		}
		return v

	case parser.LitBoolean:
		switch cv := v.(type) {
		case bool:
			return cv
		case float64:
			return cv != 0
		case string:
			return cv != ""
		case nil:
			return false
		}
		return v

	case parser.LitNull:
		return nil

	case parser.LitArray:
		if _, ok := v.([]interface{}); ok {
			return v
		}
		return []interface{}{v}

	case parser.LitObject:
		if _, ok := v.(map[string]interface{}); ok {
			return v
		}
		return v
	}

	return v
}

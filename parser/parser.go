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
	"github.com/wiredwp/robinpath/lexer"
)

/*
Parser holds the state shared by both passes: the token stream, the list
of ranges Pass A already lifted out (so Pass B can jump over them), and
the source name used in error messages.
*/
type Parser struct {
	ts     *TokenStream
	src    string // original source text, used to capture balanced-bracket spans verbatim
	name   string
	skips  []skipRange
}

/*
Parse runs both passes over source and returns the resulting Program. The
source name is only used to decorate error messages.
*/
func Parse(source, name string) (*Program, error) {
	toks, err := lexer.Lex(name, source)
	if err != nil {
		return nil, &ParseError{Kind: ErrUnexpectedToken, Detail: err.Error()}
	}

	p := &Parser{ts: NewTokenStream(toks), src: source, name: name}

	functions, onBlocks, err := liftTopLevel(p)
	if err != nil {
		return nil, err
	}

	stmts, err := p.parseBodyRange(0, p.ts.Len()-1)
	if err != nil {
		return nil, err
	}

	return &Program{
		Statements: stmts,
		Functions:  functions,
		OnBlocks:   onBlocks,
		Source:     source,
	}, nil
}

/*
parseBodyRange parses the flat statement list found in token range
[from, to), skipping any range Pass A already lifted out. This is Pass
B's single entry point, used both for the top level and for every
lifted def/on body.
*/
func (p *Parser) parseBodyRange(from, to int) ([]*Statement, error) {
	var stmts []*Statement
	cc := &commentCollector{}

	i := from
	lastWasNewline := true

	flush := func() {
		if orphan := cc.finish(); orphan != nil {
			absorbBlanksAfter(orphan, p.ts.At(to))
			stmts = append(stmts, orphan)
		}
	}

	for i < to {
		if sk := inSkip(p.skips, i); sk != nil {
			i = sk.end + 1
			lastWasNewline = true
			continue
		}

		t := p.ts.At(i)

		if t.Kind == lexer.Newline {
			if lastWasNewline {
				cc.blank()
			}
			lastWasNewline = true
			i++
			continue
		}

		if t.Kind == lexer.Comment {
			if orphan := cc.addComment(t.Text, posSpan(t)); orphan != nil {
				absorbBlanksAfter(orphan, t)
				stmts = append(stmts, orphan)
			}
			i++
			lastWasNewline = false
			continue
		}

		stmt, next, err := p.parseStatement(i, to)
		if err != nil {
			return nil, err
		}

		attached, orphan := cc.takeAttached()
		if orphan != nil {
			absorbBlanksAfter(orphan, t)
			stmts = append(stmts, orphan)
		}
		if attached != nil {
			stmt.Comments = append(stmt.Comments, *attached)
		}

		inlineCom, next2 := p.consumeLineEnd(next)
		if inlineCom != nil {
			stmt.Comments = append(stmt.Comments, *inlineCom)
		}

		stmts = append(stmts, stmt)
		i = next2
		lastWasNewline = false
	}

	flush()

	return stmts, nil
}

/*
absorbBlanksAfter extends an orphan comment group's range over the blank
lines that follow it, up to (but not including) the line of the next
content token. The data model pins those blanks to the orphan's own
codePos so the writer can treat group-plus-blanks as one replaceable
region.
*/
func absorbBlanksAfter(orphan *Statement, next lexer.Token) {
	lastBlankRow := next.Line - 2
	if lastBlankRow <= orphan.Pos.EndRow {
		return
	}
	orphan.Pos.EndRow = lastBlankRow
	orphan.Pos.EndCol = 0
	orphan.Pos.EndOffset = next.Pos - next.Col
}

/*
consumeLineEnd is called with i pointing right after a statement's last
content token. It absorbs an optional trailing inline comment and the
terminating newline, returning the comment (if any) and the index of the
first token of the next line.
*/
func (p *Parser) consumeLineEnd(i int) (*Comment, int) {
	var com *Comment

	t := p.ts.At(i)
	if t.Kind == lexer.Comment {
		c := Comment{Text: t.Text, Pos: posSpan(t), Inline: true}
		com = &c
		i++
		t = p.ts.At(i)
	}

	if t.Kind == lexer.Newline {
		i++
	}

	return com, i
}

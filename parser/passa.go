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
blockOpeners maps a block-opening keyword to the keyword that closes it.
*/
var blockOpeners = map[string]string{
	"def": "enddef", "define": "enddef",
	"on": "endon",
	"if": "endif",
	"for": "endfor",
	"do": "enddo",
	"together": "endtogether",
}

var blockEnders = map[string]bool{
	"enddef": true, "endon": true, "endif": true,
	"endfor": true, "enddo": true, "endtogether": true,
}

/*
skipRange marks a [start,end] (both inclusive token indices) region that
Pass A already turned into a lifted DefineFunction or OnBlock, so Pass B
must jump over it rather than parse it again.
*/
type skipRange struct {
	start, end int
}

func inSkip(skips []skipRange, idx int) *skipRange {
	for i := range skips {
		if idx >= skips[i].start && idx <= skips[i].end {
			return &skips[i]
		}
	}
	return nil
}

/*
blockEndIndex scans forward from a block-opener token and returns the
index of its matching end keyword, tracking nesting depth across every
block kind generically (def/if/for/do/together/on all share one stack)
rather than per-keyword, since RobinPath blocks always nest properly.
*/
func blockEndIndex(ts *TokenStream, openIdx int) (int, error) {
	depth := 0
	i := openIdx

	for {
		t := ts.At(i)
		if t.Kind == lexer.EOF {
			open := ts.At(openIdx)
			return -1, &ParseError{
				Kind: ErrUnterminatedBlock, Line: open.Line, Col: open.Col,
				Detail: "unterminated " + open.Text + " block",
			}
		}
		if t.Kind == lexer.Keyword {
			if _, ok := blockOpeners[t.Text]; ok {
				depth++
			} else if blockEnders[t.Text] {
				depth--
				if depth == 0 {
					return i, nil
				}
			}
		}
		i++
	}
}

/*
atLineStart reports whether the token at idx begins a logical line: index
0, or the previous token is a Newline.
*/
func atLineStart(ts *TokenStream, idx int) bool {
	if idx == 0 {
		return true
	}
	return ts.At(idx - 1).Kind == lexer.Newline
}

/*
scanDecoratorRun reads a contiguous run of `@name arg*` lines starting at
idx (which must be an At token at line start), per the rule that a
decorator run is terminated by the first non-decorator, non-comment,
non-blank line. Returns the decorators and the index of the terminating
token (which the caller must itself validate).
*/
func scanDecoratorRun(ts *TokenStream, idx int) ([]Decorator, int) {
	var decorators []Decorator
	i := idx

	for {
		t := ts.At(i)

		if t.Kind == lexer.Newline || t.Kind == lexer.Comment {
			i++
			continue
		}

		if t.Kind == lexer.At && atLineStart(ts, i) {
			start := i
			i++ // consume '@'
			nameTok := ts.At(i)
			name := nameTok.Text
			i++

			for ts.At(i).Kind != lexer.Newline && ts.At(i).Kind != lexer.EOF {
				i++
			}

			decorators = append(decorators, Decorator{
				Name: name,
				Pos:  posSpan(ts.At(start)),
			})
			continue
		}

		return decorators, i
	}
}

/*
scanAttachedCommentsBefore looks at the lines immediately above idx and
collects the contiguous run of pure-comment lines directly adjacent to
it (no blank line in between), mirroring the attach-vs-orphan rule Pass
B's commentCollector applies during ordinary statement parsing. Without
this, a comment sitting directly above a def/on block (which Pass A
lifts out of Pass B's view entirely) would never be attached to
anything and would have to be reattached by hand. Returns the comments
in source order and the token index where the run starts, so the
caller can fold that range into its skip so Pass B does not see the
same comment twice.
*/
func scanAttachedCommentsBefore(ts *TokenStream, idx int) ([]Comment, int) {
	var group []Comment
	pos := idx

	for pos > 0 && ts.At(pos-1).Kind == lexer.Newline {
		lineEnd := pos - 2
		if lineEnd < 0 {
			break
		}
		if ts.At(lineEnd).Kind == lexer.Newline {
			break
		}
		if ts.At(lineEnd).Kind != lexer.Comment {
			break
		}
		if lineEnd > 0 && ts.At(lineEnd-1).Kind != lexer.Newline {
			break
		}

		t := ts.At(lineEnd)
		group = append([]Comment{{Text: t.Text, Pos: posSpan(t)}}, group...)
		pos = lineEnd
	}

	if len(group) == 0 {
		return nil, idx
	}
	return group, pos
}

/*
liftTopLevel runs Pass A. It walks the whole token stream once, in source
order, looking for def/define/on blocks - whether truly at the top level
or nested inside an unlifted if/for/do/together block, since the scan
does not skip over those constructs, only over ranges it has already
lifted. Each hit is parsed in full (recursively lifting any def nested
inside it too) and its token range is appended to p.skips so Pass B knows
to jump over it.
*/
func liftTopLevel(p *Parser) (map[string]*Statement, []*Statement, error) {
	functions := make(map[string]*Statement)
	var onBlocks []*Statement

	ts := p.ts
	i := 0

	for {
		t := ts.At(i)
		if t.Kind == lexer.EOF {
			break
		}

		if t.Kind == lexer.At && atLineStart(ts, i) {
			decorators, termIdx := scanDecoratorRun(ts, i)
			term := ts.At(termIdx)

			if term.Kind == lexer.Keyword && (term.Text == "def" || term.Text == "define") {
				fn, endIdx, err := p.liftDef(termIdx, decorators)
				if err != nil {
					return nil, nil, err
				}
				comments, skipStart := scanAttachedCommentsBefore(ts, i)
				fn.Comments = comments
				functions[fn.Name] = fn
				p.skips = append(p.skips, skipRange{start: skipStart, end: endIdx})
				i = endIdx + 1
				continue
			}

			// A decorator run not terminated by def is left for Pass B,
			// which applies the same scan to var/const commands.
			i++
			continue
		}

		if t.Kind == lexer.Keyword && atLineStart(ts, i) && (t.Text == "def" || t.Text == "define") {
			fn, endIdx, err := p.liftDef(i, nil)
			if err != nil {
				return nil, nil, err
			}
			comments, skipStart := scanAttachedCommentsBefore(ts, i)
			fn.Comments = comments
			functions[fn.Name] = fn
			p.skips = append(p.skips, skipRange{start: skipStart, end: endIdx})
			i = endIdx + 1
			continue
		}

		if t.Kind == lexer.Keyword && atLineStart(ts, i) && t.Text == "on" {
			on, endIdx, err := p.liftOn(i)
			if err != nil {
				return nil, nil, err
			}
			comments, skipStart := scanAttachedCommentsBefore(ts, i)
			on.Comments = comments
			onBlocks = append(onBlocks, on)
			p.skips = append(p.skips, skipRange{start: skipStart, end: endIdx})
			i = endIdx + 1
			continue
		}

		i++
	}

	return functions, onBlocks, nil
}

/*
liftDef parses one `def name $p1 $p2 ... enddef` block starting at the
`def`/`define` token at idx. Any def nested anywhere in its body is
lifted first (appending to p.skips), so the body parse below walks past
it automatically.
*/
func (p *Parser) liftDef(idx int, decorators []Decorator) (*Statement, int, error) {
	ts := p.ts
	endIdx, err := blockEndIndex(ts, idx)
	if err != nil {
		return nil, 0, err
	}

	header := idx + 1
	nameTok := ts.At(header)
	if nameTok.Kind != lexer.Identifier {
		return nil, 0, &ParseError{
			Kind: ErrNestedDefinitionError, Line: nameTok.Line, Col: nameTok.Col,
			Detail: "def requires a name",
		}
	}

	var params []string
	j := header + 1
	for {
		pt := ts.At(j)
		if pt.Kind != lexer.Variable {
			break
		}
		params = append(params, pt.Text[1:])
		j++
	}

	nestedFuncs, err := p.liftNestedDefs(j, endIdx)
	if err != nil {
		return nil, 0, err
	}

	body, err := p.parseBodyRange(j, endIdx)
	if err != nil {
		return nil, 0, err
	}

	for _, fn := range nestedFuncs {
		body = append(body, fn)
	}

	fn := &Statement{
		Kind:       StmtDefineFunction,
		Pos:        posRange(ts.At(idx), ts.At(endIdx)),
		Name:       nameTok.Text,
		ParamNames: params,
		Body:       body,
		Decorators: decorators,
	}

	return fn, endIdx, nil
}

/*
liftNestedDefs finds every def/define block inside [from,to), regardless
of how deeply it sits inside other control constructs, recursively lifts
each one (appending to p.skips as it goes), and returns the lifted
functions - a nested definition surfaces in the top-level registry, it
does not stay nested in its parent's body.
*/
func (p *Parser) liftNestedDefs(from, to int) (map[string]*Statement, error) {
	ts := p.ts
	lifted := make(map[string]*Statement)

	i := from
	for i < to {
		t := ts.At(i)
		if t.Kind == lexer.Keyword && atLineStart(ts, i) && (t.Text == "def" || t.Text == "define") {
			fn, endIdx, err := p.liftDef(i, nil)
			if err != nil {
				return nil, err
			}
			comments, skipStart := scanAttachedCommentsBefore(ts, i)
			fn.Comments = comments
			lifted[fn.Name] = fn
			p.skips = append(p.skips, skipRange{start: skipStart, end: endIdx})
			i = endIdx + 1
			continue
		}
		i++
	}

	return lifted, nil
}

/*
liftOn parses one `on eventName ... endon` block.
*/
func (p *Parser) liftOn(idx int) (*Statement, int, error) {
	ts := p.ts
	endIdx, err := blockEndIndex(ts, idx)
	if err != nil {
		return nil, 0, err
	}

	nameTok := ts.At(idx + 1)

	nestedFuncs, err := p.liftNestedDefs(idx+2, endIdx)
	if err != nil {
		return nil, 0, err
	}

	body, err := p.parseBodyRange(idx+2, endIdx)
	if err != nil {
		return nil, 0, err
	}

	for _, fn := range nestedFuncs {
		body = append(body, fn)
	}

	on := &Statement{
		Kind:      StmtOnBlock,
		Pos:       posRange(ts.At(idx), ts.At(endIdx)),
		EventName: nameTok.Text,
		Body:      body,
	}

	return on, endIdx, nil
}

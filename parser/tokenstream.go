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
TokenStream is a forward cursor over a token slice with unbounded
lookahead; the lexer already runs to completion before the parser ever
sees the token slice.
*/
type TokenStream struct {
	toks []lexer.Token
	pos  int
}

/*
NewTokenStream wraps a fully lexed token slice for cursor-style
consumption by the parser's two passes.
*/
func NewTokenStream(toks []lexer.Token) *TokenStream {
	return &TokenStream{toks: toks}
}

/*
Pos returns the current cursor index into the token slice.
*/
func (ts *TokenStream) Pos() int {
	return ts.pos
}

/*
Seek repositions the cursor. Pass B does not use it: it walks token
indices directly and jumps over the ranges Pass A lifted out.
*/
func (ts *TokenStream) Seek(pos int) {
	ts.pos = pos
}

/*
Len returns the total number of tokens, including the trailing EOF.
*/
func (ts *TokenStream) Len() int {
	return len(ts.toks)
}

/*
At returns the token at an absolute index, clamped to the final EOF
token if out of range.
*/
func (ts *TokenStream) At(i int) lexer.Token {
	if i < 0 {
		i = 0
	}
	if i >= len(ts.toks) {
		return ts.toks[len(ts.toks)-1]
	}
	return ts.toks[i]
}

/*
Peek looks ahead n tokens from the cursor without consuming (n=0 is the
current token).
*/
func (ts *TokenStream) Peek(n int) lexer.Token {
	return ts.At(ts.pos + n)
}

/*
Next returns the current token and advances the cursor, returning an EOF
token forever once the stream is exhausted.
*/
func (ts *TokenStream) Next() lexer.Token {
	t := ts.At(ts.pos)
	if ts.pos < len(ts.toks) {
		ts.pos++
	}
	return t
}

/*
AtEOF reports whether the cursor sits on the terminal EOF token.
*/
func (ts *TokenStream) AtEOF() bool {
	return ts.Peek(0).Kind == lexer.EOF
}

/*
Is reports whether the current token has the given kind.
*/
func (ts *TokenStream) Is(k lexer.Kind) bool {
	return ts.Peek(0).Kind == k
}

/*
IsKeyword reports whether the current token is the named keyword
(case-sensitive match on Text, since the lexer lowercases nothing).
*/
func (ts *TokenStream) IsKeyword(word string) bool {
	t := ts.Peek(0)
	return t.Kind == lexer.Keyword && t.Text == word
}

/*
SkipNewlines advances past any run of Newline tokens.
*/
func (ts *TokenStream) SkipNewlines() {
	for ts.Is(lexer.Newline) {
		ts.Next()
	}
}

/*
Expect consumes the current token if it has kind k, else returns a
descriptive error without advancing.
*/
func (ts *TokenStream) Expect(k lexer.Kind) (lexer.Token, error) {
	t := ts.Peek(0)
	if t.Kind != k {
		return t, &ParseError{
			Kind: ErrExpectedKeyword,
			Line: t.Line, Col: t.Col,
			Detail: "expected " + k.String() + " but found " + t.String(),
		}
	}
	return ts.Next(), nil
}

/*
ExpectKeyword consumes the current token if it is the named keyword.
*/
func (ts *TokenStream) ExpectKeyword(word string) (lexer.Token, error) {
	t := ts.Peek(0)
	if !ts.IsKeyword(word) {
		return t, &ParseError{
			Kind: ErrExpectedKeyword,
			Line: t.Line, Col: t.Col,
			Detail: "expected keyword " + word + " but found " + t.String(),
		}
	}
	return ts.Next(), nil
}

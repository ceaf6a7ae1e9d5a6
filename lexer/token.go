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
Package lexer turns RobinPath source text into a flat token stream. It
keeps the state-machine shape of a hand-rolled scanner (rune-level
next()/backup(), explicit lexFunc states) and recognizes RobinPath's
grammar: keywords, $-sigil variables, decorators and a single comment
style.
*/
package lexer

import "fmt"

/*
Kind identifies the lexical class of a Token.
*/
type Kind int

/*
Token kinds. Mirrors the kind set named in the data model: Keyword,
Identifier, Variable, String, Number, Boolean, Null, the six bracket
kinds, Assign, Dot, Comma, Comment, Newline, EOF - plus a handful of
punctuation kinds (At, Semicolon, Minus, Colon) the grammar needs that
aren't individually named there.
*/
const (
	EOF Kind = iota
	Error
	Newline
	Comment
	Keyword
	Identifier
	Variable
	String
	Number
	Boolean
	Null
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Assign
	Dot
	Comma
	At
	Semicolon
	Minus
	Colon
)

var kindNames = map[Kind]string{
	EOF: "EOF", Error: "Error", Newline: "Newline", Comment: "Comment",
	Keyword: "Keyword", Identifier: "Identifier", Variable: "Variable",
	String: "String", Number: "Number", Boolean: "Boolean", Null: "Null",
	LParen: "LParen", RParen: "RParen", LBrace: "LBrace", RBrace: "RBrace",
	LBracket: "LBracket", RBracket: "RBracket", Assign: "Assign", Dot: "Dot",
	Comma: "Comma", At: "At", Semicolon: "Semicolon", Minus: "Minus",
	Colon: "Colon",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

/*
Token is a single lexical unit, carrying byte-accurate source position so
the parser and writer can derive exact CodePos ranges.
*/
type Token struct {
	Kind   Kind
	Text   string      // Raw source text of the token
	Value  interface{}  // Decoded value for String/Number/Boolean/Null tokens
	Pos    int         // Start byte offset in the source
	End    int         // End byte offset (exclusive) in the source
	Line   int         // 1-based line number of Pos
	Col    int         // 0-based column of Pos
	Source string      // Name of the source (for error messages)
}

/*
String returns a debug representation of a token.
*/
func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}
	if t.Kind == Error {
		return fmt.Sprintf("Error: %s (Line %d, Pos %d)", t.Text, t.Line, t.Col)
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

/*
KeywordMap lists the reserved words of RobinPath. true/false/null are
recognized by the same lexical rule but are NOT members of this map -
they get their own Boolean/Null kind.
*/
var KeywordMap = map[string]bool{
	"def": true, "define": true, "enddef": true,
	"on": true, "endon": true,
	"if": true, "elseif": true, "else": true, "endif": true, "then": true,
	"iftrue": true, "iffalse": true,
	"for": true, "endfor": true, "in": true,
	"do": true, "enddo": true,
	"together": true, "endtogether": true,
	"return": true, "break": true, "continue": true,
	"var": true, "const": true,
	"use": true, "end": true, "import": true, "into": true,
}

/*
IsKeyword reports whether text is a reserved word.
*/
func IsKeyword(text string) bool {
	return KeywordMap[text]
}

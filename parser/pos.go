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
	"strings"

	"github.com/wiredwp/robinpath/lexer"
)

/*
tokenEnd returns the inclusive (row, col) of a token's last byte, counting
embedded newlines inside multi-line tokens (strings, which may span lines;
comments and most other tokens never do).
*/
func tokenEnd(t lexer.Token) (int, int) {
	row := t.Line - 1
	col := t.Col

	nl := strings.Count(t.Text, "\n")
	if nl == 0 {
		end := col + len([]rune(t.Text)) - 1
		if end < col {
			end = col
		}
		return row, end
	}

	row += nl
	last := strings.LastIndexByte(t.Text, '\n')
	tail := t.Text[last+1:]
	end := len([]rune(tail)) - 1
	if end < 0 {
		end = 0
	}
	return row, end
}

/*
posSpan returns the CodePos covering exactly one token.
*/
func posSpan(t lexer.Token) CodePos {
	er, ec := tokenEnd(t)
	return CodePos{
		StartRow: t.Line - 1, StartCol: t.Col,
		EndRow: er, EndCol: ec,
		StartOffset: t.Pos, EndOffset: t.End,
	}
}

/*
posRange returns the CodePos spanning from the start of a to the end of b.
*/
func posRange(a, b lexer.Token) CodePos {
	er, ec := tokenEnd(b)
	return CodePos{
		StartRow: a.Line - 1, StartCol: a.Col,
		EndRow: er, EndCol: ec,
		StartOffset: a.Pos, EndOffset: b.End,
	}
}

/*
posBetween returns the CodePos spanning from the start of a to the end of
the token immediately preceding idx (exclusive), used when a statement's
logical end is "whatever the last content token before idx was".
*/
func posBetween(ts *TokenStream, startTok lexer.Token, endIdxExclusive int) CodePos {
	endTok := ts.At(endIdxExclusive - 1)
	return posRange(startTok, endTok)
}

/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package writer

import (
	"sort"
	"strings"

	"github.com/wiredwp/robinpath/config"
	"github.com/wiredwp/robinpath/parser"
)

/*
edit is one (startOffset, endOffset, replacementText) triple produced
by the minimal-edit-set builder.
*/
type edit struct {
	start, end int
	text       string
}

/*
UpdateCodeFromAST renders the new source text for an edited program,
touching only the byte ranges of top-level statements whose canonical
text differs from the corresponding bytes of original. Untouched
regions - including blank lines between statements, indentation style
and original quote style - are preserved verbatim.
*/
func UpdateCodeFromAST(original string, prog *parser.Program) (string, error) {
	edits := collectEdits(original, prog.Statements, 0)

	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	out := original
	for _, e := range edits {
		if e.start < 0 || e.end > len(out) || e.start > e.end {
			continue
		}
		out = out[:e.start] + e.text + out[e.end:]
	}

	return out, nil
}

/*
collectEdits walks a statement list (recursing into block bodies so a
change deep inside a def/if/for is localized to that inner statement
rather than forcing a full reprint of its enclosing block) and appends
one edit per statement whose canonical text disagrees with T0.
*/
func collectEdits(original string, stmts []*parser.Statement, depth int) []edit {
	var edits []edit
	prevEnd := -1

	for _, s := range stmts {
		start, end := effectiveRange(s, original)

		if start > len(original) && prevEnd >= 0 {
			// A node positioned past the end of original is new: it goes on
			// its own line after the previous sibling, behind any new nodes
			// already placed there. A new first node of a list has no
			// previous sibling and is not placed.
			text := "\n" + Print(s, depth)
			if n := len(edits); n > 0 && edits[n-1].start == prevEnd && edits[n-1].end == prevEnd {
				edits[n-1].text += text
			} else {
				edits = append(edits, edit{start: prevEnd, end: prevEnd, text: text})
			}
			continue
		}
		prevEnd = end

		if start >= 0 && end <= len(original) && start <= end && unchanged(s, original[start:end], original) {
			edits = append(edits, collectChildEdits(original, s, depth)...)
			continue
		}

		canonical := strings.TrimLeft(Print(s, depth), " ")
		if s.Kind == parser.StmtComment && end <= len(original) && strings.HasSuffix(original[start:end], "\n") {
			// The orphan's range absorbed its trailing blank run; keep one
			// final newline so the replacement does not glue the group to
			// the next line.
			canonical += "\n"
		}
		edits = append(edits, edit{start: start, end: end, text: canonical})
	}

	return edits
}

/*
exactBytes reports the canonical text a node should have if untouched;
comparing it against the original bytes at the node's effective range
is how the writer decides whether a reprint is needed at all.
*/
func exactBytes(s *parser.Statement, original string) string {
	// A node's range starts at its first token, after the line's
	// indentation, so the canonical text is taken without it.
	return strings.TrimLeft(Print(s, depthFromOffset(s, original)), " ")
}

/*
unchanged reports whether a node's canonical text matches the original
bytes at its effective range. An orphan comment group's range also
covers the blank run it absorbed, so the comparison ignores trailing
whitespace for comment nodes.
*/
func unchanged(s *parser.Statement, slice, original string) bool {
	exact := exactBytes(s, original)
	if slice == exact {
		return true
	}
	if s.Kind == parser.StmtComment {
		return strings.TrimRight(slice, " \t\n") == exact
	}
	return false
}

/*
depthFromOffset recovers the indentation depth implied by a node's own
recorded column, so the byte-for-byte comparison in collectEdits is not
thrown off by a depth mismatch when the node was not actually moved.
*/
func depthFromOffset(s *parser.Statement, original string) int {
	if indentUnit == 0 {
		return 0
	}
	return s.Pos.StartCol / indentUnit
}

/*
collectChildEdits recurses into the body of a container statement whose
own text matched verbatim, so edits nested arbitrarily deep are still
found without forcing the parent to reprint.
*/
func collectChildEdits(original string, s *parser.Statement, depth int) []edit {
	switch s.Kind {
	case parser.StmtIfBlock:
		var out []edit
		out = append(out, collectEdits(original, s.ThenBranch, depth+1)...)
		for _, ei := range s.ElseIfs {
			out = append(out, collectEdits(original, ei.Body, depth+1)...)
		}
		out = append(out, collectEdits(original, s.ElseBranch, depth+1)...)
		return out

	case parser.StmtForLoop, parser.StmtDefineFunction, parser.StmtScopeBlock, parser.StmtOnBlock:
		return collectEdits(original, s.Body, depth+1)

	case parser.StmtTogetherBlock:
		return collectEdits(original, s.Blocks, depth+1)
	}

	return nil
}

/*
effectiveRange computes a statement's replacement range: the node's own
span, extended backward to cover any attached-above comment group or stacked
decorator line (Print always renders decorators as part of a
DefineFunction's/command's body, so the comparison range must include
them too or every decorated node would look perpetually "changed") and
forward to cover an inline trailing comment. A node whose comments were
explicitly emptied widens instead over the original text's own comment
lines, so the reprint deletes them.
*/
func effectiveRange(s *parser.Statement, original string) (int, int) {
	start := s.Pos.StartOffset
	end := s.Pos.EndOffset

	for _, c := range s.Comments {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if !c.Inline && c.Pos.StartOffset < start {
			start = c.Pos.StartOffset
		}
		if c.Inline && c.Pos.EndOffset > end {
			end = c.Pos.EndOffset
		}
	}

	for _, d := range s.Decorators {
		if d.Pos.StartOffset < start {
			start = d.Pos.StartOffset
		}
	}

	if commentsEmptied(s) {
		start = scanCommentLinesAbove(original, start)
		end = scanInlineCommentAfter(original, end)
	}

	return start, end
}

/*
commentsEmptied reports whether a node's comment set was explicitly
emptied: a non-nil Comments slice whose entries are all blank. A nil
slice means the node simply never had comments and triggers no removal.
*/
func commentsEmptied(s *parser.Statement) bool {
	if s.Comments == nil {
		return false
	}
	for _, c := range s.Comments {
		if strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}

/*
scanCommentLinesAbove walks backward from the line holding offset over
contiguous comment lines (blank lines allowed between), up to the
configured window, and returns the start offset of the topmost comment
line found. Those lines end up inside the node's replacement range and
are dropped by the reprint.
*/
func scanCommentLinesAbove(original string, offset int) int {
	limit := config.Int(config.CommentScanLines)

	start := lineStart(original, offset)
	found := start
	seen := 0

	for start > 0 && seen < limit {
		prev := lineStart(original, start-1)
		line := strings.TrimSpace(original[prev : start-1])

		if strings.HasPrefix(line, "#") {
			seen++
			found = prev
			start = prev
			continue
		}
		if line == "" {
			start = prev
			continue
		}
		break
	}

	return found
}

/*
scanInlineCommentAfter looks for a trailing `# ...` between offset and
the end of its line and, if present, returns the end of that line so the
whitespace run and comment are swallowed by the replacement. The line's
terminating newline stays outside the range.
*/
func scanInlineCommentAfter(original string, offset int) int {
	eol := offset
	for eol < len(original) && original[eol] != '\n' {
		eol++
	}

	rest := original[offset:eol]
	if i := strings.IndexByte(rest, '#'); i >= 0 && strings.TrimSpace(rest[:i]) == "" {
		return eol
	}
	return offset
}

/*
lineStart returns the offset of the first byte of the line containing
offset.
*/
func lineStart(original string, offset int) int {
	if offset > len(original) {
		offset = len(original)
	}
	for offset > 0 && original[offset-1] != '\n' {
		offset--
	}
	return offset
}

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

import "strings"

/*
commentCollector implements the comment association algorithm: a run of
comment lines attaches to the next statement unless a blank line
separates it, in which case it is flushed as its own orphan
CommentStatement. No comment is ever lost or duplicated - every comment
token passed to addComment ends up in exactly one CommentWithPosition,
either attached to a statement or materialized as an orphan.
*/
type commentCollector struct {
	pending           []Comment
	pendingBlankAfter bool
}

/*
blank records a blank line in the input.
*/
func (c *commentCollector) blank() {
	if len(c.pending) > 0 {
		c.pendingBlankAfter = true
	}
}

/*
addComment appends one comment line to the pending run, first flushing
any already-pending run as an orphan if a blank line separated it from
this new run. Returns the flushed orphan statement, or nil if nothing
was flushed.
*/
func (c *commentCollector) addComment(text string, pos CodePos) *Statement {
	var orphan *Statement

	if len(c.pending) > 0 && c.pendingBlankAfter {
		orphan = c.flushOrphan()
	}

	c.pending = append(c.pending, Comment{Text: text, Pos: pos})
	c.pendingBlankAfter = false

	return orphan
}

/*
flushOrphan materializes the current pending run as an orphan
CommentStatement and clears it. The node spans only the comment lines
themselves; the parse loop extends it over the trailing blank run via
absorbBlanksAfter, since only the loop knows where the next content
token sits.
*/
func (c *commentCollector) flushOrphan() *Statement {
	if len(c.pending) == 0 {
		return nil
	}

	group := c.pending
	c.pending = nil
	c.pendingBlankAfter = false

	pos := spanPos(group[0].Pos, group[len(group)-1].Pos)

	return &Statement{
		Kind:           StmtComment,
		Pos:            pos,
		OrphanComments: group,
	}
}

/*
takeAttached is called when a statement line is reached. If a blank line
separates the pending run from this statement, the run is flushed as an
orphan first (returned alongside) and the statement gets no attached
comment; otherwise the run is combined into a single CommentWithPosition
and returned as the attachment.
*/
func (c *commentCollector) takeAttached() (attached *Comment, orphan *Statement) {
	if len(c.pending) == 0 {
		return nil, nil
	}

	if c.pendingBlankAfter {
		return nil, c.flushOrphan()
	}

	group := c.pending
	c.pending = nil
	c.pendingBlankAfter = false

	texts := make([]string, len(group))
	for i, g := range group {
		texts[i] = g.Text
	}

	combined := Comment{
		Text: strings.Join(texts, "\n"),
		Pos:  spanPos(group[0].Pos, group[len(group)-1].Pos),
	}

	return &combined, nil
}

/*
spanPos builds a CodePos covering from the start of a to the end of b,
including byte offsets - used to combine a run of individually-positioned
comment lines into one CodePos without losing the offset fields a plain
row/col copy would drop.
*/
func spanPos(a, b CodePos) CodePos {
	return CodePos{
		StartRow: a.StartRow, StartCol: a.StartCol,
		EndRow: b.EndRow, EndCol: b.EndCol,
		StartOffset: a.StartOffset, EndOffset: b.EndOffset,
	}
}

/*
finish flushes any comment run still pending once the token stream is
exhausted (a trailing orphan group at end of file).
*/
func (c *commentCollector) finish() *Statement {
	if len(c.pending) == 0 {
		return nil
	}
	return c.flushOrphan()
}

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
Package util contains utility definitions and functions shared across the
RobinPath core.
*/
package util

import (
	"encoding/json"
	"errors"
	"fmt"
)

/*
TraceableRuntimeError can record and show a stack trace.
*/
type TraceableRuntimeError interface {
	error

	/*
		AddTrace adds a trace step.
	*/
	AddTrace(node fmt.Stringer)

	/*
		GetTrace returns the current stacktrace.
	*/
	GetTrace() []fmt.Stringer

	/*
		GetTraceString returns the current stacktrace as a string slice.
	*/
	GetTraceString() []string
}

/*
RuntimeError is a runtime related error produced by the executor.
*/
type RuntimeError struct {
	Source string         // Name of the source which was given to the parser
	Type   error          // Error kind (to be used for equality checks)
	Detail string         // Human-readable detail message
	Node   fmt.Stringer   // AST node where the error occurred, if any
	Line   int            // Line of the error (1-based)
	Pos    int            // Column of the error (0-based)
	Trace  []fmt.Stringer // Stacktrace of AST nodes
}

/*
Error kinds, per the error handling design: Lex, Parse, Runtime, Builtin,
Immutable, NotFound, TypeError, NegativeIndex, BreakOutsideLoop,
ContinueOutsideLoop, UnclosedBlock, OrphanedDecorator, UnclosedBracket,
ReturnOutsideFunction.
*/
var (
	ErrLex                   = errors.New("lexical error")
	ErrParse                 = errors.New("parse error")
	ErrRuntime               = errors.New("runtime error")
	ErrBuiltin               = errors.New("builtin failure")
	ErrImmutable             = errors.New("cannot assign to a constant")
	ErrNotFound              = errors.New("name not found")
	ErrTypeError             = errors.New("type error")
	ErrNegativeIndex         = errors.New("negative index")
	ErrBreakOutsideLoop      = errors.New("break outside loop")
	ErrContinueOutsideLoop   = errors.New("continue outside loop")
	ErrUnclosedBlock         = errors.New("unclosed block")
	ErrOrphanedDecorator     = errors.New("orphaned decorator")
	ErrUnclosedBracket       = errors.New("unclosed bracket")
	ErrReturnOutsideFunction = errors.New("return outside function")
	ErrAlreadyDeclared       = errors.New("name already declared")
	ErrInvalidConstruct      = errors.New("invalid construct")

	// Non-error internal control signals. Each is carried as the Type of
	// a RuntimeError but intercepted by the loop/function/program runner
	// before it ever reaches a user or host as a failure.
	ErrReturnSignal   = errors.New("*** return ***")
	ErrBreakSignal    = errors.New("*** break ***")
	ErrContinueSignal = errors.New("*** continue ***")
	ErrEndSignal      = errors.New("*** end ***")
)

/*
IsControlSignal reports whether an error Type is one of the non-error
internal control signals rather than a real failure.
*/
func IsControlSignal(t error) bool {
	return t == ErrReturnSignal || t == ErrBreakSignal ||
		t == ErrContinueSignal || t == ErrEndSignal
}

/*
NewRuntimeError creates a new RuntimeError.
*/
func NewRuntimeError(source string, t error, detail string, line, pos int, node fmt.Stringer) error {
	return &RuntimeError{source, t, detail, node, line, pos, nil}
}

/*
Error returns a human-readable, present-tense, one-sentence
representation of this error.
*/
func (re *RuntimeError) Error() string {
	ret := fmt.Sprintf("%v: %v", re.Type, re.Detail)

	if re.Line != 0 {
		ret = fmt.Sprintf("%s (Line:%d Pos:%d)", ret, re.Line, re.Pos)
	}

	return ret
}

/*
AddTrace adds a trace step.
*/
func (re *RuntimeError) AddTrace(node fmt.Stringer) {
	re.Trace = append(re.Trace, node)
}

/*
GetTrace returns the current stacktrace.
*/
func (re *RuntimeError) GetTrace() []fmt.Stringer {
	return re.Trace
}

/*
GetTraceString returns the current stacktrace as a string slice.
*/
func (re *RuntimeError) GetTraceString() []string {
	res := make([]string, 0, len(re.Trace))
	for _, t := range re.Trace {
		res = append(res, t.String())
	}
	return res
}

/*
ToJSONObject returns this RuntimeError as a JSON-serializable object.
*/
func (re *RuntimeError) ToJSONObject() map[string]interface{} {
	t := ""
	if re.Type != nil {
		t = re.Type.Error()
	}
	return map[string]interface{}{
		"Source": re.Source,
		"Type":   t,
		"Detail": re.Detail,
		"Line":   re.Line,
		"Pos":    re.Pos,
		"Trace":  re.GetTraceString(),
	}
}

/*
MarshalJSON serializes this RuntimeError into a JSON string.
*/
func (re *RuntimeError) MarshalJSON() ([]byte, error) {
	return json.Marshal(re.ToJSONObject())
}

/*
RuntimeErrorWithDetail is a runtime error with additional environment
information, used by host-visible failure reports.
*/
type RuntimeErrorWithDetail struct {
	*RuntimeError
	Locals map[string]interface{}
	Data   interface{}
}

/*
ToJSONObject returns this RuntimeErrorWithDetail as a JSON-serializable
object.
*/
func (re *RuntimeErrorWithDetail) ToJSONObject() map[string]interface{} {
	res := re.RuntimeError.ToJSONObject()
	res["Locals"] = re.Locals
	res["Data"] = re.Data
	return res
}

/*
MarshalJSON serializes this RuntimeErrorWithDetail into a JSON string.
*/
func (re *RuntimeErrorWithDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal(re.ToJSONObject())
}

/*
ParseError is a lexical or syntactic error produced before execution.
*/
type ParseError struct {
	Source string // Name of the source which was parsed
	Kind   error  // One of the Err* sentinels above
	Detail string // Human-readable detail message
	Line   int    // Line of the error (1-based)
	Pos    int    // Column of the error (0-based)
	Text   string // Offending source line content
}

/*
Error returns a human-readable, present-tense, one-sentence
representation of this error.
*/
func (pe *ParseError) Error() string {
	return fmt.Sprintf("%v: %v (Line:%d Pos:%d): %v",
		pe.Kind, pe.Detail, pe.Line, pe.Pos, pe.Text)
}

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
Package interpreter tree-walks a parsed program. Its Frame type holds
one call-stack entry's locals and resolves dotted attribute paths
directly on the parser package's []PathSeg form. Name lookup walks the
stack: non-isolated frames skip isolated frames on the way to globals,
isolated frames never look past themselves.
*/
package interpreter

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

/*
Frame is one entry of the call stack: a set of local variables plus the
flags that determine how name resolution walks past it.
*/
type Frame struct {
	ID               string
	Name             string
	Parent           *Frame
	variables        map[string]interface{}
	constants        map[string]bool
	forgotten        map[string]bool
	lastValue        interface{}
	IsFunctionFrame  bool
	IsIsolatedScope  bool
}

/*
NewFrame creates the bottom-of-stack global frame.
*/
func NewFrame(name string) *Frame {
	return &Frame{
		ID:        uuid.NewString(),
		Name:      name,
		variables: make(map[string]interface{}),
		constants: make(map[string]bool),
		forgotten: make(map[string]bool),
	}
}

/*
NewChild creates a child frame pushed on top of f: `def` and
parameterized `do` push a function frame; parameterized `do` is
additionally isolated.
*/
func (f *Frame) NewChild(name string, isFunction, isIsolated bool) *Frame {
	return &Frame{
		ID:              uuid.NewString(),
		Name:            name,
		Parent:          f,
		variables:       make(map[string]interface{}),
		constants:       make(map[string]bool),
		forgotten:       make(map[string]bool),
		IsFunctionFrame: isFunction,
		IsIsolatedScope: isIsolated,
	}
}

/*
LastValue returns the frame's `$` register.
*/
func (f *Frame) LastValue() interface{} {
	return f.lastValue
}

/*
SetLastValue sets the frame's `$` register.
*/
func (f *Frame) SetLastValue(v interface{}) {
	f.lastValue = v
}

/*
IsForgotten reports whether name was forgotten on this frame.
*/
func (f *Frame) IsForgotten(name string) bool {
	return f.forgotten[name]
}

/*
Forget adds name to this frame's forgotten set (the `forget` command).
*/
func (f *Frame) Forget(name string) {
	f.forgotten[name] = true
}

/*
frameForRead walks from f toward globals, skipping isolated frames,
and returns the first frame (including f) whose locals contain name. It
returns nil if no frame in the chain has it. An isolated frame never
looks past itself.
*/
func (f *Frame) frameForRead(name string) *Frame {
	if _, ok := f.variables[name]; ok {
		return f
	}
	if f.IsIsolatedScope {
		return nil
	}
	if f.Parent == nil {
		return nil
	}
	return f.Parent.frameForRead(name)
}

/*
frameForWrite mirrors the write rule: update in place if the name
already exists somewhere reachable, else create in the current function
frame if we are in one at the top of the stack, else in globals.
*/
func (f *Frame) frameForWrite(name string) *Frame {
	if existing := f.frameForRead(name); existing != nil {
		return existing
	}
	if f.IsIsolatedScope || f.IsFunctionFrame {
		return f
	}
	return f.Global()
}

/*
Global walks to the bottom of the stack.
*/
func (f *Frame) Global() *Frame {
	g := f
	for g.Parent != nil {
		g = g.Parent
	}
	return g
}

/*
GetVar resolves a bare variable name (no attribute path) per the read
rule above.
*/
func (f *Frame) GetVar(name string) (interface{}, bool) {
	if vf := f.frameForRead(name); vf != nil {
		return vf.variables[name], true
	}
	return nil, false
}

/*
SetVar assigns a bare variable name per the write rule, rejecting
rebinding of a constant's base name.
*/
func (f *Frame) SetVar(name string, value interface{}) error {
	target := f.frameForWrite(name)
	if target.constants[name] {
		if _, existed := target.variables[name]; existed {
			return rtErr(util.ErrImmutable, "cannot assign to constant $"+name)
		}
	}
	target.variables[name] = value
	return nil
}

/*
Declare binds name in the current frame, failing if the name is already
bound anywhere the frame can see (the `var` command).
*/
func (f *Frame) Declare(name string, value interface{}) error {
	if f.frameForRead(name) != nil {
		return rtErr(util.ErrAlreadyDeclared, "variable $"+name+" is already declared")
	}
	f.variables[name] = value
	return nil
}

/*
DeclareConst binds name as a constant in the current frame, failing if
the name is already bound (the `const` command).
*/
func (f *Frame) DeclareConst(name string, value interface{}) error {
	if f.frameForRead(name) != nil {
		return rtErr(util.ErrAlreadyDeclared, "name $"+name+" is already declared")
	}
	f.variables[name] = value
	f.constants[name] = true
	return nil
}

/*
IsConst reports whether name is bound as a constant anywhere the frame
can see.
*/
func (f *Frame) IsConst(name string) bool {
	if vf := f.frameForRead(name); vf != nil {
		return vf.constants[name]
	}
	return false
}

/*
GetPath resolves a variable plus attribute path, walking arrays by
index (negative indices count from the end) and objects by key.
*/
func (f *Frame) GetPath(name string, path []parser.PathSeg) (interface{}, bool, error) {
	base, ok := f.GetVar(name)
	if !ok {
		return nil, false, nil
	}
	return walkGet(base, path)
}

func walkGet(container interface{}, path []parser.PathSeg) (interface{}, bool, error) {
	if len(path) == 0 {
		return container, container != nil, nil
	}

	seg := path[0]

	if seg.IsIndex {
		list, ok := container.([]interface{})
		if !ok {
			return nil, false, rtErr(util.ErrTypeError, "not an array")
		}
		idx := seg.Index
		if idx < 0 {
			idx = len(list) + idx
		}
		if idx < 0 {
			return nil, false, rtErr(util.ErrNegativeIndex, "negative index out of range")
		}
		if idx >= len(list) {
			return nil, false, nil
		}
		return walkGet(list[idx], path[1:])
	}

	obj, ok := container.(map[string]interface{})
	if !ok {
		return nil, false, rtErr(util.ErrTypeError, "not an object")
	}
	v, ok := obj[seg.Property]
	if !ok {
		return nil, false, nil
	}
	return walkGet(v, path[1:])
}

/*
SetPath assigns through an attribute path: missing intermediates are
materialized as [] or {} based on the next segment's
kind, an index >= length pads the array with nulls, and a negative
index is rejected.
*/
func (f *Frame) SetPath(name string, path []parser.PathSeg, value interface{}) error {
	if len(path) == 0 {
		return f.SetVar(name, value)
	}

	// A constant's base name cannot be reassigned. Path writes on a
	// constant that already holds a container mutate it in place, but a
	// missing or scalar base would have to be rebound to a fresh
	// container, which the constant forbids.
	target := f.frameForWrite(name)

	base, existed := target.variables[name]
	if !existed || !isContainer(base) {
		if target.constants[name] {
			return rtErr(util.ErrImmutable, "cannot assign to constant $"+name)
		}
		base = newContainerFor(path[0])
	}

	newBase, err := setPathInto(base, path, value)
	if err != nil {
		return err
	}
	target.variables[name] = newBase
	return nil
}

func isContainer(v interface{}) bool {
	switch v.(type) {
	case []interface{}, map[string]interface{}:
		return true
	}
	return false
}

func newContainerFor(seg parser.PathSeg) interface{} {
	if seg.IsIndex {
		return []interface{}{}
	}
	return map[string]interface{}{}
}

func setPathInto(container interface{}, path []parser.PathSeg, value interface{}) (interface{}, error) {
	seg := path[0]
	rest := path[1:]

	if seg.IsIndex {
		list, ok := container.([]interface{})
		if !ok {
			list = []interface{}{}
		}
		idx := seg.Index
		if idx < 0 {
			return nil, rtErr(util.ErrNegativeIndex, "negative index out of range")
		}
		for idx >= len(list) {
			list = append(list, nil)
		}
		if len(rest) == 0 {
			list[idx] = value
			return list, nil
		}
		child := list[idx]
		if !isContainer(child) {
			child = newContainerFor(rest[0])
		}
		newChild, err := setPathInto(child, rest, value)
		if err != nil {
			return nil, err
		}
		list[idx] = newChild
		return list, nil
	}

	obj, ok := container.(map[string]interface{})
	if !ok {
		obj = map[string]interface{}{}
	}
	if len(rest) == 0 {
		obj[seg.Property] = value
		return obj, nil
	}
	child, ok := obj[seg.Property]
	if !ok || !isContainer(child) {
		child = newContainerFor(rest[0])
	}
	newChild, err := setPathInto(child, rest, value)
	if err != nil {
		return nil, err
	}
	obj[seg.Property] = newChild
	return obj, nil
}

/*
String renders a debug view of the frame chain.
*/
func (f *Frame) String() string {
	s := fmt.Sprintf("%s {%d vars}", f.Name, len(f.variables))
	if f.Parent != nil {
		return s + " -> " + f.Parent.String()
	}
	return s
}

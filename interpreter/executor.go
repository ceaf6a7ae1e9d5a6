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
Package interpreter tree-walks a parsed Program against an Environment.
Control flow (break/continue/return/end) rides the ordinary error-return
path as a *ctrlError. `together` is the sole genuine concurrency
construct, built on golang.org/x/sync/errgroup for its fan-out join.
*/
package interpreter

import (
	"golang.org/x/sync/errgroup"

	"github.com/krotik/common/stringutil"

	"github.com/wiredwp/robinpath/config"
	"github.com/wiredwp/robinpath/jsonlit"
	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

var loggerCommands = []string{"log", "error", "debug"}

/*
Execute runs a parsed program to completion against env and returns the
program's final value: the global frame's last value, or the value
carried by an `end` that terminated the run early. An unmatched
break/continue control signal becomes a real error; a top-level return
is treated like `end`.
*/
func Execute(prog *parser.Program, env *Environment) (interface{}, error) {
	env.RegisterFunctions(prog)

	err := execBlock(prog.Statements, env.Global, env)
	if err == nil {
		return env.Global.LastValue(), nil
	}

	if ce, ok := asSignal(err); ok {
		switch ce.kind {
		case errEnd, errReturn:
			return ce.value, nil
		case errBreak:
			return nil, rtErr(util.ErrBreakOutsideLoop, "break outside loop")
		case errContinue:
			return nil, rtErr(util.ErrContinueOutsideLoop, "continue outside loop")
		}
	}
	return nil, err
}

/*
Run parses and executes a source text in one step.
*/
func Run(source string, env *Environment) (interface{}, error) {
	prog, err := parser.Parse(source, "<script>")
	if err != nil {
		return nil, err
	}
	return Execute(prog, env)
}

func execBlock(stmts []*parser.Statement, frame *Frame, env *Environment) error {
	for _, s := range stmts {
		if err := execStatement(s, frame, env); err != nil {
			return err
		}
	}
	return nil
}

func execStatement(s *parser.Statement, frame *Frame, env *Environment) error {
	switch s.Kind {
	case parser.StmtComment:
		return nil

	case parser.StmtCommand:
		return execCommand(s, frame, env)

	case parser.StmtAssignment:
		return execAssignment(s, frame, env)

	case parser.StmtShorthandAssignment:
		return frame.SetPath(s.TargetName, s.TargetPath, frame.LastValue())

	case parser.StmtIfBlock:
		return execIfBlock(s, frame, env)

	case parser.StmtInlineIf:
		return execInlineIf(s, frame, env)

	case parser.StmtIfTrue:
		if Truthy(frame.LastValue()) {
			return execStatement(s.Command, frame, env)
		}
		return nil

	case parser.StmtIfFalse:
		if !Truthy(frame.LastValue()) {
			return execStatement(s.Command, frame, env)
		}
		return nil

	case parser.StmtForLoop:
		return execForLoop(s, frame, env)

	case parser.StmtDefineFunction:
		// Lifted into env.Functions by Pass A / RegisterFunctions; a def
		// encountered inline (e.g. nested in a subexpr) just registers.
		env.Functions[s.Name] = s
		return nil

	case parser.StmtScopeBlock:
		return execScopeBlock(s, frame, env)

	case parser.StmtTogetherBlock:
		return execTogether(s, frame, env)

	case parser.StmtReturn:
		var value interface{}
		if s.Value != nil {
			v, err := evalArg(s.Value, frame, env)
			if err != nil {
				return err
			}
			value = v
		} else {
			value = frame.LastValue()
		}
		return signal(errReturn, value)

	case parser.StmtBreak:
		return signal(errBreak, nil)

	case parser.StmtContinue:
		return signal(errContinue, nil)

	case parser.StmtOnBlock:
		env.EventHandlers[s.EventName] = append(env.EventHandlers[s.EventName], s)
		return nil
	}

	return rtErrAt(util.ErrInvalidConstruct, "unrecognized statement kind", s)
}

func execCommand(s *parser.Statement, frame *Frame, env *Environment) error {
	if s.Module == "" && s.Name == "end" {
		return signal(errEnd, frame.LastValue())
	}

	saved := frame.LastValue()

	value, err := runCommand(s, frame, env)
	if err != nil {
		return err
	}

	if s.Into != nil {
		frame.SetLastValue(saved)
		return frame.SetPath(s.Into.Name, s.Into.Path, value)
	}

	if s.Name == "clear" {
		frame.SetLastValue(nil)
		return nil
	}

	if isNonValueCommand(s.Name) {
		frame.SetLastValue(saved)
		return nil
	}

	frame.SetLastValue(value)
	return nil
}

/*
runCommand computes a command's value without touching lastValue,
letting both execCommand (a standalone Command statement) and
execAssignment (a command used as an RHS) share the same dispatch.
*/
func runCommand(s *parser.Statement, frame *Frame, env *Environment) (interface{}, error) {
	if s.Module == "" {
		switch s.Name {
		case "_var":
			return evalArg(s.Args[0], frame, env)
		case "_subexpr":
			return evalSubexpr(s.Args[0].Str, frame, env)
		case "_object":
			return jsonlit.Decode(s.Args[0].Str, true)
		case "_array":
			return jsonlit.Decode(s.Args[0].Str, false)
		}
		if hostCommands[s.Name] {
			return runHostCommand(s, frame, env)
		}
	}

	positional, named, err := evalArgs(s.Args, frame, env)
	if err != nil {
		return nil, err
	}

	if s.Module == "" && stringutil.IndexOf(s.Name, loggerCommands) != -1 {
		return runLoggerCommand(s.Name, env, positional)
	}

	return dispatchCallNamed(s.Name, s.Module, positional, named, frame, env)
}

func execAssignment(s *parser.Statement, frame *Frame, env *Environment) error {
	var value interface{}

	switch {
	case s.IsLastValue:
		value = frame.LastValue()

	case s.Command != nil:
		saved := frame.LastValue()
		v, err := runCommand(s.Command, frame, env)
		frame.SetLastValue(saved)
		if err != nil {
			return err
		}
		value = v

	default:
		value = s.LiteralValue
	}

	if s.IsLet {
		return frame.DeclareConst(s.TargetName, value)
	}

	return frame.SetPath(s.TargetName, s.TargetPath, value)
}

func execIfBlock(s *parser.Statement, frame *Frame, env *Environment) error {
	cond, err := EvalCondition(s.ConditionExpr, frame, env)
	if err != nil {
		return err
	}
	if Truthy(cond) {
		return execBlock(s.ThenBranch, frame, env)
	}

	for _, ei := range s.ElseIfs {
		c, err := EvalCondition(ei.ConditionExpr, frame, env)
		if err != nil {
			return err
		}
		if Truthy(c) {
			return execBlock(ei.Body, frame, env)
		}
	}

	if s.ElseBranch != nil {
		return execBlock(s.ElseBranch, frame, env)
	}
	return nil
}

func execInlineIf(s *parser.Statement, frame *Frame, env *Environment) error {
	cond, err := EvalCondition(s.ConditionExpr, frame, env)
	if err != nil {
		return err
	}
	if Truthy(cond) {
		return execStatement(s.InlineCommand, frame, env)
	}
	return nil
}

func execForLoop(s *parser.Statement, frame *Frame, env *Environment) error {
	val, err := evalSubexpr(s.IterableExpr, frame, env)
	if err != nil {
		return err
	}

	arr, ok := val.([]interface{})
	if !ok {
		return rtErrAt(util.ErrTypeError, "for loop iterable did not evaluate to an array", s)
	}

	for _, item := range arr {
		if err := frame.SetVar(s.VarName, item); err != nil {
			return err
		}
		frame.SetLastValue(item)

		err := execBlock(s.Body, frame, env)
		if err != nil {
			if ce, ok := asSignal(err); ok {
				if ce.kind == errBreak {
					break
				}
				if ce.kind == errContinue {
					continue
				}
			}
			return err
		}
	}
	return nil
}

/*
execScopeBlock runs a standalone `do ... enddo` block. Explicit scope
parameters make it a function frame and an isolated one.
*/
func execScopeBlock(s *parser.Statement, frame *Frame, env *Environment) error {
	isolated := len(s.ScopeParams) > 0
	child := frame.NewChild("do", isolated, isolated)
	for _, p := range s.ScopeParams {
		child.variables[p] = nil
	}

	if err := execBlock(s.Body, child, env); err != nil {
		return err
	}

	value := child.LastValue()
	if s.Into != nil {
		return frame.SetPath(s.Into.Name, s.Into.Path, value)
	}
	frame.SetLastValue(value)
	return nil
}

/*
execTogether runs each child `do` block as a cooperative task via
errgroup: joins on every task, the first error wins, and each
child's `into` target writes directly into the together's own parent
frame (together introduces no frame of its own). The shared frame is
deliberately unsynchronized across goroutines, matching the data race
the concurrency model accepts in exchange for not imposing ordering.
*/
func execTogether(s *parser.Statement, frame *Frame, env *Environment) error {
	var eg errgroup.Group
	eg.SetLimit(config.Int(config.TogetherConcurrency))

	for _, blk := range s.Blocks {
		blk := blk
		eg.Go(func() error {
			isolated := len(blk.ScopeParams) > 0
			child := frame.NewChild("do", isolated, isolated)
			for _, p := range blk.ScopeParams {
				child.variables[p] = nil
			}

			if err := execBlock(blk.Body, child, env); err != nil {
				return err
			}

			if blk.Into != nil {
				return frame.SetPath(blk.Into.Name, blk.Into.Path, child.LastValue())
			}
			return nil
		})
	}

	return eg.Wait()
}

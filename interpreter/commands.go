/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package interpreter

import (
	"strconv"
	"strings"

	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

/*
DispatchCall resolves and invokes a command name. Resolution order:
forgotten check, user-function registry, type-based
dispatch when a builtin name is registered under several modules (e.g.
`length` in both string. and array.), the current module's prefix, and
finally the raw builtin table. Pseudo-commands (_var/_subexpr/_object/
_array) and the host opt-out set are intercepted earlier, in
runCommand, and never reach here.
*/
func DispatchCall(name, module string, args []interface{}, frame *Frame, env *Environment) (interface{}, error) {
	return dispatchCall(name, module, args, nil, frame, env)
}

/*
dispatchCallNamed is DispatchCall plus a named-argument bag, used by the
command executor; condition-string call-form atoms never carry named
arguments and go through DispatchCall directly.
*/
func dispatchCallNamed(name, module string, args []interface{}, named map[string]interface{}, frame *Frame, env *Environment) (interface{}, error) {
	return dispatchCall(name, module, args, named, frame, env)
}

func dispatchCall(name, module string, args []interface{}, named map[string]interface{}, frame *Frame, env *Environment) (interface{}, error) {
	full := name
	if module != "" {
		full = module + "." + name
	}

	if frame.IsForgotten(name) || frame.IsForgotten(full) {
		return nil, rtErr(util.ErrNotFound, "name not found: "+full)
	}

	if module == "" {
		if fn, ok := env.Functions[name]; ok {
			return callUserFunction(fn, args, named, frame, env)
		}
	}

	key := full
	if module == "" {
		var candidates []string
		for k := range env.Builtins {
			if strings.HasSuffix(k, "."+name) {
				candidates = append(candidates, k)
			}
		}
		switch {
		case len(candidates) > 1 && len(args) > 0:
			_, isArray := args[0].([]interface{})
			for _, c := range candidates {
				if isArray && strings.HasPrefix(c, "array.") {
					key = c
					break
				}
				if !isArray && strings.HasPrefix(c, "string.") {
					key = c
					break
				}
			}
		case env.CurrentModule != "":
			if _, ok := env.Builtins[env.CurrentModule+"."+name]; ok {
				key = env.CurrentModule + "." + name
			}
		}
	}

	fn, ok := env.Builtins[key]
	if !ok {
		fn, ok = env.Builtins[name]
	}
	if !ok {
		return nil, rtErr(util.ErrNotFound, "name not found: "+full)
	}

	callArgs := args
	if len(named) > 0 {
		callArgs = append(append([]interface{}{}, args...), named)
	}
	return fn.Run(frame.ID, frame.variables, callArgs)
}

/*
callUserFunction runs a user-defined function: decorators run in stack
order and may replace the argument list, then a function frame is pushed binding each
parameter name, the raw positional slots "1","2",... and $args, the body
runs, and a pending return signal supplies the result.
*/
func callUserFunction(fn *parser.Statement, args []interface{}, named map[string]interface{}, callerFrame *Frame, env *Environment) (interface{}, error) {
	argsSoFar := args

	for _, d := range fn.Decorators {
		dec, ok := env.Decorators[d.Name]
		if !ok {
			continue
		}
		decArgs := make([]interface{}, 0, len(d.Args))
		for _, a := range d.Args {
			v, err := evalArg(a, callerFrame, env)
			if err != nil {
				return nil, err
			}
			decArgs = append(decArgs, v)
		}
		newArgs, err := dec.Run(fn.Name, argsSoFar, decArgs)
		if err != nil {
			return nil, err
		}
		if newArgs != nil {
			argsSoFar = newArgs
		}
	}

	child := callerFrame.NewChild(fn.Name, true, false)

	for i, p := range fn.ParamNames {
		var v interface{}
		if named != nil {
			if nv, ok := named[p]; ok {
				v = nv
			}
		}
		if v == nil && i < len(argsSoFar) {
			v = argsSoFar[i]
		}
		child.variables[p] = v
	}
	for i, v := range argsSoFar {
		child.variables[strconv.Itoa(i+1)] = v
	}
	if named != nil {
		child.variables["args"] = named
	} else {
		child.variables["args"] = map[string]interface{}{}
	}

	err := execBlock(fn.Body, child, env)
	if err != nil {
		if ce, ok := asSignal(err); ok {
			switch ce.kind {
			case errReturn:
				return ce.value, nil
			case errBreak:
				return nil, rtErr(util.ErrBreakOutsideLoop, "break outside loop in "+fn.Name)
			case errContinue:
				return nil, rtErr(util.ErrContinueOutsideLoop, "continue outside loop in "+fn.Name)
			}
		}
		return nil, err
	}

	return child.LastValue(), nil
}

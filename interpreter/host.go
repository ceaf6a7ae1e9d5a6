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
	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

/*
hostCommands is the opt-out set of host/meta commands: names
intercepted before ordinary name resolution and executed directly
against the Environment and Frame rather than through DispatchCall.
*/
var hostCommands = map[string]bool{
	"use": true, "explain": true, "thread": true, "module": true,
	"set": true, "var": true, "const": true, "empty": true, "end": true,
	"meta": true, "getMeta": true, "getType": true, "has": true,
	"clear": true, "forget": true, "fallback": true, "import": true,
}

/*
nonValueCommands lists the commands whose execution must not disturb
the caller's `$` register.
*/
var nonValueCommands = map[string]bool{
	"log": true, "error": true, "debug": true, "sleep": true, "meta": true,
	"set": true, "var": true, "const": true, "empty": true, "forget": true,
	"clear": true,
}

func isNonValueCommand(name string) bool {
	if nonValueCommands[name] {
		return true
	}
	return len(name) >= 6 && name[:6] == "assert"
}

/*
runHostCommand executes one of the host/meta commands. Name-bearing
arguments (var, const, set, empty, forget, meta, has) are read as bare
text straight off the unevaluated Arg rather than resolved as a variable
lookup, since the variable may not exist yet.
*/
func runHostCommand(s *parser.Statement, frame *Frame, env *Environment) (interface{}, error) {
	switch s.Name {
	case "use":
		module := argBareText(s.Args, 0)
		if module == "clear" {
			module = ""
		}
		env.CurrentModule = module
		return nil, nil

	case "module":
		if argBareText(s.Args, 0) == "list" {
			return env.KnownModules(), nil
		}
		return env.CurrentModule, nil

	case "explain":
		name := argBareText(s.Args, 0)
		if m, ok := env.ModuleMetadata[name]; ok {
			return metadataMapToValue(m), nil
		}
		if m, ok := env.FunctionMetadata[name]; ok {
			return metadataMapToValue(m), nil
		}
		if fn, ok := env.Builtins[name]; ok {
			return fn.DocString()
		}
		if fn, ok := env.Functions[name]; ok {
			return "user function " + fn.Name, nil
		}
		return nil, rtErr(util.ErrNotFound, "explain: unknown name "+name)

	case "thread":
		if env.Threads == nil {
			return nil, rtErr(util.ErrRuntime, "no thread registry configured")
		}
		op := argBareText(s.Args, 0)
		switch op {
		case "list":
			return stringSliceToValues(env.Threads.List()), nil
		case "use":
			return nil, env.Threads.Use(argBareText(s.Args, 1))
		case "create":
			return nil, env.Threads.Create(argBareText(s.Args, 1))
		case "close":
			return nil, env.Threads.Close(argBareText(s.Args, 1))
		}
		return nil, rtErr(util.ErrInvalidConstruct, "unknown thread operation "+op)

	case "set":
		name, path := argVarTarget(s.Args, 0)
		value, err := hostValueArg(s.Args, 1, frame, env)
		if err != nil {
			return nil, err
		}
		if util.IsEmpty(value) && len(s.Args) > 2 {
			fallback, err := hostValueArg(s.Args, 2, frame, env)
			if err != nil {
				return nil, err
			}
			value = fallback
		}
		return nil, frame.SetPath(name, path, value)

	case "var":
		name := argBareText(s.Args, 0)
		value, err := hostValueArg(s.Args, 1, frame, env)
		if err != nil {
			return nil, err
		}
		return nil, frame.Declare(name, value)

	case "const":
		name := argBareText(s.Args, 0)
		value, err := hostValueArg(s.Args, 1, frame, env)
		if err != nil {
			return nil, err
		}
		return nil, frame.DeclareConst(name, value)

	case "empty":
		name, path := argVarTarget(s.Args, 0)
		if frame.IsConst(name) {
			return nil, rtErr(util.ErrImmutable, "cannot empty constant $"+name)
		}
		return nil, frame.SetPath(name, path, nil)

	case "forget":
		frame.Forget(argBareText(s.Args, 0))
		return nil, nil

	case "clear":
		return nil, nil

	case "meta":
		name := argBareText(s.Args, 0)
		key := argBareText(s.Args, 1)
		value, err := hostValueArg(s.Args, 2, frame, env)
		if err != nil {
			return nil, err
		}
		target := env.VariableMetadata
		if len(s.Args) > 0 && s.Args[0].Kind != parser.ArgVar {
			target = env.FunctionMetadata
		}
		if target[name] == nil {
			target[name] = map[string]interface{}{}
		}
		target[name][key] = value
		return nil, nil

	case "getMeta":
		name := argBareText(s.Args, 0)
		target := env.VariableMetadata
		if len(s.Args) > 0 && s.Args[0].Kind != parser.ArgVar {
			target = env.FunctionMetadata
		}
		m, ok := target[name]
		if !ok {
			return nil, nil
		}
		if len(s.Args) < 2 {
			return metadataMapToValue(m), nil
		}
		key := argBareText(s.Args, 1)
		return m[key], nil

	case "getType":
		if len(s.Args) == 0 {
			return typeName(nil), nil
		}
		if a := s.Args[0]; a.Kind == parser.ArgVar {
			v, found, err := frame.GetPath(a.VarName, a.VarPath)
			if err != nil {
				return nil, err
			}
			if _, declared := frame.GetVar(a.VarName); !declared && !found {
				return "undefined", nil
			}
			return typeName(v), nil
		}
		v, err := evalArg(s.Args[0], frame, env)
		if err != nil {
			return nil, err
		}
		return typeName(v), nil

	case "has":
		return hostHas(s.Args, frame, env), nil

	case "fallback":
		if len(s.Args) == 0 {
			return nil, nil
		}
		v, err := evalArg(s.Args[0], frame, env)
		if err != nil || util.IsEmpty(v) {
			if len(s.Args) > 1 {
				return evalArg(s.Args[1], frame, env)
			}
			return nil, nil
		}
		return v, nil

	case "import":
		if env.Importer == nil {
			return nil, rtErr(util.ErrRuntime, "no import locator configured")
		}
		path := argBareText(s.Args, 0)
		source, err := env.Importer.Resolve(path)
		if err != nil {
			return nil, rtErr(util.ErrNotFound, "import "+path+": "+err.Error())
		}
		prog, err := parser.Parse(source, path)
		if err != nil {
			return nil, rtErr(util.ErrInvalidConstruct, "import "+path+": "+err.Error())
		}
		env.RegisterFunctions(prog)
		return nil, nil
	}

	return nil, rtErr(util.ErrInvalidConstruct, "unknown host command "+s.Name)
}

func hostValueArg(args []*parser.Arg, idx int, frame *Frame, env *Environment) (interface{}, error) {
	if idx >= len(args) {
		return nil, nil
	}
	return evalArg(args[idx], frame, env)
}

/*
hostHas implements `has <name>`: a $var form checks the variable
scope chain, a bare or module.name form checks user functions and
builtins.
*/
func hostHas(args []*parser.Arg, frame *Frame, env *Environment) bool {
	if len(args) == 0 {
		return false
	}
	if args[0].Kind == parser.ArgVar {
		_, ok := frame.GetVar(args[0].VarName)
		return ok
	}
	name := argBareText(args, 0)
	if _, ok := env.Functions[name]; ok {
		return true
	}
	if _, ok := env.Builtins[name]; ok {
		return true
	}
	return false
}

func metadataMapToValue(m map[string]interface{}) interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

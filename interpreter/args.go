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
	"github.com/wiredwp/robinpath/jsonlit"
	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

/*
evalArgs evaluates a call's argument list into positional values plus a
merged named-argument bag (from any ArgNamedArgs entries present).
*/
func evalArgs(args []*parser.Arg, frame *Frame, env *Environment) ([]interface{}, map[string]interface{}, error) {
	positional := make([]interface{}, 0, len(args))
	var named map[string]interface{}

	for _, a := range args {
		if a.Kind == parser.ArgNamedArgs {
			if named == nil {
				named = make(map[string]interface{})
			}
			for k, sub := range a.Named {
				v, err := evalArg(sub, frame, env)
				if err != nil {
					return nil, nil, err
				}
				named[k] = v
			}
			continue
		}

		v, err := evalArg(a, frame, env)
		if err != nil {
			return nil, nil, err
		}
		positional = append(positional, v)
	}

	return positional, named, nil
}

/*
evalArg evaluates a single argument leaf to its runtime value.
*/
func evalArg(a *parser.Arg, frame *Frame, env *Environment) (interface{}, error) {
	switch a.Kind {
	case parser.ArgLastValue:
		return frame.LastValue(), nil

	case parser.ArgVar:
		v, _, err := frame.GetPath(a.VarName, a.VarPath)
		return v, err

	case parser.ArgNumber:
		return a.Number, nil

	case parser.ArgString:
		return a.Str, nil

	case parser.ArgLiteral:
		switch a.Str {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return a.Str, nil

	case parser.ArgSubexpr:
		return evalSubexpr(a.Str, frame, env)

	case parser.ArgObject:
		return jsonlit.Decode(a.Str, true)

	case parser.ArgArray:
		return jsonlit.Decode(a.Str, false)

	case parser.ArgNamedArgs:
		named := make(map[string]interface{}, len(a.Named))
		for k, sub := range a.Named {
			v, err := evalArg(sub, frame, env)
			if err != nil {
				return nil, err
			}
			named[k] = v
		}
		return named, nil
	}

	return nil, rtErr(util.ErrInvalidConstruct, "unrecognized argument kind")
}

/*
argBareText reads the idx'th raw argument as a bare name or text, without
evaluating it as a value lookup. Host commands like `var`/`const`/`forget`
need the spelled name, not the (possibly not-yet-existing) variable's
current value.
*/
func argBareText(args []*parser.Arg, idx int) string {
	if idx >= len(args) {
		return ""
	}
	a := args[idx]
	switch a.Kind {
	case parser.ArgVar:
		return a.VarName
	case parser.ArgLiteral, parser.ArgString:
		return a.Str
	}
	return a.String()
}

/*
evalSubexpr runs a `$(...)` body as a mini-script in a child frame
seeded with a shallow copy of the caller's locals, so the
subexpression reads the caller's variables as they stood when it
started. The copy is a separate map, so assignments inside the
subexpression to a name already bound in the immediate caller frame
stay local to the subexpression; only names resolved further up the
frame chain (not shadowed by the copy) are shared live. The
subexpression's own last value is returned to the caller.
*/
func evalSubexpr(code string, frame *Frame, env *Environment) (interface{}, error) {
	prog, err := parser.Parse(splitLogicalLines(code), "<subexpr>")
	if err != nil {
		return nil, rtErr(util.ErrParse, err.Error())
	}
	env.RegisterFunctions(prog)

	sub := frame.NewChild("<subexpr>", false, false)
	for k, v := range frame.variables {
		sub.variables[k] = v
	}

	if err := execBlock(prog.Statements, sub, env); err != nil {
		return nil, err
	}
	return sub.LastValue(), nil
}

/*
splitLogicalLines rewrites semicolons that sit outside strings and
brackets into newlines, so a one-line subexpression body like
`$a = 1; double $a` parses as two statements.
*/
func splitLogicalLines(code string) string {
	var b []byte
	depth := 0
	var quote byte

	for i := 0; i < len(code); i++ {
		c := code[i]

		if quote != 0 {
			if c == '\\' && i+1 < len(code) {
				b = append(b, c, code[i+1])
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			b = append(b, c)
			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ';':
			if depth == 0 {
				b = append(b, '\n')
				continue
			}
		}
		b = append(b, c)
	}

	return string(b)
}

/*
argVarTarget reads the idx'th raw argument as a $variable target,
returning its bare name and attribute path. Host commands like
`set`/`empty` need the unevaluated lvalue, not a resolved value.
*/
func argVarTarget(args []*parser.Arg, idx int) (string, []parser.PathSeg) {
	if idx >= len(args) {
		return "", nil
	}
	if a := args[idx]; a.Kind == parser.ArgVar {
		return a.VarName, a.VarPath
	}
	return argBareText(args, idx), nil
}

/*
typeName reports the `getType` name for a runtime value.
*/
func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return "unknown"
}

func stringSliceToValues(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

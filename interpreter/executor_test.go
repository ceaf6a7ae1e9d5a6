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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

type stubFn struct {
	run func(instanceID string, locals map[string]interface{}, args []interface{}) (interface{}, error)
}

func (s stubFn) Run(instanceID string, locals map[string]interface{}, args []interface{}) (interface{}, error) {
	return s.run(instanceID, locals, args)
}

func (s stubFn) DocString() (string, error) { return "stub", nil }

type stubDecorator struct {
	name  string
	order *[]string
}

func (d stubDecorator) Run(targetName string, args []interface{}, decoratorArgs []interface{}) ([]interface{}, error) {
	*d.order = append(*d.order, d.name)
	return args, nil
}

func mustParse(t *testing.T, src string) *parser.Program {
	t.Helper()
	prog, err := parser.Parse(src, "test")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func registerDouble(env *Environment) {
	env.RegisterBuiltin("", "double", stubFn{run: func(_ string, _ map[string]interface{}, args []interface{}) (interface{}, error) {
		return args[0].(float64) * 2, nil
	}})
}

func TestIfBlockAssignsThroughTakenBranch(t *testing.T) {
	prog := mustParse(t, "$a = 1\n$b = 2\nif $a == 1\n  $c = $b\nendif\n")
	env := NewEnvironment(nil)

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	v, ok := env.Global.GetVar("c")
	if !ok || v != 2.0 {
		t.Errorf("expected $c == 2, got %v (ok=%v)", v, ok)
	}
}

// together with into: assert final values, not interleaving order.
func TestTogetherWritesEachIntoTarget(t *testing.T) {
	env := NewEnvironment(nil)
	registerDouble(env)

	prog := mustParse(t, "together\n  do into $x\n    double 3\n  enddo\n  do into $y\n    double 4\n  enddo\nendtogether\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}

	x, ok := env.Global.GetVar("x")
	if !ok || x != 6.0 {
		t.Errorf("expected $x == 6, got %v (ok=%v)", x, ok)
	}
	y, ok := env.Global.GetVar("y")
	if !ok || y != 8.0 {
		t.Errorf("expected $y == 8, got %v (ok=%v)", y, ok)
	}
}

// A subexpression reads the caller's local via a builtin call.
func TestSubexprReadsCallerLocal(t *testing.T) {
	env := NewEnvironment(nil)
	registerDouble(env)

	prog := mustParse(t, "$a = 5\n$b = $(double $a)\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	v, ok := env.Global.GetVar("b")
	if !ok || v != 10.0 {
		t.Errorf("expected $b == 10, got %v (ok=%v)", v, ok)
	}
}

// Assigning to a declared constant fails with ErrImmutable.
func TestConstReassignmentIsRejected(t *testing.T) {
	env := NewEnvironment(nil)
	prog := mustParse(t, "const $x 1\nset $x 2\n")

	_, err := Execute(prog, env)
	if err == nil {
		t.Fatal("expected an error reassigning a constant")
	}
	re, ok := err.(*util.RuntimeError)
	if !ok || re.Type != util.ErrImmutable {
		t.Fatalf("expected ErrImmutable RuntimeError, got %v (%T)", err, err)
	}
}

// A path assignment on a scalar constant would have to rebind the base
// name to a fresh container, so it is rejected the same way a bare
// rebind is - on both the assignment and the set surfaces.
func TestConstPathAssignmentOnScalarIsRejected(t *testing.T) {
	for _, src := range []string{
		"const $c 1\n$c.p = 2\n",
		"const $c 1\nset $c.p 2\n",
	} {
		t.Run(src, func(t *testing.T) {
			env := NewEnvironment(nil)
			_, err := Execute(mustParse(t, src), env)
			re, ok := err.(*util.RuntimeError)
			if !ok || re.Type != util.ErrImmutable {
				t.Fatalf("expected ErrImmutable, got %v (%T)", err, err)
			}
		})
	}
}

// A constant binds the name, not the object graph: path writes on a
// constant that already holds a container mutate it in place.
func TestConstObjectPathMutationIsAllowed(t *testing.T) {
	env := NewEnvironment(nil)
	prog := mustParse(t, "const $o {\"a\": 1}\n$o.a = 2\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	v, ok := env.Global.GetVar("o")
	if !ok {
		t.Fatal("$o not found")
	}
	obj, ok := v.(map[string]interface{})
	if !ok || obj["a"] != 2.0 {
		t.Errorf("expected $o.a == 2, got %#v", v)
	}
}

// $ register discipline: non-value commands never disturb $.
func TestNonValueCommandsPreserveLastValue(t *testing.T) {
	cases := []string{
		"set $z 1",
		"var $z 1",
		"const $q 1",
		"empty $z",
		"forget $z",
		"log $z",
		"clear", // special-cased separately below for its nil reset
	}

	for _, cmd := range cases {
		if cmd == "clear" {
			continue
		}
		t.Run(cmd, func(t *testing.T) {
			env := NewEnvironment(nil)
			registerDouble(env)
			env.RegisterBuiltin("", "log", stubFn{run: func(_ string, _ map[string]interface{}, _ []interface{}) (interface{}, error) {
				return nil, nil
			}})

			prog := mustParse(t, "double 5\n"+cmd+"\n")
			if _, err := Execute(prog, env); err != nil {
				t.Fatal(err)
			}
			if got := env.Global.LastValue(); got != 10.0 {
				t.Errorf("after %q, expected $ == 10 (unchanged), got %v", cmd, got)
			}
		})
	}
}

func TestClearResetsLastValue(t *testing.T) {
	env := NewEnvironment(nil)
	registerDouble(env)

	prog := mustParse(t, "double 5\nclear\n")
	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	if got := env.Global.LastValue(); got != nil {
		t.Errorf("expected clear to reset $ to nil, got %v", got)
	}
}

// An isolated (parameterized do) scope's writes stay contained.
func TestParameterizedScopeBlockIsIsolated(t *testing.T) {
	env := NewEnvironment(nil)
	prog := mustParse(t, "do $p\n  $p = 1\n  $leak = 2\nenddo\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.Global.GetVar("leak"); ok {
		t.Error("expected $leak to stay contained inside the isolated scope")
	}
	if _, ok := env.Global.GetVar("p"); ok {
		t.Error("expected $p (a scope parameter) to stay contained")
	}
}

// An unparameterized do block is not isolated: its writes land in the
// enclosing (here, global) frame.
func TestUnparameterizedScopeBlockIsNotIsolated(t *testing.T) {
	env := NewEnvironment(nil)
	prog := mustParse(t, "do\n  $shared = 3\nenddo\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	v, ok := env.Global.GetVar("shared")
	if !ok || v != 3.0 {
		t.Errorf("expected $shared == 3 visible in the enclosing frame, got %v (ok=%v)", v, ok)
	}
}

// Stacked decorators run in declaration order.
func TestDecoratorsRunInDeclarationOrder(t *testing.T) {
	env := NewEnvironment(nil)
	var order []string
	env.RegisterDecorator("tagA", stubDecorator{name: "tagA", order: &order})
	env.RegisterDecorator("tagB", stubDecorator{name: "tagB", order: &order})

	prog := mustParse(t, "@tagA\n@tagB\ndef f\n  return 1\nenddef\nf()\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"tagA", "tagB"}, order); diff != "" {
		t.Errorf("decorator run order mismatch (-want +got):\n%s", diff)
	}
}

// Assigning through a path on a not-yet-existing variable materializes
// every missing intermediate container.
func TestAttributePathAssignmentCreatesContainers(t *testing.T) {
	env := NewEnvironment(nil)
	prog := mustParse(t, "$x.a[2].b = 9\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}

	v, ok := env.Global.GetVar("x")
	want := map[string]interface{}{
		"a": []interface{}{nil, nil, map[string]interface{}{"b": 9.0}},
	}
	if !ok {
		t.Fatal("$x was not assigned")
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("materialized container mismatch (-want +got):\n%s", diff)
	}
}

func TestUserFunctionReturnValue(t *testing.T) {
	env := NewEnvironment(nil)
	prog := mustParse(t, "def square $n\n  return $n\nenddef\n$r = square(4)\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	v, ok := env.Global.GetVar("r")
	if !ok || v != 4.0 {
		t.Errorf("expected $r == 4, got %v (ok=%v)", v, ok)
	}
}

// Semicolons outside brackets split a subexpression body into separate
// statements.
func TestSubexprSemicolonsSplitStatements(t *testing.T) {
	env := NewEnvironment(nil)
	registerDouble(env)

	if _, err := Run("$r = $($a = 3; double $a)\n", env); err != nil {
		t.Fatal(err)
	}
	got, ok := env.Global.GetVar("r")
	if !ok || got != 6.0 {
		t.Errorf("expected $r == 6, got %v (ok=%v)", got, ok)
	}
}

// end terminates the program early and the run yields the last value
// current at the end site.
func TestRunEndYieldsCurrentLastValue(t *testing.T) {
	env := NewEnvironment(nil)
	registerDouble(env)
	var called bool
	env.RegisterBuiltin("", "after", stubFn{run: func(_ string, _ map[string]interface{}, _ []interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}})

	v, err := Run("double 5\nend\nafter\n", env)
	if err != nil {
		t.Fatal(err)
	}
	if v != 10.0 {
		t.Errorf("expected end to yield 10, got %v", v)
	}
	if called {
		t.Error("expected no statement to run after end")
	}
}

// A completed run yields the global frame's final last value.
func TestRunYieldsFinalLastValue(t *testing.T) {
	env := NewEnvironment(nil)
	registerDouble(env)

	v, err := Run("double 21\n", env)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42.0 {
		t.Errorf("expected 42, got %v", v)
	}
}

func TestForLoopBreakAndContinue(t *testing.T) {
	env := NewEnvironment(nil)
	env.RegisterBuiltin("", "nums", stubFn{run: func(_ string, _ map[string]interface{}, _ []interface{}) (interface{}, error) {
		return []interface{}{1.0, 2.0, 3.0, 4.0, 5.0}, nil
	}})
	var seen []float64
	env.RegisterBuiltin("", "tally", stubFn{run: func(_ string, _ map[string]interface{}, args []interface{}) (interface{}, error) {
		seen = append(seen, args[0].(float64))
		return nil, nil
	}})

	prog := mustParse(t, "for $i in nums\n  if $i == 3\n    continue\n  endif\n  if $i == 5\n    break\n  endif\n  tally $i\nendfor\n")

	if _, err := Execute(prog, env); err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 4}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("loop visit order mismatch (-want +got):\n%s (continue should skip 3, break should stop before tallying 5)", diff)
	}
}

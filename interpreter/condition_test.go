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
	"time"
)

func TestDeepEqualScalarsAndContainers(t *testing.T) {
	cases := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{"equal numbers", 1.0, 1.0, true},
		{"different numbers", 1.0, 2.0, false},
		{"equal strings", "a", "a", true},
		{"equal empty arrays", []interface{}{}, []interface{}{}, true},
		{"equal arrays", []interface{}{1.0, "x"}, []interface{}{1.0, "x"}, true},
		{"different length arrays", []interface{}{1.0}, []interface{}{1.0, 2.0}, false},
		{"equal objects regardless of build order", map[string]interface{}{"a": 1.0, "b": 2.0}, map[string]interface{}{"b": 2.0, "a": 1.0}, true},
		{"different objects", map[string]interface{}{"a": 1.0}, map[string]interface{}{"a": 2.0}, false},
		{"nested equal", map[string]interface{}{"a": []interface{}{1.0, 2.0}}, map[string]interface{}{"a": []interface{}{1.0, 2.0}}, true},
		{"array vs object", []interface{}{1.0}, map[string]interface{}{"a": 1.0}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := deepEqual(c.a, c.b); got != c.want {
				t.Errorf("deepEqual(%#v, %#v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestEvalConditionOperators(t *testing.T) {
	env := NewEnvironment(nil)
	frame := NewFrame("global")
	frame.SetVar("n", 5.0)
	frame.SetVar("s", "hello")
	frame.SetVar("arr", []interface{}{1.0, 2.0, 3.0})
	frame.SetVar("obj", map[string]interface{}{"k": 1.0})

	cases := []struct {
		expr string
		want interface{}
	}{
		{"$n == 5", true},
		{"$n != 5", false},
		{"$n < 10", true},
		{"$n >= 5", true},
		{"$s == \"hello\"", true},
		{"\"abc\" < \"abd\"", true},
		{"$n == 5 and $s == \"hello\"", true},
		{"$n == 6 or $s == \"hello\"", true},
		{"not ($n == 6)", true},
		// not binds tighter than ==, so this is (not $n) == 6
		{"not $n == 6", false},
		// and binds tighter than or
		{"$n == 6 and $n == 5 or $s == \"hello\"", true},
		{"2 in $arr", true},
		// in binds tighter than ==, so this is (2 in $arr) == true
		{"2 in $arr == true", true},
		{"9 in $arr", false},
		{"\"k\" in $obj", true},
		{"$arr contains 3", true},
		{"($n == 6 or $n == 5) and true", true},
		// ordering comparisons across types are false, equality is not
		{"$n < \"x\"", false},
		{"$n == \"5\"", false},
	}

	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			got, err := EvalCondition(c.expr, frame, env)
			if err != nil {
				t.Fatal(err)
			}
			if got != c.want {
				t.Errorf("EvalCondition(%q) = %v, want %v", c.expr, got, c.want)
			}
		})
	}
}

// A call-form atom inside a condition resolves through the ordinary
// command dispatch.
func TestEvalConditionCallForm(t *testing.T) {
	env := NewEnvironment(nil)
	registerDouble(env)
	frame := NewFrame("global")

	got, err := EvalCondition("double(4) == 8", frame, env)
	if err != nil {
		t.Fatal(err)
	}
	if got != true {
		t.Errorf("expected true, got %v", got)
	}
}

// A self-referencing array must not send deepEqual into an
// infinite recursion.
func TestDeepEqualHandlesCyclicArray(t *testing.T) {
	a := make([]interface{}, 1)
	a[0] = a
	b := make([]interface{}, 1)
	b[0] = b

	done := make(chan bool, 1)
	go func() { done <- deepEqual(a, b) }()

	select {
	case got := <-done:
		if !got {
			t.Error("expected cyclic self-referencing arrays to compare equal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deepEqual did not terminate on a cyclic array")
	}
}

// A self-referencing object must not send deepEqual into an
// infinite recursion.
func TestDeepEqualHandlesCyclicObject(t *testing.T) {
	a := make(map[string]interface{}, 1)
	a["self"] = a
	b := make(map[string]interface{}, 1)
	b["self"] = b

	done := make(chan bool, 1)
	go func() { done <- deepEqual(a, b) }()

	select {
	case got := <-done:
		if !got {
			t.Error("expected cyclic self-referencing objects to compare equal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deepEqual did not terminate on a cyclic object")
	}
}

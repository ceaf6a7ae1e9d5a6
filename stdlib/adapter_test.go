/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package stdlib

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/krotik/common/errorutil"

	"github.com/wiredwp/robinpath/interpreter"
	"github.com/wiredwp/robinpath/parser"
)

func TestHostFunctionAdapterSimple(t *testing.T) {

	res, err := runAdapterTest(
		reflect.ValueOf(strconv.Atoi),
		[]interface{}{"1"},
	)

	if errorutil.AssertOk(err); res != float64(1) {
		t.Error("Unexpected result: ", res, err)
		return
	}

	res, err = runAdapterTest(
		reflect.ValueOf(strconv.ParseUint),
		[]interface{}{"123", float64(0), float64(0)},
	)

	if errorutil.AssertOk(err); res != float64(123) {
		t.Error("Unexpected result: ", res, err)
		return
	}

	res, err = runAdapterTest(
		reflect.ValueOf(strconv.ParseFloat),
		[]interface{}{"123.123", float64(0)},
	)

	if errorutil.AssertOk(err); res != float64(123.123) {
		t.Error("Unexpected result: ", res, err)
		return
	}

	res, err = runAdapterTest(
		reflect.ValueOf(fmt.Sprintf),
		[]interface{}{"foo %v", "bar"},
	)

	if errorutil.AssertOk(err); res != "foo bar" {
		t.Error("Unexpected result: ", res, err)
		return
	}

	res, err = runAdapterTest(
		reflect.ValueOf(math.Float32frombits),
		[]interface{}{float64(math.Float32bits(11))},
	)
	errorutil.AssertOk(err)

	if r := fmt.Sprintf("%v", res.(float64)); r != "11" {
		t.Error("Unexpected result: ", r, err)
		return
	}

	res, err = runAdapterTest(
		reflect.ValueOf(math.Float32frombits),
		[]interface{}{math.Float32bits(11)}, // Giving the correct type also works
	)
	errorutil.AssertOk(err)

	if r := fmt.Sprintf("%v", res.(float64)); r != "11" {
		t.Error("Unexpected result: ", r, err)
		return
	}
}

func TestHostFunctionAdapterNumberFamilies(t *testing.T) {

	cases := []struct {
		name  string
		afunc interface{}
	}{
		{"uint", dummyUint},
		{"uint8", dummyUint8},
		{"uint16", dummyUint16},
		{"uintptr", dummyUintptr},
		{"int8", dummyInt8},
		{"int16", dummyInt16},
		{"int32", dummyInt32},
		{"int64", dummyInt64},
	}

	for _, c := range cases {
		res, err := runAdapterTest(
			reflect.ValueOf(c.afunc),
			[]interface{}{float64(1)},
		)

		if errorutil.AssertOk(err); res != "1" {
			t.Errorf("Unexpected result for %v: %v %v", c.name, res, err)
			return
		}
	}
}

func TestHostFunctionAdapterErrors(t *testing.T) {

	// Test Error cases

	res, err := runAdapterTest(
		reflect.ValueOf(strconv.ParseFloat),
		[]interface{}{"123.123", 0, 0},
	)

	if err == nil || err.Error() != "Too many parameters - got 3 expected 2" {
		t.Error("Unexpected result: ", res, err)
		return
	}

	res, err = runAdapterTest(
		reflect.ValueOf(strconv.ParseFloat),
		[]interface{}{"Hans", 0},
	)

	if err == nil || err.Error() != `strconv.ParseFloat: parsing "Hans": invalid syntax` {
		t.Error("Unexpected result: ", res, err)
		return
	}

	res, err = runAdapterTest(
		reflect.ValueOf(strconv.ParseFloat),
		[]interface{}{123, 0},
	)

	if err == nil || err.Error() != `Parameter 1 should be of type string but is of type int` {
		t.Error("Unexpected result: ", res, err)
		return
	}

	// Make sure we are never panicing but just returning an error

	res, err = runAdapterTest(
		reflect.ValueOf(errorutil.AssertTrue),
		[]interface{}{false, "Some Panic Description"},
	)

	if err == nil || err.Error() != `Error: Some Panic Description` {
		t.Error("Unexpected result: ", res, err)
		return
	}

	// Get documentation

	afunc := NewHostFunctionAdapter(reflect.ValueOf(fmt.Sprint), "test123")

	if s, err := afunc.DocString(); s == "" || err != nil {
		t.Error("Docstring should return something")
		return
	}
}

// An adapted Go function is callable from script code like any other
// builtin, including through a subexpression in a function body.
func TestAdaptedFunctionCallableFromScript(t *testing.T) {

	env := interpreter.NewEnvironment(nil)
	env.RegisterBuiltin("math", "add", Adapt(func(a, b float64) float64 {
		return a + b
	}, "Adds two numbers."))

	prog, err := parser.Parse("def f\n  $k = 10\n  return $(math.add $k 5)\nenddef\n$r = f()\n", "test")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := interpreter.Execute(prog, env); err != nil {
		t.Fatal(err)
	}

	v, ok := env.Global.GetVar("r")
	if !ok || v != float64(15) {
		t.Errorf("expected $r == 15, got %v (ok=%v)", v, ok)
	}
}

func runAdapterTest(afunc reflect.Value, args []interface{}) (interface{}, error) {
	hfunc := &HostFunctionAdapter{afunc, ""}
	return hfunc.Run("test", make(map[string]interface{}), args)
}

func dummyUint(v uint) string {
	return fmt.Sprint(v)
}

func dummyUint8(v uint8) string {
	return fmt.Sprint(v)
}

func dummyUint16(v uint16) string {
	return fmt.Sprint(v)
}

func dummyUintptr(v uintptr) string {
	return fmt.Sprint(v)
}

func dummyInt8(v int8) string {
	return fmt.Sprint(v)
}

func dummyInt16(v int16) string {
	return fmt.Sprint(v)
}

func dummyInt32(v int32) string {
	return fmt.Sprint(v)
}

func dummyInt64(v int64) string {
	return fmt.Sprint(v)
}

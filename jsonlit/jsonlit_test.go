/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package jsonlit

import (
	"reflect"
	"testing"
	"time"
)

func TestDecodeObjectBareAndQuotedKeys(t *testing.T) {
	v, err := Decode(`a: 1, "b": 2, 'c': 3`, true)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{"a": 1.0, "b": 2.0, "c": 3.0}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %#v want %#v", v, want)
	}
}

func TestDecodeObjectTrailingComma(t *testing.T) {
	v, err := Decode(`x: 1,`, true)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{"x": 1.0}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %#v want %#v", v, want)
	}
}

func TestDecodeEmptyObject(t *testing.T) {
	v, err := Decode("", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.(map[string]interface{})) != 0 {
		t.Errorf("expected empty object, got %#v", v)
	}
}

func TestDecodeArrayMixedValues(t *testing.T) {
	v, err := Decode(`1, "two", 'three', true, false, null, -4.5`, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{1.0, "two", "three", true, false, nil, -4.5}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %#v want %#v", v, want)
	}
}

func TestDecodeArrayTrailingComma(t *testing.T) {
	v, err := Decode(`1, 2,`, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{1.0, 2.0}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %#v want %#v", v, want)
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	v, err := Decode("", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.([]interface{})) != 0 {
		t.Errorf("expected empty array, got %#v", v)
	}
}

func TestDecodeNestedObjectsAndArrays(t *testing.T) {
	v, err := Decode(`name: "a", tags: [1, 2, {k: "v"}], meta: {x: 1}`, true)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"name": "a",
		"tags": []interface{}{1.0, 2.0, map[string]interface{}{"k": "v"}},
		"meta": map[string]interface{}{"x": 1.0},
	}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %#v want %#v", v, want)
	}
}

func TestDecodeNumberForms(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"0", 0},
		{"42", 42},
		{"-7", -7},
		{"3.14", 3.14},
		{"-0.5", -0.5},
		{"1e3", 1000},
		{"1.5e-2", 0.015},
	}
	for _, c := range cases {
		v, err := Decode(c.src, false)
		if err != nil {
			t.Fatalf("Decode(%q): %v", c.src, err)
		}
		arr := v.([]interface{})
		if len(arr) != 1 || arr[0] != c.want {
			t.Errorf("Decode(%q) = %#v, want [%v]", c.src, arr, c.want)
		}
	}
}

func TestDecodeStringEscapes(t *testing.T) {
	v, err := Decode(`"a\nb\tc\\d\"e"`, false)
	if err != nil {
		t.Fatal(err)
	}
	arr := v.([]interface{})
	want := "a\nb\tc\\d\"e"
	if arr[0] != want {
		t.Errorf("got %q want %q", arr[0], want)
	}
}

func TestDecodeUnterminatedStringError(t *testing.T) {
	if _, err := Decode(`"abc`, false); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestDecodeMissingColonError(t *testing.T) {
	if _, err := Decode(`a 1`, true); err == nil {
		t.Fatal("expected error for missing colon")
	}
}

func TestDecodeTrailingContentError(t *testing.T) {
	if _, err := Decode(`1, 2 junk`, false); err == nil {
		t.Fatal("expected error for trailing content")
	}
}

func TestDecodeUnclosedContainerError(t *testing.T) {
	if _, err := Decode(`[1, 2`, false); err == nil {
		t.Fatal("expected error for unclosed nested array")
	}
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	obj := map[string]interface{}{
		"b": 2.0,
		"a": []interface{}{1.0, "x", true, nil},
	}
	encoded := Encode(obj)

	v, err := Decode(encoded, true)
	if err != nil {
		t.Fatalf("re-decode failed: %v (encoded=%q)", err, encoded)
	}
	if !reflect.DeepEqual(v, obj) {
		t.Errorf("round-trip mismatch: got %#v want %#v", v, obj)
	}
}

func TestEncodeObjectKeysAreSorted(t *testing.T) {
	got := Encode(map[string]interface{}{"z": 1.0, "a": 2.0})
	want := `"a": 2, "z": 1`
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestEncodeScalars(t *testing.T) {
	cases := []struct {
		v    interface{}
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{false, "false"},
		{2.5, "2.5"},
		{"hi", `"hi"`},
	}
	for _, c := range cases {
		if got := Encode(c.v); got != c.want {
			t.Errorf("Encode(%#v) = %q, want %q", c.v, got, c.want)
		}
	}
}

// A self-referencing array must print the cycle sentinel
// rather than recurse forever.
func TestEncodeCyclicArrayEmitsSentinel(t *testing.T) {
	a := make([]interface{}, 2)
	a[0] = 1.0
	a[1] = a

	done := make(chan string, 1)
	go func() { done <- Encode(a) }()

	select {
	case got := <-done:
		want := `1, "<cycle>"`
		if got != want {
			t.Errorf("got %q want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Encode did not terminate on a cyclic array")
	}
}

// A self-referencing object must print the cycle sentinel
// rather than recurse forever.
func TestEncodeCyclicObjectEmitsSentinel(t *testing.T) {
	a := make(map[string]interface{}, 1)
	a["self"] = a

	done := make(chan string, 1)
	go func() { done <- Encode(a) }()

	select {
	case got := <-done:
		want := `"self": "<cycle>"`
		if got != want {
			t.Errorf("got %q want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Encode did not terminate on a cyclic object")
	}
}

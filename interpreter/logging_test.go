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

	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

func TestLoggerCommandsRouteToEnvironmentLogger(t *testing.T) {
	ml := util.NewMemoryLogger(10)
	env := NewEnvironment(ml)
	frame := NewFrame("global")

	stmt := &parser.Statement{
		Kind: parser.StmtCommand, Name: "log",
		Args: []*parser.Arg{litArg("hello")},
	}
	if _, err := runCommand(stmt, frame, env); err != nil {
		t.Fatal(err)
	}

	stmt.Name = "error"
	if _, err := runCommand(stmt, frame, env); err != nil {
		t.Fatal(err)
	}

	stmt.Name = "debug"
	if _, err := runCommand(stmt, frame, env); err != nil {
		t.Fatal(err)
	}

	want := "hello\nerror: hello\ndebug: hello"
	if ml.String() != want {
		t.Errorf("got %q want %q", ml.String(), want)
	}
}

// Non-string arguments are pretty-printed before being handed to the
// logger, the same formatting the log builtin relies on for structured
// values.
func TestLoggerCommandPrettyPrintsNonStringArgs(t *testing.T) {
	ml := util.NewMemoryLogger(10)
	env := NewEnvironment(ml)
	frame := NewFrame("global")

	stmt := &parser.Statement{
		Kind: parser.StmtCommand, Name: "log",
		Args: []*parser.Arg{numArg(3)},
	}
	if _, err := runCommand(stmt, frame, env); err != nil {
		t.Fatal(err)
	}
	if ml.String() != "3" {
		t.Errorf("got %q want %q", ml.String(), "3")
	}
}

// A nil Logger makes log/error/debug no-ops rather than a panic.
func TestLoggerCommandWithoutLoggerIsNoop(t *testing.T) {
	env := NewEnvironment(nil)
	frame := NewFrame("global")

	stmt := &parser.Statement{
		Kind: parser.StmtCommand, Name: "log",
		Args: []*parser.Arg{litArg("hello")},
	}
	if _, err := runCommand(stmt, frame, env); err != nil {
		t.Fatal(err)
	}
}

// The default logger honors the configured log level: debug messages
// are filtered out at the default "info" level.
func TestNewDefaultLoggerFiltersByConfiguredLevel(t *testing.T) {
	logger := NewDefaultLogger()
	ll, ok := logger.(*util.LogLevelLogger)
	if !ok {
		t.Fatalf("expected a level-filtered logger, got %T", logger)
	}
	if ll.Level() != util.Info {
		t.Errorf("expected default level info, got %v", ll.Level())
	}
}

// log/error/debug preserve $ across execCommand, per the non-value
// command rule.
func TestLoggerCommandPreservesLastValue(t *testing.T) {
	ml := util.NewMemoryLogger(10)
	env := NewEnvironment(ml)
	frame := NewFrame("global")
	frame.SetLastValue("before")

	stmt := &parser.Statement{
		Kind: parser.StmtCommand, Name: "log",
		Args: []*parser.Arg{litArg("hello")},
	}
	if err := execCommand(stmt, frame, env); err != nil {
		t.Fatal(err)
	}
	if frame.LastValue() != "before" {
		t.Errorf("expected $ to remain %q, got %v", "before", frame.LastValue())
	}
}

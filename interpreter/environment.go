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
	"strings"

	"github.com/krotik/common/sortutil"

	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

/*
Environment is the process-wide registry threaded through every Eval
call: globals, user functions, builtins, decorators, metadata, event
handlers and the host collaborators.
*/
type Environment struct {
	Global *Frame

	Functions  map[string]*parser.Statement // name -> DefineFunction
	Builtins   map[string]util.HostFunction
	Decorators map[string]util.Decorator

	ModuleMetadata   map[string]map[string]interface{}
	FunctionMetadata map[string]map[string]interface{}
	VariableMetadata map[string]map[string]interface{}

	EventHandlers map[string][]*parser.Statement // event name -> OnBlock

	CurrentModule string

	Logger   util.Logger
	Importer util.ImportLocator
	Threads  util.ThreadRegistry
	Events   util.EventBus
}

/*
NewEnvironment creates an empty Environment with a fresh global frame.
*/
func NewEnvironment(logger util.Logger) *Environment {
	return &Environment{
		Global:           NewFrame("global"),
		Functions:        make(map[string]*parser.Statement),
		Builtins:         make(map[string]util.HostFunction),
		Decorators:       make(map[string]util.Decorator),
		ModuleMetadata:   make(map[string]map[string]interface{}),
		FunctionMetadata: make(map[string]map[string]interface{}),
		VariableMetadata: make(map[string]map[string]interface{}),
		EventHandlers:    make(map[string][]*parser.Statement),
		Logger:           logger,
	}
}

/*
RegisterFunctions loads a program's top-level def and on registries
into the environment, making them callable/dispatchable from anywhere.
*/
func (e *Environment) RegisterFunctions(prog *parser.Program) {
	for name, fn := range prog.Functions {
		e.Functions[name] = fn
	}
	for _, on := range prog.OnBlocks {
		e.EventHandlers[on.EventName] = append(e.EventHandlers[on.EventName], on)
	}
}

/*
RegisterBuiltin wires a host function into the builtins table,
optionally under a module prefix.
*/
func (e *Environment) RegisterBuiltin(module, name string, fn util.HostFunction) {
	key := name
	if module != "" {
		key = module + "." + name
	}
	e.Builtins[key] = fn
}

/*
RegisterModule wires a whole module of host functions at once,
recording its metadata for `explain` and `module list`.
*/
func (e *Environment) RegisterModule(name string, meta map[string]interface{}, fns map[string]util.HostFunction) {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	e.ModuleMetadata[name] = meta
	for fname, fn := range fns {
		e.RegisterBuiltin(name, fname, fn)
	}
}

/*
RegisterDecorator wires a host decorator function.
*/
func (e *Environment) RegisterDecorator(name string, d util.Decorator) {
	e.Decorators[name] = d
}

/*
KnownModules lists every module name seen so far, from registered module
metadata and from module-prefixed builtin names, in sorted order.
*/
func (e *Environment) KnownModules() []interface{} {
	seen := make(map[string]bool)
	for name := range e.ModuleMetadata {
		seen[name] = true
	}
	for key := range e.Builtins {
		if i := strings.Index(key, "."); i > 0 {
			seen[key[:i]] = true
		}
	}

	modules := make([]interface{}, 0, len(seen))
	for name := range seen {
		modules = append(modules, name)
	}
	sortutil.InterfaceStrings(modules)
	return modules
}

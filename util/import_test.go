/*
 * RobinPath
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileImportLocator(t *testing.T) {
	root := t.TempDir()

	if err := os.Mkdir(filepath.Join(root, "lib"), 0770); err != nil {
		t.Fatal(err)
	}

	source := "def helper\n  return 1\nenddef\n"
	if err := os.WriteFile(filepath.Join(root, "lib", "helper.rpath"), []byte(source), 0660); err != nil {
		t.Fatal(err)
	}

	fil := &FileImportLocator{root}

	res, err := fil.Resolve(filepath.Join("lib", "helper.rpath"))
	if err != nil {
		t.Fatal(err)
	}
	if res != source {
		t.Errorf("Unexpected result: %q", res)
	}

	// A path that climbs out of the root is refused outright.
	if _, err := fil.Resolve(filepath.Join("..", "secret")); err == nil ||
		!strings.HasPrefix(err.Error(), "Import path is outside of code root") {
		t.Errorf("Unexpected result: %v", err)
	}

	// A path inside the root that does not exist surfaces the read error.
	if _, err := fil.Resolve(filepath.Join("lib", "missing.rpath")); err == nil ||
		!strings.HasPrefix(err.Error(), "Could not import path") {
		t.Errorf("Unexpected result: %v", err)
	}

	// Climbing out and back in stays inside the root and is allowed.
	res, err = fil.Resolve(filepath.Join("..", filepath.Base(root), "lib", "helper.rpath"))
	if err != nil || res != source {
		t.Errorf("Unexpected result: %q %v", res, err)
	}
}

func TestMemoryImportLocator(t *testing.T) {
	mil := NewMemoryImportLocator()
	mil.Add("foo", "bar")
	mil.Add("test", "test1")

	if _, err := mil.Resolve("xxx"); err == nil || err.Error() != "Unknown import path: xxx" {
		t.Errorf("Unexpected result: %v", err)
	}

	res, err := mil.Resolve("foo")
	if err != nil || res != "bar" {
		t.Errorf("Unexpected result: %q %v", res, err)
	}

	res, err = mil.Resolve("test")
	if err != nil || res != "test1" {
		t.Errorf("Unexpected result: %q %v", res, err)
	}
}

// The zero value is usable after Add initializes the map lazily.
func TestMemoryImportLocatorZeroValue(t *testing.T) {
	var mil MemoryImportLocator
	mil.Add("foo", "bar")

	res, err := mil.Resolve("foo")
	if err != nil || res != "bar" {
		t.Errorf("Unexpected result: %q %v", res, err)
	}
}

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
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImportLocator implementations
// =============================

/*
MemoryImportLocator serves imports from an in-memory map of path to
source text. Hosts embedding scripts use it to expose those scripts to
the `import` command without touching the filesystem.
*/
type MemoryImportLocator struct {
	Files map[string]string
}

/*
NewMemoryImportLocator creates an empty in-memory locator.
*/
func NewMemoryImportLocator() *MemoryImportLocator {
	return &MemoryImportLocator{Files: make(map[string]string)}
}

/*
Add registers source text under an import path.
*/
func (il *MemoryImportLocator) Add(path, source string) {
	if il.Files == nil {
		il.Files = make(map[string]string)
	}
	il.Files[path] = source
}

/*
Resolve returns the source text registered under path.
*/
func (il *MemoryImportLocator) Resolve(path string) (string, error) {
	res, ok := il.Files[path]
	if !ok {
		return "", fmt.Errorf("Unknown import path: %v", path)
	}
	return res, nil
}

/*
FileImportLocator serves imports from files below a root directory.
Paths are resolved relative to the root; a path escaping the root is
refused, so a script cannot import arbitrary files off the host.
*/
type FileImportLocator struct {
	Root string
}

/*
Resolve reads the file behind an import path.
*/
func (il *FileImportLocator) Resolve(path string) (string, error) {
	target := filepath.Clean(filepath.Join(il.Root, path))

	if !il.contains(target) {
		return "", fmt.Errorf("Import path is outside of code root: %v", path)
	}

	b, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("Could not import path %v: %v", path, err)
	}

	return string(b), nil
}

/*
contains reports whether target lies at or below the locator's root.
*/
func (il *FileImportLocator) contains(target string) bool {
	rel, err := filepath.Rel(il.Root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

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
	"fmt"

	"github.com/wiredwp/robinpath/parser"
	"github.com/wiredwp/robinpath/util"
)

/*
rtErr builds a position-less util.RuntimeError, used where the failure
is not yet anchored to a specific statement.
*/
func rtErr(t error, detail string) error {
	return util.NewRuntimeError("", t, detail, 0, 0, nil)
}

/*
rtErrAt builds a util.RuntimeError anchored to a statement's source
position, used once the executor has a Statement in hand.
*/
func rtErrAt(t error, detail string, s *parser.Statement) error {
	line, col := 0, 0
	if s != nil {
		line, col = s.Pos.StartRow+1, s.Pos.StartCol
	}
	return util.NewRuntimeError("", t, detail, line, col, stmtStringer{s: s})
}

type stmtStringer struct{ s *parser.Statement }

func (ss stmtStringer) String() string {
	if ss.s == nil {
		return "<nil>"
	}
	return ss.s.String()
}

var _ fmt.Stringer = stmtStringer{}

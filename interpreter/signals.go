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
	"github.com/krotik/common/errorutil"

	"github.com/wiredwp/robinpath/util"
)

/*
ctrlError carries the non-error internal control signals (return, break,
continue, end) up through the ordinary Go error-return path, plus the
value a return signal hands back to its function frame.
*/
type ctrlError struct {
	kind  error
	value interface{}
}

func (c *ctrlError) Error() string { return c.kind.Error() }

func signal(kind error, value interface{}) error {
	errorutil.AssertTrue(util.IsControlSignal(kind),
		"signal called with a non-signal error kind")
	return &ctrlError{kind: kind, value: value}
}

func asSignal(err error) (*ctrlError, bool) {
	ce, ok := err.(*ctrlError)
	return ce, ok
}

var (
	errBreak    = util.ErrBreakSignal
	errContinue = util.ErrContinueSignal
	errReturn   = util.ErrReturnSignal
	errEnd      = util.ErrEndSignal
)

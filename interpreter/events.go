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

import "strconv"

/*
Dispatch invokes every on-block registered for the named event, in
registration order, each on a fresh function frame with the event
arguments bound to the positional names "1", "2", ... A return or end
signal finishes that handler; any other error aborts the dispatch.
*/
func Dispatch(event string, args []interface{}, env *Environment) error {
	for _, on := range env.EventHandlers[event] {
		frame := env.Global.NewChild("on "+event, true, false)
		for i, v := range args {
			frame.variables[strconv.Itoa(i+1)] = v
		}

		if err := execBlock(on.Body, frame, env); err != nil {
			if ce, ok := asSignal(err); ok {
				if ce.kind == errReturn || ce.kind == errEnd {
					continue
				}
			}
			return err
		}
	}
	return nil
}

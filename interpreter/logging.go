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
	"github.com/krotik/common/stringutil"

	"github.com/wiredwp/robinpath/util"
)

/*
NewDefaultLogger builds the logger a host gets when it does not bring
its own: stdout, filtered at the configured default log level.
*/
func NewDefaultLogger() util.Logger {
	logger, err := util.NewDefaultLogLevelLogger(util.NewStdOutLogger())
	if err != nil {
		return util.NewStdOutLogger()
	}
	return logger
}

/*
runLoggerCommand routes the log/error/debug commands to env.Logger.
Non-string arguments are pretty-printed before being handed to the
logger, and a nil Logger makes the command a no-op rather than a panic.
*/
func runLoggerCommand(name string, env *Environment, args []interface{}) (interface{}, error) {
	if env.Logger == nil {
		return nil, nil
	}

	pretty := make([]interface{}, len(args))
	for i, a := range args {
		if _, ok := a.(string); ok {
			pretty[i] = a
			continue
		}
		pretty[i] = stringutil.ConvertToPrettyString(a)
	}

	switch name {
	case "log":
		env.Logger.LogInfo(pretty...)
	case "error":
		env.Logger.LogError(pretty...)
	case "debug":
		env.Logger.LogDebug(pretty...)
	}

	return nil, nil
}

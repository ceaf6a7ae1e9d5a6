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
	"io"
	"log"
	"strings"

	"github.com/krotik/common/datautil"

	"github.com/wiredwp/robinpath/config"
)

// Log levels
// ==========

/*
LogLevel is the threshold of a level-filtered logger. The three levels
mirror the three logging commands of the language: debug passes
everything, info suppresses debug, error suppresses debug and info.
*/
type LogLevel string

/*
Log levels
*/
const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Error LogLevel = "error"
)

/*
ParseLogLevel converts a level name into a LogLevel.
*/
func ParseLogLevel(level string) (LogLevel, error) {
	llevel := LogLevel(strings.ToLower(level))

	if llevel != Debug && llevel != Info && llevel != Error {
		return "", fmt.Errorf("Invalid log level: %v", llevel)
	}

	return llevel, nil
}

/*
allows reports whether a message of level m passes threshold l.
*/
func (l LogLevel) allows(m LogLevel) bool {
	switch l {
	case Debug:
		return true
	case Info:
		return m != Debug
	}
	return m == Error
}

/*
formatLine renders one log line the way the language's log commands
expect it: info messages are bare, error and debug messages carry their
level as a prefix.
*/
func formatLine(level LogLevel, m []interface{}) string {
	text := fmt.Sprint(m...)
	if level == Info {
		return text
	}
	return fmt.Sprintf("%v: %v", level, text)
}

// Logging implementations
// =======================

/*
lineLogger implements Logger over a single line sink, so each output
target only supplies the sink instead of repeating the three level
methods.
*/
type lineLogger struct {
	write func(line string)
}

/*
LogError adds a new error log message.
*/
func (l *lineLogger) LogError(m ...interface{}) {
	l.write(formatLine(Error, m))
}

/*
LogInfo adds a new info log message.
*/
func (l *lineLogger) LogInfo(m ...interface{}) {
	l.write(formatLine(Info, m))
}

/*
LogDebug adds a new debug log message.
*/
func (l *lineLogger) LogDebug(m ...interface{}) {
	l.write(formatLine(Debug, m))
}

/*
MemoryLogger collects log lines in a bounded in-memory ring buffer,
oldest lines evicted first.
*/
type MemoryLogger struct {
	lineLogger
	buf *datautil.RingBuffer
}

/*
NewMemoryLogger returns a memory logger keeping at most size lines.
*/
func NewMemoryLogger(size int) *MemoryLogger {
	ml := &MemoryLogger{buf: datautil.NewRingBuffer(size)}
	ml.write = func(line string) {
		ml.buf.Add(line)
	}
	return ml
}

/*
Slice returns the retained log lines in order.
*/
func (ml *MemoryLogger) Slice() []string {
	sl := ml.buf.Slice()
	ret := make([]string, len(sl))
	for i, lm := range sl {
		ret[i] = lm.(string)
	}
	return ret
}

/*
Reset discards the retained log lines.
*/
func (ml *MemoryLogger) Reset() {
	ml.buf.Reset()
}

/*
Size returns the number of retained log lines.
*/
func (ml *MemoryLogger) Size() int {
	return ml.buf.Size()
}

/*
String returns the retained log lines joined by newlines.
*/
func (ml *MemoryLogger) String() string {
	return ml.buf.String()
}

/*
NewStdOutLogger returns a logger writing each line via the standard
log package.
*/
func NewStdOutLogger() Logger {
	return &lineLogger{func(line string) {
		log.Print(line)
	}}
}

/*
NewBufferLogger returns a logger appending each line to buf.
*/
func NewBufferLogger(buf io.Writer) Logger {
	return &lineLogger{func(line string) {
		fmt.Fprintln(buf, line)
	}}
}

// Level-filtered wrapper
// ======================

/*
LogLevelLogger filters another logger by a threshold level.
*/
type LogLevelLogger struct {
	logger Logger
	level  LogLevel
}

/*
NewLogLevelLogger wraps a given logger with a named threshold level.
*/
func NewLogLevelLogger(logger Logger, level string) (*LogLevelLogger, error) {
	llevel, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	return &LogLevelLogger{
		logger,
		llevel,
	}, nil
}

/*
NewDefaultLogLevelLogger wraps a given logger at the process-wide
configured default level.
*/
func NewDefaultLogLevelLogger(logger Logger) (*LogLevelLogger, error) {
	return NewLogLevelLogger(logger, config.Str(config.DefaultLogLevel))
}

/*
Level returns the threshold level.
*/
func (ll *LogLevelLogger) Level() LogLevel {
	return ll.level
}

/*
LogError adds a new error log message.
*/
func (ll *LogLevelLogger) LogError(m ...interface{}) {
	if ll.level.allows(Error) {
		ll.logger.LogError(m...)
	}
}

/*
LogInfo adds a new info log message.
*/
func (ll *LogLevelLogger) LogInfo(m ...interface{}) {
	if ll.level.allows(Info) {
		ll.logger.LogInfo(m...)
	}
}

/*
LogDebug adds a new debug log message.
*/
func (ll *LogLevelLogger) LogDebug(m ...interface{}) {
	if ll.level.allows(Debug) {
		ll.logger.LogDebug(m...)
	}
}

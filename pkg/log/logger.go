// Copyright 2022 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log routes ifdtool diagnostics. The tool emits exactly two
// kinds: warnings about dangerous but legal edits (shrinking a region,
// padding an undersized payload), and fatal errors that abort the run
// before an output image is written.
package log

import (
	"fmt"
	"os"
)

// Logger is the sink for ifdtool diagnostics.
type Logger interface {
	// Warnf reports a dangerous but non-fatal condition.
	Warnf(format string, args ...interface{})

	// Fatalf reports an unrecoverable error and exits the process
	// with a non-zero status.
	Fatalf(format string, args ...interface{})
}

// DefaultLogger receives all package-level calls. Tests may swap it to
// capture output.
var DefaultLogger Logger = stderrLogger{}

// stderrLogger writes prefixed single-line messages to stderr, matching
// the diagnostics of the classic C tool.
type stderrLogger struct{}

// Warnf implements Logger.
func (stderrLogger) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ifdtool: warning: "+format+"\n", args...)
}

// Fatalf implements Logger.
func (stderrLogger) Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ifdtool: fatal: "+format+"\n", args...)
	os.Exit(1)
}

// Warnf reports a dangerous but non-fatal condition.
func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

// Fatalf reports an unrecoverable error and exits the process with a
// non-zero status (via DefaultLogger.Fatalf).
func Fatalf(format string, args ...interface{}) {
	DefaultLogger.Fatalf(format, args...)
}

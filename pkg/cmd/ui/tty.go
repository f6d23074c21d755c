// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"io"
	"os"
)

// TTY writes regular output to stdout; warnings and debug lines (only
// when debug is on) go to stderr.
type TTY struct {
	debug  bool
	stdout io.Writer
	stderr io.Writer
}

var _ UI = TTY{}

func NewTTY(debug bool) TTY {
	return TTY{debug, os.Stdout, os.Stderr}
}

// NewCustomWriterTTY lets tests capture output.
func NewCustomWriterTTY(debug bool, stdout, stderr io.Writer) TTY {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return TTY{debug, stdout, stderr}
}

func (t TTY) Printf(str string, args ...interface{}) {
	fmt.Fprintf(t.stdout, str, args...)
}

func (t TTY) Warnf(str string, args ...interface{}) {
	fmt.Fprintf(t.stderr, str, args...)
}

func (t TTY) Debugf(str string, args ...interface{}) {
	if t.debug {
		fmt.Fprintf(t.stderr, "debug: "+str, args...)
	}
}

func (t TTY) DebugWriter() io.Writer {
	if t.debug {
		return t.stderr
	}
	return io.Discard
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own exit status,
// such as cli.ExitError. Their message has already been shown.
type exitCoder interface {
	ExitCode() int
}

// exit is replaced in tests.
var exit = os.Exit

// Fatal writes "error: err" to stderr and exits with code 1. Errors
// carrying an exit code exit with that code and print nothing.
func Fatal(err error) {
	exit(report(os.Stderr, err))
}

// report writes err to w unless it carries its own exit code, and
// returns the status to exit with.
func report(w io.Writer, err error) int {
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}

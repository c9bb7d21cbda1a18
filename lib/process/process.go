// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit ends the process for the error returned by run(). A nil error
// returns normally.
//
//	func main() { process.Exit(run()) }
func Exit(err error) {
	if code := report(os.Stderr, err); code != 0 {
		os.Exit(code)
	}
}

// report writes err to w and returns the exit status. Errors that
// implement ExitCode() have already told the user what went wrong and
// are not printed.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}

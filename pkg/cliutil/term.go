// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package cliutil

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// GetTerminalWidth returns the width (in columns) that output to stdout should be wrapped to, or 0
// if the output should not be wrapped at all.
//
// A COLUMNS environment variable takes priority, the way it does for sh(1).  Otherwise the width
// is whatever the kernel says stdout's terminal is, falling back to the traditional 80 for a
// terminal of unknowable size.  Non-terminal stdout (a pipe, a file) gets 0.
func GetTerminalWidth() int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
		return cols
	}
	if cols, _, err := term.GetSize(1); err == nil {
		return cols
	}
	if term.IsTerminal(1) {
		return 80
	}
	return 0
}

package main

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	// defaultColumnWidth is used when output is not a terminal.
	defaultColumnWidth = 40
	// minColumnWidth keeps the column readable on narrow terminals.
	minColumnWidth = 20
)

// terminalWidth returns the width of out when it is a terminal, or 0.
func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// columnWidth sizes a trailing free-text column: the terminal width minus
// the reserved width of the columns before it.
func columnWidth(out io.Writer, reserved int) int {
	total := terminalWidth(out)
	if total == 0 {
		return defaultColumnWidth
	}
	return max(total-reserved, minColumnWidth)
}

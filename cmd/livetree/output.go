package main

import (
	"fmt"
	"io"
)

// printer writes status lines, colored when the stream is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func (p printer) mark(code, symbol string) string {
	if !p.color {
		return symbol
	}
	return "\033[" + code + "m" + symbol + "\033[0m"
}

// success prints a success message.
func (p printer) success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.mark("32", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (p printer) info(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func (p printer) warn(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.mark("33", "⚠"), fmt.Sprintf(format, args...))
}

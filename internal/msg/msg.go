package msg

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Output is where messages go, color.Output strips colors on non-terminals
var Output io.Writer = color.Output

// exit is swapped out in tests
var exit = os.Exit

func line(prefix, format string, a ...any) {
	fmt.Fprint(Output, prefix)
	fmt.Fprint(Output, ": ")
	fmt.Fprintf(Output, format, a...)
	fmt.Fprint(Output, "\n")
}

func Error(format string, a ...any) {
	line(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	line(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	line(color.RedString("fatal"), format, a...)
	exit(1)
}

func Info(format string, a ...any) {
	line(color.HiGreenString("info"), format, a...)
}

type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if !w.didIndent {
			w.W.Write([]byte(w.Indent))
			w.didIndent = true
		}
		w.W.Write([]byte{c}) // FIXME-perf: buffer this
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	return len(p), nil
}

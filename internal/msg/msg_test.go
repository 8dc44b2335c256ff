package msg

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prevOut, prevNoColor, prevExit := Output, color.NoColor, exit
	Output, color.NoColor = buf, true
	t.Cleanup(func() { Output, color.NoColor, exit = prevOut, prevNoColor, prevExit })
	return buf
}

func TestMessages(t *testing.T) {
	buf := capture(t)

	Info("generated %d targets", 3)
	Warn("no sources in %s", "examples")
	Error("oops")

	assert.Equal(t, "info: generated 3 targets\nwarn: no sources in examples\nerror: oops\n", buf.String())
}

func TestFatalExits(t *testing.T) {
	buf := capture(t)
	code := -1
	exit = func(c int) { code = c }

	Fatal("duplicate target name %q", "x")

	assert.Equal(t, 1, code)
	assert.Equal(t, "fatal: duplicate target name \"x\"\n", buf.String())
}

func TestIndentWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &IndentWriter{Indent: "  ", W: buf}

	_, _ = w.Write([]byte("Cloning\nremote: done"))
	_, _ = w.Write([]byte(".\n"))

	assert.Equal(t, "  Cloning\n  remote: done.\n", buf.String())
}

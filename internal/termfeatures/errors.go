package termfeatures

import "errors"

var (
	// ErrDumbTerminal is returned by SetWindowTitle when TERM is dumb.
	ErrDumbTerminal = errors.New("TERM=dumb: window title not set")

	// ErrNotATerminal means stdin or stdout is not a terminal with a known
	// size. The interactive editor refuses to start; `qline query` still works.
	ErrNotATerminal = errors.New("qline needs an interactive terminal, use `qline query <expr>` instead")
)

// Package termfeatures detects what the attached terminal can do: its size,
// color support and whether it accepts window title escape sequences.
package termfeatures

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// CompactWidth is the column count below which a terminal is treated as a
// compact device.
const CompactWidth = 60

// Capabilities describes the terminal's feature support.
type Capabilities struct {
	// Terminal identification
	Term        string // TERM environment variable
	TermProgram string // TERM_PROGRAM environment variable

	Profile termenv.Profile
	Width   int // 0 when the output is not a terminal
	Height  int

	// Environment context
	IsSSH    bool
	IsTmux   bool
	IsScreen bool
	IsDumb   bool
}

// Terminal provides safe terminal operations with automatic capability detection.
type Terminal struct {
	output       *termenv.Output
	capabilities Capabilities
}

// New creates a Terminal for stdout.
func New() *Terminal {
	return NewWithOutput(termenv.DefaultOutput(), int(os.Stdout.Fd()))
}

// NewWithOutput creates a Terminal writing to output whose size is read
// from fd.
func NewWithOutput(output *termenv.Output, fd int) *Terminal {
	caps := detectCapabilities(os.Getenv)
	caps.Profile = output.Profile
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			caps.Width, caps.Height = w, h
		}
	}
	return &Terminal{output: output, capabilities: caps}
}

// Capabilities returns the detected terminal capabilities.
func (t *Terminal) Capabilities() Capabilities {
	return t.capabilities
}

// Compact reports whether the terminal is narrow or too limited for the
// editor to grab focus at start.
func (t *Terminal) Compact() bool {
	return t.capabilities.Compact()
}

func (c Capabilities) Compact() bool {
	if c.IsDumb || (c.Profile == termenv.Ascii && c.Width == 0) {
		return true
	}
	return c.Width > 0 && c.Width < CompactWidth
}

// SupportsWindowTitle returns true if the terminal accepts OSC 2.
func (t *Terminal) SupportsWindowTitle() bool {
	return !t.capabilities.IsDumb && t.capabilities.Width > 0
}

// SetWindowTitle sets the terminal window title. On terminals without title
// support it writes nothing and returns ErrDumbTerminal or ErrNotATerminal.
func (t *Terminal) SetWindowTitle(title string) error {
	if t.capabilities.IsDumb {
		return ErrDumbTerminal
	}
	if !t.SupportsWindowTitle() {
		return ErrNotATerminal
	}

	title = sanitizeTitle(title)

	var seq string
	if t.capabilities.IsTmux {
		// tmux passthrough: \ePtmux;\e\e]2;title\a\e\\
		seq = fmt.Sprintf("\x1bPtmux;\x1b\x1b]2;%s\x07\x1b\\", title)
	} else {
		seq = fmt.Sprintf("\x1b]2;%s\x07", title)
	}

	_, err := t.output.WriteString(seq)
	return err
}

// ResetWindowTitle clears the title set by SetWindowTitle.
func (t *Terminal) ResetWindowTitle() error {
	return t.SetWindowTitle("")
}

func detectCapabilities(getenv func(string) string) Capabilities {
	termName := getenv("TERM")
	return Capabilities{
		Term:        termName,
		TermProgram: getenv("TERM_PROGRAM"),
		IsSSH:       getenv("SSH_TTY") != "" || getenv("SSH_CONNECTION") != "",
		IsTmux:      getenv("TMUX") != "",
		IsScreen:    getenv("STY") != "",
		IsDumb:      termName == "dumb" || termName == "",
	}
}

// sanitizeTitle removes control characters and limits length.
func sanitizeTitle(title string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(title))

	for _, r := range title {
		if r >= 32 && r != 127 {
			sanitized.WriteRune(r)
		} else if r == '\t' {
			sanitized.WriteRune(' ')
		}
	}

	// limit in runes to avoid splitting multi-byte characters
	runes := []rune(sanitized.String())
	if len(runes) > 255 {
		runes = runes[:255]
	}
	return string(runes)
}

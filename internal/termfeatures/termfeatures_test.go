package termfeatures

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestDetectCapabilities(t *testing.T) {
	env := map[string]string{
		"TERM":           "xterm-256color",
		"TERM_PROGRAM":   "WezTerm",
		"SSH_CONNECTION": "10.0.0.1 22 10.0.0.2 50000",
		"TMUX":           "/tmp/tmux-1000/default,1,0",
	}
	caps := detectCapabilities(func(k string) string { return env[k] })

	assert.Equal(t, "xterm-256color", caps.Term)
	assert.Equal(t, "WezTerm", caps.TermProgram)
	assert.True(t, caps.IsSSH)
	assert.True(t, caps.IsTmux)
	assert.False(t, caps.IsScreen)
	assert.False(t, caps.IsDumb)

	caps = detectCapabilities(func(string) string { return "" })
	assert.True(t, caps.IsDumb)
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want bool
	}{
		{"wide color terminal", Capabilities{Term: "xterm", Profile: termenv.TrueColor, Width: 120}, false},
		{"narrow terminal", Capabilities{Term: "xterm", Profile: termenv.ANSI256, Width: 40}, true},
		{"dumb terminal", Capabilities{Term: "dumb", IsDumb: true, Width: 120}, true},
		{"no tty and no color", Capabilities{Term: "xterm", Profile: termenv.Ascii}, true},
		{"no tty with color", Capabilities{Term: "xterm", Profile: termenv.ANSI}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.caps.Compact())
		})
	}
}

func TestSetWindowTitle(t *testing.T) {
	var buf bytes.Buffer
	terminal := &Terminal{
		output:       termenv.NewOutput(&buf),
		capabilities: Capabilities{Term: "xterm", Width: 100},
	}

	assert.NoError(t, terminal.SetWindowTitle("qline\x07 up"))
	assert.Equal(t, "\x1b]2;qline up\x07", buf.String())

	buf.Reset()
	terminal.capabilities.IsTmux = true
	assert.NoError(t, terminal.ResetWindowTitle())
	assert.Equal(t, "\x1bPtmux;\x1b\x1b]2;\x07\x1b\\", buf.String())

	buf.Reset()
	terminal.capabilities.IsDumb = true
	assert.ErrorIs(t, terminal.SetWindowTitle("x"), ErrDumbTerminal)

	terminal.capabilities = Capabilities{Term: "xterm"}
	assert.ErrorIs(t, terminal.SetWindowTitle("x"), ErrNotATerminal)
	assert.Empty(t, buf.String(), "nothing is written without title support")
}

func TestErrorsPointAtAlternatives(t *testing.T) {
	assert.ErrorContains(t, ErrNotATerminal, "qline query")
	assert.ErrorContains(t, ErrDumbTerminal, "TERM=dumb")
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "a b", sanitizeTitle("a\tb"))
	assert.Equal(t, "ab", sanitizeTitle("a\x1bb"))
	assert.Len(t, []rune(sanitizeTitle(string(bytes.Repeat([]byte("é"), 300)))), 255)
}

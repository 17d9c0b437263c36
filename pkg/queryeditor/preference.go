package queryeditor

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Observable is an external boolean the editor follows for its lifetime,
// such as the quick-autocomplete preference.
type Observable interface {
	Current() bool
	// Subscribe registers fn for future changes. The returned function
	// removes the subscription; fn is not called after it returns.
	Subscribe(fn func(bool)) (unsubscribe func())
}

// Detector reports whether the terminal is a compact device, on which the
// editor does not grab focus at mount.
type Detector interface {
	Compact() bool
}

// PreferenceMsg carries a change of the quick-autocomplete preference into
// the update loop.
type PreferenceMsg struct {
	Quick bool
}

// subscription bridges Observable callbacks, which may fire on any
// goroutine, into tea messages. Only the newest pending value is kept.
type subscription struct {
	changes     chan bool
	done        chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

func subscribe(source Observable) *subscription {
	s := &subscription{
		changes: make(chan bool, 1),
		done:    make(chan struct{}),
	}
	s.unsubscribe = source.Subscribe(s.push)
	return s
}

func (s *subscription) push(flag bool) {
	for {
		select {
		case s.changes <- flag:
			return
		case <-s.done:
			return
		default:
			// drop the stale pending value
			select {
			case <-s.changes:
			default:
			}
		}
	}
}

// wait returns a command that blocks until the next change.
func (s *subscription) wait() tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case flag := <-s.changes:
			return PreferenceMsg{Quick: flag}
		case <-s.done:
			return nil
		}
	}
}

func (s *subscription) close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.unsubscribe()
		close(s.done)
	})
}

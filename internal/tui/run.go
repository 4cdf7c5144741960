package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/store"
)

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, st *store.Store, opts ...tea.ProgramOption) error {
	f := newFeed()
	cancel := st.Subscribe(f.publish)
	defer func() {
		cancel()
		f.close()
	}()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, st, f.ch), opts...)
	_, err := p.Run()
	return err
}

// feed hands store snapshots to the program through a one-slot channel.
// Closing it releases a pending waitForSnapshot.
type feed struct {
	mu     sync.Mutex
	ch     chan store.Snapshot
	closed bool
}

func newFeed() *feed {
	return &feed{ch: make(chan store.Snapshot, 1)}
}

// publish is a no-op once the feed is closed; an operation still in
// flight when the program exits may notify after that.
func (f *feed) publish(s store.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		publish(f.ch, s)
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

// publish delivers s without blocking, replacing an unread older snapshot.
func publish(ch chan store.Snapshot, s store.Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Loop is a headless event loop for a Console. Commands run on their own
// goroutines; their messages are applied one at a time on the goroutine that
// calls Run, which gives the same ordering guarantees as a Bubble Tea program.
type Loop struct {
	ctx     context.Context
	console *Console
	msgs    chan tea.Msg
}

// NewLoop builds a Loop for c. Commands still running when ctx is cancelled
// drop their results.
func NewLoop(ctx context.Context, c *Console) *Loop {
	return &Loop{ctx: ctx, console: c, msgs: make(chan tea.Msg, 16)}
}

// Dispatch runs cmd in the background and queues its message.
func (l *Loop) Dispatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if msg == nil {
			return
		}
		select {
		case l.msgs <- msg:
		case <-l.ctx.Done():
		}
	}()
}

// Run applies messages until done reports true or ctx is cancelled. done is
// checked before waiting and after every message.
func (l *Loop) Run(ctx context.Context, done func() bool) error {
	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ctx.Done():
			return l.ctx.Err()
		case msg := <-l.msgs:
			l.apply(msg)
		}
	}
	return nil
}

func (l *Loop) apply(msg tea.Msg) {
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, cmd := range batch {
			l.Dispatch(cmd)
		}
		return
	}
	l.Dispatch(l.console.Update(msg))
}

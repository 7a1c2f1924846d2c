// Package teatest drives bubbletea models synchronously in tests.
//
// Driver calls Update directly and drains the returned Cmds in place of a
// tea.Program. Cmds that block, such as subscriptions waiting for the next
// board notification, are given a short timeout and then skipped.
package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDrainDepth bounds how many chained Cmds one Send may run.
const MaxDrainDepth = 100

// DefaultCmdTimeout separates Cmds doing local work from Cmds that wait on
// a channel or timer.
const DefaultCmdTimeout = 50 * time.Millisecond

// Driver is a synchronous test harness for any tea.Model.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once a tea.QuitMsg comes out of a Cmd.
	Quitting bool

	timeout time.Duration
}

type Option func(*Driver)

// WithSize sends a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		updated, _ := d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
		d.Model = updated
	}
}

// WithCmdTimeout overrides DefaultCmdTimeout.
func WithCmdTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.timeout = timeout }
}

// New creates a Driver for model. Call DrainInit to run its Init Cmd.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model, timeout: DefaultCmdTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DrainInit runs the model's Init Cmd and everything it leads to.
func (d *Driver) DrainInit() {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
}

// Send dispatches msg through Update and drains the resulting Cmds.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	updated, cmd := d.Model.Update(msg)
	d.Model = updated
	d.drain(cmd, 0)
}

func (d *Driver) PressKey(r rune) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func (d *Driver) Press(t tea.KeyType) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: t})
}

func (d *Driver) PressUp()         { d.T.Helper(); d.Press(tea.KeyUp) }
func (d *Driver) PressDown()       { d.T.Helper(); d.Press(tea.KeyDown) }
func (d *Driver) PressLeft()       { d.T.Helper(); d.Press(tea.KeyLeft) }
func (d *Driver) PressRight()      { d.T.Helper(); d.Press(tea.KeyRight) }
func (d *Driver) PressShiftLeft()  { d.T.Helper(); d.Press(tea.KeyShiftLeft) }
func (d *Driver) PressShiftRight() { d.T.Helper(); d.Press(tea.KeyShiftRight) }
func (d *Driver) PressCtrlC()      { d.T.Helper(); d.Press(tea.KeyCtrlC) }

// View returns the model's rendered output.
func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest.Driver: drain depth limit (%d) reached", MaxDrainDepth)
		return
	}

	msg := d.run(cmd)
	if msg == nil {
		return
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			d.drain(sub, depth+1)
		}
		return
	}

	if _, ok := msg.(tea.QuitMsg); ok {
		d.Quitting = true
		updated, _ := d.Model.Update(msg)
		d.Model = updated
		return
	}

	updated, next := d.Model.Update(msg)
	d.Model = updated
	d.drain(next, depth+1)
}

// run executes cmd, giving up after the driver's timeout.
func (d *Driver) run(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() {
		ch <- cmd()
	}()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(d.timeout):
		return nil
	}
}

// Package ui is the two level menu shown on the panel LCD.
package ui

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/enderpanel/hardware/input"
	"github.com/temoto/enderpanel/log2"
)

type Waiter interface {
	Wait() (input.Wake, error)
}

type KeyReader interface {
	ReadRaw() (byte, error)
}

type UI struct {
	Machine *Machine
	Log     *log2.Log

	display Display
	gate    Waiter
	keys    KeyReader

	XXX_testHook func(State)
}

func NewUI(m *Machine, d Display, gate Waiter, keys KeyReader, log *log2.Log) *UI {
	return &UI{
		Machine: m,
		Log:     log,
		display: d,
		gate:    gate,
		keys:    keys,
	}
}

// Loop renders menu and reacts to keypad until gate reports shutdown (returns nil)
// or display, gate or bus fails (returns error).
func (self *UI) Loop(ctx context.Context) error {
	for {
		if err := self.Machine.Render(self.display); err != nil {
			return err
		}
		if self.XXX_testHook != nil {
			self.XXX_testHook(self.Machine.State())
		}

		wake, err := self.gate.Wait()
		if err != nil {
			return errors.Annotate(err, "ui loop")
		}
		if wake == input.WakeShutdown {
			self.Log.Debugf("ui loop shutdown")
			return nil
		}

		raw, err := self.keys.ReadRaw()
		if err != nil {
			return errors.Annotate(err, "ui loop")
		}
		buttons, ok := input.Decode(raw)
		if !ok {
			self.Log.Debugf("ui keypad raw=%#02x no key", raw)
			continue
		}
		self.Machine.Handle(ctx, buttons)
	}
}

// Package state owns panel configuration and hardware lifetime.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/enderpanel/hardware/i2c"
	"github.com/temoto/enderpanel/hardware/input"
	"github.com/temoto/enderpanel/hardware/lcd"
	"github.com/temoto/enderpanel/helpers"
	"github.com/temoto/enderpanel/log2"
)

type Gater interface {
	Wait() (input.Wake, error)
	Close() error
}

type GateOpener func(stop <-chan struct{}) (Gater, error)

// Panel is the set of opened devices. Create with OpenPanel, release with Shutdown.
type Panel struct {
	Alive  *alive.Alive
	Config *Config
	Bus    *i2c.Bus
	LCD    *lcd.LCD
	Keypad *input.Keypad
	Gate   Gater
	Log    *log2.Log

	shutdownOnce sync.Once
	shutdownErr  error
}

func OpenPanel(c *Config, log *log2.Log) (*Panel, error) {
	bus, err := i2c.Open(c.Hardware.I2CBus)
	if err != nil {
		return nil, err
	}
	log.Debugf("panel bus=%s", bus.String())
	kc := &c.Hardware.Keypad
	return newPanel(c, log, bus, func(stop <-chan struct{}) (Gater, error) {
		g, err := input.OpenGate(kc.PinChip, uint32(c.KeypadPin()), stop)
		if err != nil {
			return nil, err
		}
		return g, nil
	})
}

// newPanel takes ownership of bus, it is closed on error.
func newPanel(c *Config, log *log2.Log, bus *i2c.Bus, openGate GateOpener) (*Panel, error) {
	hwLog := log.Clone(log2.LInfo)
	if c.Hardware.LogDebug {
		hwLog.SetLevel(log2.LDebug)
	}
	self := &Panel{
		Alive:  alive.NewAlive(),
		Config: c,
		Bus:    bus,
		Log:    hwLog,
	}
	fail := func(err error) (*Panel, error) {
		self.Alive.Stop()
		errs := []error{err}
		if self.Gate != nil {
			errs = append(errs, self.Gate.Close())
		}
		errs = append(errs, bus.Close())
		return nil, helpers.FoldErrors(errs)
	}

	d, err := lcd.New(bus, c.LCDConfig())
	if err != nil {
		return fail(err)
	}
	if err = d.Init(); err != nil {
		return fail(err)
	}
	self.LCD = d

	self.Keypad = input.NewKeypad(bus, uint16(c.Hardware.Keypad.Address))
	if err = self.Keypad.Init(); err != nil {
		return fail(err)
	}

	if self.Gate, err = openGate(self.Alive.StopChan()); err != nil {
		self.Gate = nil
		return fail(err)
	}
	hwLog.Debugf("panel opened %s", c.String())
	return self, nil
}

// Splash shows configured lines, then clears display. Stop or ctx cancel cut it short.
func (self *Panel) Splash(ctx context.Context) error {
	ui := &self.Config.UI
	if ui.SplashMs < 0 {
		return nil
	}
	texts := []string{ui.Splash1, ui.Splash2}
	for row, text := range texts {
		line, ok := lcd.LineAt(row)
		if !ok || row >= self.LCD.Rows() {
			break
		}
		if err := self.LCD.WriteLine(text, line); err != nil {
			return errors.Annotate(err, "splash")
		}
	}
	tmr := time.NewTimer(self.Config.SplashDuration())
	defer tmr.Stop()
	select {
	case <-tmr.C:
	case <-self.Alive.StopChan():
	case <-ctx.Done():
	}
	return errors.Annotate(self.LCD.Clear(), "splash")
}

// Stop wakes pending gate Wait with WakeShutdown. Safe to call from signal handler.
func (self *Panel) Stop() {
	self.Alive.Stop()
}

// Shutdown blanks display and releases devices. Runs once, later calls return first result.
func (self *Panel) Shutdown() error {
	self.shutdownOnce.Do(func() {
		self.Alive.Stop()
		errs := make([]error, 0, 3)
		if self.LCD != nil {
			errs = append(errs, errors.Annotate(self.LCD.Reset(), "shutdown lcd"))
		}
		if self.Gate != nil {
			errs = append(errs, self.Gate.Close())
		}
		errs = append(errs, self.Bus.Close())
		self.shutdownErr = helpers.FoldErrors(errs)
		self.Log.Debugf("panel shutdown err=%v", self.shutdownErr)
	})
	return self.shutdownErr
}

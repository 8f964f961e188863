package input

import (
	"sync"
	"time"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
)

const gateConsumer = "enderpanel-keypad"

const (
	drainTimeout = time.Millisecond
	drainMax     = 64
)

type Wake int

const (
	WakeKeypad Wake = iota
	WakeShutdown
)

func (w Wake) String() string {
	switch w {
	case WakeKeypad:
		return "keypad"
	case WakeShutdown:
		return "shutdown"
	}
	return "wake(?)"
}

// Gate blocks until expander INT line falls, which means keypad state changed.
// Line must have external pull-up, INT is open drain.
type Gate struct {
	chip gpio.Chiper
	ev   gpio.Eventer
	stop <-chan struct{}
	once sync.Once
	err  error
}

func OpenGate(chipPath string, line uint32, stop <-chan struct{}) (*Gate, error) {
	chip, err := gpio.Open(chipPath, gateConsumer)
	if err != nil {
		return nil, errors.Annotatef(err, "gate open chip=%s", chipPath)
	}
	ev, err := chip.GetLineEvent(line, 0, gpio.GPIOEVENT_REQUEST_FALLING_EDGE, gateConsumer)
	if err != nil {
		_ = chip.Close()
		return nil, errors.Annotatef(err, "gate chip=%s line=%d", chipPath, line)
	}
	g := NewGate(ev, stop)
	g.chip = chip
	return g, nil
}

// NewGate takes ownership of ev. Closing stop unblocks Wait.
func NewGate(ev gpio.Eventer, stop <-chan struct{}) *Gate {
	g := &Gate{ev: ev, stop: stop}
	go func() {
		<-stop
		_ = g.Close()
	}()
	return g
}

// Wait returns WakeKeypad on falling edge or when line is already low (unread change),
// WakeShutdown after stop. No timeout.
// Edges queued before the call belong to changes already read or about to be read by
// the level check, they are discarded so one change wakes once.
func (self *Gate) Wait() (Wake, error) {
	if self.stopped() {
		return WakeShutdown, nil
	}
	if err := self.drain(); err != nil {
		if self.stopped() {
			return WakeShutdown, nil
		}
		return WakeShutdown, errors.Annotate(err, "gate drain")
	}
	if v, err := self.ev.Read(); err == nil && v == 0 {
		return WakeKeypad, nil
	}
	for {
		edge, err := self.ev.Wait(0)
		if self.stopped() {
			return WakeShutdown, nil
		}
		if err != nil {
			if gpio.IsTimeout(err) {
				continue
			}
			return WakeShutdown, errors.Annotate(err, "gate wait")
		}
		if edge.ID != gpio.GPIOEVENT_EVENT_FALLING_EDGE {
			continue
		}
		return WakeKeypad, nil
	}
}

// drain reads pending events until short wait times out.
func (self *Gate) drain() error {
	for i := 0; i < drainMax; i++ {
		_, err := self.ev.Wait(drainTimeout)
		if gpio.IsTimeout(err) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases line and chip, safe to call many times.
func (self *Gate) Close() error {
	self.once.Do(func() {
		err := self.ev.Close()
		if gpio.IsClosed(err) {
			err = nil
		}
		if self.chip != nil {
			if cerr := self.chip.Close(); cerr != nil && !gpio.IsClosed(cerr) && err == nil {
				err = cerr
			}
		}
		self.err = errors.Annotate(err, "gate close")
	})
	return self.err
}

func (self *Gate) stopped() bool {
	select {
	case <-self.stop:
		return true
	default:
		return false
	}
}

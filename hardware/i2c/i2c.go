// Package i2c is the byte oriented bus transport shared by LCD backpack and keypad expander.
// PCF8574 class devices have no registers: one write sets all 8 pins, one read returns them.
package i2c

import (
	"fmt"
	"io"
	"sync"

	"github.com/juju/errors"
	periph_i2c "periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

// Byter is the subset used by device drivers.
type Byter interface {
	WriteByteAt(addr uint16, b byte) error
	ReadByteAt(addr uint16) (byte, error)
}

type Bus struct {
	lk     sync.Mutex
	bus    periph_i2c.Bus
	closer io.Closer
}

var _ Byter = &Bus{}

// Open initializes periph host drivers and opens bus by name.
// Empty name selects first available bus, "1" is /dev/i2c-1 on Raspberry Pi.
func Open(name string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph host.Init")
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Annotatef(err, "i2c open bus=%q", name)
	}
	b := NewBus(bc)
	b.closer = bc
	return b, nil
}

// NewBus wraps already opened periph bus. Close() is no-op for such Bus.
func NewBus(b periph_i2c.Bus) *Bus {
	return &Bus{bus: b}
}

func (self *Bus) String() string {
	return fmt.Sprintf("i2c(%s)", self.bus.String())
}

func (self *Bus) WriteByteAt(addr uint16, b byte) error {
	buf := [1]byte{b}
	self.lk.Lock()
	err := self.bus.Tx(addr, buf[:], nil)
	self.lk.Unlock()
	return errors.Annotatef(err, "i2c write addr=%#02x", addr)
}

func (self *Bus) ReadByteAt(addr uint16) (byte, error) {
	var buf [1]byte
	self.lk.Lock()
	err := self.bus.Tx(addr, nil, buf[:])
	self.lk.Unlock()
	if err != nil {
		return 0, errors.Annotatef(err, "i2c read addr=%#02x", addr)
	}
	return buf[0], nil
}

func (self *Bus) Close() error {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.closer == nil {
		return nil
	}
	err := self.closer.Close()
	self.closer = nil
	return errors.Annotate(err, "i2c close")
}

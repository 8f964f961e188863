// Package input reads the 4-button keypad on PCF8574 expander.
// Buttons pull pins to ground: 0 bit means pressed.
package input

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

type Key byte

const (
	KeyLeft  Key = 0x01
	KeyDown  Key = 0x02
	KeyUp    Key = 0x04
	KeyRight Key = 0x08
)

// RawNone is expander state with all pins pulled up, no button asserted.
const RawNone byte = 0xff

const DefaultKeypadAddr uint16 = 0x27

func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	case KeyRight:
		return "right"
	}
	return fmt.Sprintf("key(%#02x)", byte(k))
}

func IsPressed(raw byte, mask Key) bool { return raw&byte(mask) == 0 }

// Buttons is decoded keypad state, several may be pressed at once.
type Buttons struct {
	Raw   byte
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

// Decode returns false for RawNone: woken but nothing pressed, likely already released.
func Decode(raw byte) (Buttons, bool) {
	if raw == RawNone {
		return Buttons{Raw: raw}, false
	}
	return Buttons{
		Raw:   raw,
		Up:    IsPressed(raw, KeyUp),
		Down:  IsPressed(raw, KeyDown),
		Left:  IsPressed(raw, KeyLeft),
		Right: IsPressed(raw, KeyRight),
	}, true
}

func (b Buttons) Any() bool { return b.Up || b.Down || b.Left || b.Right }

func (b Buttons) String() string {
	ss := make([]string, 0, 4)
	if b.Up {
		ss = append(ss, "up")
	}
	if b.Down {
		ss = append(ss, "down")
	}
	if b.Right {
		ss = append(ss, "right")
	}
	if b.Left {
		ss = append(ss, "left")
	}
	return fmt.Sprintf("raw=%#02x pressed=[%s]", b.Raw, strings.Join(ss, ","))
}

type ByteReadWriter interface {
	ReadByteAt(addr uint16) (byte, error)
	WriteByteAt(addr uint16, b byte) error
}

type Keypad struct {
	bus  ByteReadWriter
	addr uint16
}

func NewKeypad(bus ByteReadWriter, addr uint16) *Keypad {
	if addr == 0 {
		addr = DefaultKeypadAddr
	}
	return &Keypad{bus: bus, addr: addr}
}

// Init sets all expander pins high, quasi-bidirectional pins then read as inputs.
func (self *Keypad) Init() error {
	return errors.Annotate(self.bus.WriteByteAt(self.addr, RawNone), "keypad init")
}

func (self *Keypad) ReadRaw() (byte, error) {
	b, err := self.bus.ReadByteAt(self.addr)
	if err != nil {
		return RawNone, errors.Annotate(err, "keypad read")
	}
	return b, nil
}

// Package lcd drives HD44780 character display through PCF8574 I2C backpack in 4-bit mode.
//
// Backpack pin map: P0=RS P1=RW P2=E P3=backlight P4..P7=D4..D7.
package lcd

import (
	"time"

	"github.com/juju/errors"
	"github.com/paulrosania/go-charset/charset"
	_ "github.com/paulrosania/go-charset/data"
)

type Command byte

const (
	CommandClear     Command = 0x01
	CommandEntryMode Command = 0x06 // cursor moves right, no shift
	CommandControlOn Command = 0x0c // display on, cursor off, blink off
	CommandFunction  Command = 0x28 // 4-bit bus, 2 lines, 5x8 font
	CommandInit1     Command = 0x33
	CommandInit2     Command = 0x32
)

// Line is DDRAM address command of line start.
type Line byte

const (
	Line1 Line = 0x80
	Line2 Line = 0xc0
	Line3 Line = 0x94
	Line4 Line = 0xd4
)

var lines = [...]Line{Line1, Line2, Line3, Line4}

// LineAt returns address of 0-based row.
func LineAt(row int) (Line, bool) {
	if row < 0 || row >= len(lines) {
		return 0, false
	}
	return lines[row], true
}

func (l Line) row() int {
	for i, x := range lines {
		if x == l {
			return i
		}
	}
	return -1
}

const (
	modeCommand byte = 0x00
	modeData    byte = 0x01
	bitEnable   byte = 0x04
	bitLight    byte = 0x08
)

const (
	DefaultAddr  uint16 = 0x26
	DefaultWidth        = 16
	DefaultRows         = 2
	MaxWidth            = 40

	// lower bounds from controller datasheet, rounded up
	MinPulse   = 500 * time.Microsecond
	MinDelay   = 500 * time.Microsecond
	clearDelay = 2 * time.Millisecond
)

type ByteWriter interface {
	WriteByteAt(addr uint16, b byte) error
}

type Config struct {
	Addr      uint16
	Width     int
	Rows      int
	Backlight bool
	Codepage  string
	Pulse     time.Duration
	Delay     time.Duration
}

type LCD struct {
	bus       ByteWriter
	addr      uint16
	width     int
	rows      int
	backlight byte
	pulse     time.Duration
	delay     time.Duration
	tr        charset.Translator
	sleep     func(time.Duration)
}

func New(bus ByteWriter, c Config) (*LCD, error) {
	if c.Addr == 0 {
		c.Addr = DefaultAddr
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Rows == 0 {
		c.Rows = DefaultRows
	}
	if c.Width < 1 || c.Width > MaxWidth {
		return nil, errors.NotValidf("lcd width=%d", c.Width)
	}
	switch c.Rows {
	case 1, 2, 4:
	default:
		return nil, errors.NotValidf("lcd rows=%d (supported: 1, 2, 4)", c.Rows)
	}
	if c.Pulse < MinPulse {
		c.Pulse = MinPulse
	}
	if c.Delay < MinDelay {
		c.Delay = MinDelay
	}

	self := &LCD{
		bus:   bus,
		addr:  c.Addr,
		width: c.Width,
		rows:  c.Rows,
		pulse: c.Pulse,
		delay: c.Delay,
		sleep: time.Sleep,
	}
	if c.Backlight {
		self.backlight = bitLight
	}
	if c.Codepage != "" {
		tr, err := charset.TranslatorTo(c.Codepage)
		if err != nil {
			return nil, errors.Annotatef(err, "lcd codepage=%s", c.Codepage)
		}
		self.tr = tr
	}
	return self, nil
}

func (self *LCD) Width() int { return self.width }
func (self *LCD) Rows() int  { return self.rows }

// Init sends power-on sequence. Must be called once before anything else.
func (self *LCD) Init() error {
	seq := []Command{
		CommandInit1,
		CommandInit2,
		CommandEntryMode,
		CommandControlOn,
		CommandFunction,
	}
	for _, c := range seq {
		if err := self.Command(c); err != nil {
			return errors.Annotate(err, "lcd init")
		}
	}
	return errors.Annotate(self.Reset(), "lcd init")
}

func (self *LCD) Command(c Command) error {
	return self.send(byte(c), modeCommand)
}

func (self *LCD) Data(b byte) error {
	return self.send(b, modeData)
}

// WriteLine overwrites whole line: text is translated, then padded or truncated to width.
func (self *LCD) WriteLine(text string, line Line) error {
	row := line.row()
	if row < 0 || row >= self.rows {
		return errors.NotValidf("lcd line=%#02x rows=%d", byte(line), self.rows)
	}
	b := FitWidth(self.Translate(text), self.width)
	if err := self.Command(Command(line)); err != nil {
		return errors.Annotatef(err, "lcd line=%d", row+1)
	}
	for _, c := range b {
		if err := self.Data(c); err != nil {
			return errors.Annotatef(err, "lcd line=%d", row+1)
		}
	}
	return nil
}

// Clear blanks every visible line with WriteLine.
// Native clear command is slow and leaves cursor state to the controller.
func (self *LCD) Clear() error {
	for row := 0; row < self.rows; row++ {
		line, _ := LineAt(row)
		if err := self.WriteLine("", line); err != nil {
			return err
		}
	}
	return nil
}

// Reset sends native clear command, used at init and shutdown.
func (self *LCD) Reset() error {
	if err := self.Command(CommandClear); err != nil {
		return err
	}
	self.sleep(clearDelay)
	return nil
}

// Translate converts UTF-8 text into controller character codes.
func (self *LCD) Translate(s string) []byte {
	if self.tr != nil {
		_, tb, err := self.tr.Translate([]byte(s), true)
		if err == nil {
			// translator reuses single internal buffer, make a copy
			return append([]byte(nil), tb...)
		}
	}
	return ASCII(s)
}

func (self *LCD) send(b, mode byte) error {
	hi := mode | (b & 0xf0) | self.backlight
	lo := mode | ((b << 4) & 0xf0) | self.backlight
	if err := self.nibble(hi); err != nil {
		return err
	}
	return self.nibble(lo)
}

func (self *LCD) nibble(bits byte) error {
	if err := self.bus.WriteByteAt(self.addr, bits); err != nil {
		return err
	}
	self.sleep(self.delay)
	if err := self.bus.WriteByteAt(self.addr, bits|bitEnable); err != nil {
		return err
	}
	self.sleep(self.pulse)
	if err := self.bus.WriteByteAt(self.addr, bits&^bitEnable); err != nil {
		return err
	}
	self.sleep(self.delay)
	return nil
}

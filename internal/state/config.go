package state

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/enderpanel/hardware/input"
	"github.com/temoto/enderpanel/hardware/lcd"
	"github.com/temoto/enderpanel/helpers"
	"github.com/temoto/enderpanel/log2"
)

const (
	DefaultMenuPath = "/etc/enderpanel/menu.yaml"
	DefaultShell    = "/bin/sh"
	DefaultPinChip  = "/dev/gpiochip0"
	DefaultPin      = 17
	DefaultSplash1  = "Ender 3 Panel"
	DefaultSplash2  = "v1.0 - 2020 FF75"
	DefaultSplashMs = 2000
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Menu     string `hcl:"menu"`
	Shell    string `hcl:"shell"`
	LogDebug bool   `hcl:"log_debug"`

	Hardware struct {
		I2CBus   string `hcl:"i2c_bus"`
		LogDebug bool   `hcl:"log_debug"`
		LCD      struct {
			Address   int    `hcl:"address"`
			Width     int    `hcl:"width"`
			Rows      int    `hcl:"rows"`
			Backlight *bool  `hcl:"backlight"`
			Codepage  string `hcl:"codepage"`
			PulseUs   int    `hcl:"pulse_us"`
			DelayUs   int    `hcl:"delay_us"`
		} `hcl:"lcd"`
		Keypad struct {
			Address int    `hcl:"address"`
			PinChip string `hcl:"pin_chip"`
			// nil = DefaultPin, line 0 is valid
			Pin     *int   `hcl:"pin"`
		} `hcl:"keypad"`
	} `hcl:"hardware"`

	UI struct {
		Splash1 string `hcl:"splash1"`
		Splash2 string `hcl:"splash2"`
		// <0 disables splash
		SplashMs int `hcl:"splash_ms"`
	} `hcl:"ui"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// NewConfig returns config with defaults, used when no config file is given.
func NewConfig() *Config {
	c := &Config{includeSeen: make(map[string]struct{})}
	c.setDefaults()
	return c
}

func (c *Config) LCDConfig() lcd.Config {
	x := &c.Hardware.LCD
	return lcd.Config{
		Addr:      uint16(x.Address),
		Width:     x.Width,
		Rows:      x.Rows,
		Backlight: x.Backlight == nil || *x.Backlight,
		Codepage:  x.Codepage,
		Pulse:     time.Duration(x.PulseUs) * time.Microsecond,
		Delay:     time.Duration(x.DelayUs) * time.Microsecond,
	}
}

// KeypadPin is INT line offset on PinChip, valid after defaults are applied.
func (c *Config) KeypadPin() int {
	if c.Hardware.Keypad.Pin == nil {
		return DefaultPin
	}
	return *c.Hardware.Keypad.Pin
}

func (c *Config) SplashDuration() time.Duration {
	return time.Duration(c.UI.SplashMs) * time.Millisecond
}

func (c *Config) setDefaults() {
	if c.Menu == "" {
		c.Menu = DefaultMenuPath
	}
	if c.Shell == "" {
		c.Shell = DefaultShell
	}
	if c.Hardware.LCD.Address == 0 {
		c.Hardware.LCD.Address = int(lcd.DefaultAddr)
	}
	if c.Hardware.LCD.Width == 0 {
		c.Hardware.LCD.Width = lcd.DefaultWidth
	}
	if c.Hardware.LCD.Rows == 0 {
		c.Hardware.LCD.Rows = lcd.DefaultRows
	}
	if c.Hardware.Keypad.Address == 0 {
		c.Hardware.Keypad.Address = int(input.DefaultKeypadAddr)
	}
	if c.Hardware.Keypad.PinChip == "" {
		c.Hardware.Keypad.PinChip = DefaultPinChip
	}
	if c.Hardware.Keypad.Pin == nil {
		pin := DefaultPin
		c.Hardware.Keypad.Pin = &pin
	}
	if c.UI.Splash1 == "" && c.UI.Splash2 == "" {
		c.UI.Splash1, c.UI.Splash2 = DefaultSplash1, DefaultSplash2
	}
	if c.UI.SplashMs == 0 {
		c.UI.SplashMs = DefaultSplashMs
	}
}

func (c *Config) validate() error {
	errs := make([]error, 0)
	checkAddr := func(name string, addr int) {
		// 7-bit address space without reserved ranges
		if addr < 0x03 || addr > 0x77 {
			errs = append(errs, errors.NotValidf("config: hardware.%s.address=%#02x", name, addr))
		}
	}
	checkAddr("lcd", c.Hardware.LCD.Address)
	checkAddr("keypad", c.Hardware.Keypad.Address)
	if c.Hardware.LCD.Address == c.Hardware.Keypad.Address {
		errs = append(errs, errors.NotValidf("config: lcd and keypad share address=%#02x", c.Hardware.LCD.Address))
	}
	if c.KeypadPin() < 0 {
		errs = append(errs, errors.NotValidf("config: hardware.keypad.pin=%d", c.KeypadPin()))
	}
	if _, err := lcd.New(nil, c.LCDConfig()); err != nil {
		errs = append(errs, errors.Annotate(err, "config: hardware.lcd"))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) String() string {
	return fmt.Sprintf("menu=%s shell=%s i2c_bus=%q lcd=%#02x keypad=%#02x gpio=%s:%d",
		c.Menu, c.Shell, c.Hardware.I2CBus, c.Hardware.LCD.Address,
		c.Hardware.Keypad.Address, c.Hardware.Keypad.PinChip, c.KeypadPin())
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			*errs = append(*errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if err = hcl.Unmarshal(bs, c); err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		if _, ok := c.includeSeen[fs.Normalize(include.Name)]; ok {
			*errs = append(*errs, errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name))
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig reads sources in order, later values overwrite earlier ones.
// Defaults fill what is left empty.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error ReadConfig without names")
	}
	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, err
		}
		names[0] = name
	}
	c := &Config{includeSeen: make(map[string]struct{})}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) != 0 {
		return nil, helpers.FoldErrors(errs)
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func ReadConfigFile(log *log2.Log, path string) (*Config, error) {
	return ReadConfig(log, NewOsFullReader(), path)
}

func MustReadConfigFile(log *log2.Log, path string) *Config {
	c, err := ReadConfigFile(log, path)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

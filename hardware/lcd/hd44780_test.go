package lcd

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/enderpanel/hardware/i2c"
	"periph.io/x/periph/conn/i2c/i2ctest"
)

const testAddr uint16 = 0x26

type sent struct {
	mode byte
	b    byte
}

func newTestLCD(t testing.TB, c Config) (*LCD, *i2ctest.Record) {
	rec := &i2ctest.Record{}
	c.Addr = testAddr
	d, err := New(i2c.NewBus(rec), c)
	require.NoError(t, err)
	d.sleep = func(time.Duration) {}
	return d, rec
}

// decode reassembles logical bytes from bus writes, checking enable pulse shape.
func decode(t testing.TB, ops []i2ctest.IO) []sent {
	t.Helper()
	require.Equal(t, 0, len(ops)%6, "writes must come in groups of 6")
	result := make([]sent, 0, len(ops)/6)
	for i := 0; i < len(ops); i += 6 {
		var v [6]byte
		for j := range v {
			op := ops[i+j]
			require.Equal(t, testAddr, op.Addr)
			require.Len(t, op.W, 1)
			v[j] = op.W[0]
		}
		for _, n := range [][3]byte{{v[0], v[1], v[2]}, {v[3], v[4], v[5]}} {
			assert.Equal(t, byte(0), n[0]&bitEnable, "nibble must be set with E low")
			assert.Equal(t, n[0]|bitEnable, n[1], "E high")
			assert.Equal(t, n[0], n[2], "E low")
		}
		assert.Equal(t, v[0]&0x0f, v[3]&0x0f, "mode and backlight same for both nibbles")
		result = append(result, sent{mode: v[0] & modeData, b: v[0]&0xf0 | v[3]>>4})
	}
	return result
}

func TestInit(t *testing.T) {
	t.Parallel()

	d, rec := newTestLCD(t, Config{Backlight: true})
	var slept []time.Duration
	d.sleep = func(x time.Duration) { slept = append(slept, x) }
	require.NoError(t, d.Init())

	got := decode(t, rec.Ops)
	expect := []sent{{0, 0x33}, {0, 0x32}, {0, 0x06}, {0, 0x0c}, {0, 0x28}, {0, 0x01}}
	assert.Equal(t, expect, got)
	for _, op := range rec.Ops {
		assert.Equal(t, bitLight, op.W[0]&bitLight, "backlight bit")
	}
	assert.Equal(t, clearDelay, slept[len(slept)-1], "settle after clear")
	for _, x := range slept[:len(slept)-1] {
		assert.True(t, x >= MinDelay, "delay %v", x)
	}
}

func TestBacklightOff(t *testing.T) {
	t.Parallel()

	d, rec := newTestLCD(t, Config{Backlight: false})
	require.NoError(t, d.Data('A'))
	for _, op := range rec.Ops {
		assert.Equal(t, byte(0), op.W[0]&bitLight)
	}
	assert.Equal(t, []sent{{1, 'A'}}, decode(t, rec.Ops))
}

func TestWriteLineWidth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input  string
		expect string
	}{
		{"", "                "},
		{"exactly-16-chars", "exactly-16-chars"},
		{"this line is thirty chars long", "this line is thi"},
		{">Print", ">Print          "},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("len=%d", len(c.input)), func(t *testing.T) {
			d, rec := newTestLCD(t, Config{})
			require.NoError(t, d.WriteLine(c.input, Line2))
			got := decode(t, rec.Ops)
			require.Len(t, got, 1+DefaultWidth)
			assert.Equal(t, sent{0, byte(Line2)}, got[0])
			var b strings.Builder
			for _, s := range got[1:] {
				assert.Equal(t, modeData, s.mode)
				b.WriteByte(s.b)
			}
			assert.Equal(t, c.expect, b.String())
		})
	}
}

func TestWriteLineRows(t *testing.T) {
	t.Parallel()

	d, _ := newTestLCD(t, Config{})
	require.Error(t, d.WriteLine("x", Line3))
	require.Error(t, d.WriteLine("x", Line(0x81)))

	d4, rec := newTestLCD(t, Config{Rows: 4, Width: 20})
	require.NoError(t, d4.WriteLine("four", Line4))
	got := decode(t, rec.Ops)
	assert.Len(t, got, 21)
	assert.Equal(t, byte(Line4), got[0].b)
}

func TestClear(t *testing.T) {
	t.Parallel()

	d, rec := newTestLCD(t, Config{})
	require.NoError(t, d.Clear())
	got := decode(t, rec.Ops)
	require.Len(t, got, 2*(1+DefaultWidth))
	assert.Equal(t, byte(Line1), got[0].b)
	assert.Equal(t, byte(Line2), got[1+DefaultWidth].b)
	for i, s := range got {
		if i == 0 || i == 1+DefaultWidth {
			continue
		}
		assert.Equal(t, sent{modeData, ' '}, s)
	}
	for _, s := range got {
		assert.NotEqual(t, sent{modeCommand, byte(CommandClear)}, s, "Clear must not use native clear")
	}
}

func TestBusError(t *testing.T) {
	t.Parallel()

	pb := &i2ctest.Playback{DontPanic: true}
	d, err := New(i2c.NewBus(pb), Config{})
	require.NoError(t, err)
	d.sleep = func(time.Duration) {}
	err = d.WriteLine("hello", Line1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lcd line=1")
	require.Error(t, d.Init())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Rows: 3})
	assert.Error(t, err)
	_, err = New(nil, Config{Width: MaxWidth + 1})
	assert.Error(t, err)
	_, err = New(nil, Config{Codepage: "no-such-codepage"})
	assert.Error(t, err)

	d, err := New(nil, Config{Pulse: time.Microsecond})
	require.NoError(t, err)
	assert.Equal(t, MinPulse, d.pulse)
	assert.Equal(t, MinDelay, d.delay)
	assert.Equal(t, DefaultAddr, d.addr)
	assert.Equal(t, DefaultWidth, d.Width())
	assert.Equal(t, DefaultRows, d.Rows())
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	d, _ := newTestLCD(t, Config{})
	assert.Equal(t, []byte("Temp 200?C"), d.Translate("Temp 200°C"))

	cp, _ := newTestLCD(t, Config{Codepage: "windows-1251"})
	assert.Equal(t, []byte{0xcf, 0xe5, 0xf7, 0xe0, 0xf2, 0xfc}, cp.Translate("Печать"))
}

func TestFitWidth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte("    "), FitWidth(nil, 4))
	assert.Equal(t, []byte("ab  "), FitWidth([]byte("ab"), 4))
	assert.Equal(t, []byte("abcd"), FitWidth([]byte("abcdef"), 4))
	assert.Equal(t, []byte{}, FitWidth([]byte("ab"), -1))
	assert.Len(t, FitWidth(nil, MaxWidth+1), MaxWidth+1)
}

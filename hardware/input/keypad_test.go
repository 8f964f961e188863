package input

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/enderpanel/hardware/i2c"
	"periph.io/x/periph/conn/i2c/i2ctest"
)

func TestIsPressed(t *testing.T) {
	t.Parallel()

	keys := []Key{KeyLeft, KeyDown, KeyUp, KeyRight}
	// every combination of 4 key bits, upper pins both high and low
	for low := 0; low < 16; low++ {
		for _, upper := range []byte{0xf0, 0x00, 0xa0} {
			raw := upper | byte(low)
			for _, k := range keys {
				expect := raw&byte(k) == 0
				assert.Equal(t, expect, IsPressed(raw, k), "raw=%08b key=%s", raw, k)
			}
		}
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    byte
		ok     bool
		expect Buttons
	}{
		{0xff, false, Buttons{Raw: 0xff}},
		{0xfb, true, Buttons{Raw: 0xfb, Up: true}},
		{0xfd, true, Buttons{Raw: 0xfd, Down: true}},
		{0xfe, true, Buttons{Raw: 0xfe, Left: true}},
		{0xf7, true, Buttons{Raw: 0xf7, Right: true}},
		{0xf3, true, Buttons{Raw: 0xf3, Up: true, Right: true}},
		{0xf0, true, Buttons{Raw: 0xf0, Up: true, Down: true, Left: true, Right: true}},
		{0x7f, true, Buttons{Raw: 0x7f}},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%02x", c.raw), func(t *testing.T) {
			b, ok := Decode(c.raw)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.expect, b)
		})
	}
	b, _ := Decode(0xf3)
	assert.Equal(t, "raw=0xf3 pressed=[up,right]", b.String())
	assert.True(t, b.Any())
}

func TestKeypad(t *testing.T) {
	t.Parallel()

	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x27, W: []byte{0xff}},
			{Addr: 0x27, R: []byte{0xfb}},
		},
		DontPanic: true,
	}
	kp := NewKeypad(i2c.NewBus(pb), 0)
	require.NoError(t, kp.Init())
	raw, err := kp.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, byte(0xfb), raw)

	_, err = kp.ReadRaw()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keypad read")
	assert.NoError(t, pb.Close())
}

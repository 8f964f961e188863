package helpers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	e1 := fmt.Errorf("lcd: nack")
	e2 := fmt.Errorf("keypad: nack")
	cases := []struct {
		name   string
		input  []error
		expect string
	}{
		{"empty", nil, ""},
		{"all-nil", []error{nil, nil}, ""},
		{"single", []error{nil, e1}, "lcd: nack"},
		{"many", []error{e1, nil, e2}, "lcd: nack\nkeypad: nack"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			err := FoldErrors(c.input)
			if c.expect == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, c.expect)
		})
	}
	assert.Equal(t, e1, FoldErrors([]error{e1}))
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPressedLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "U:0 L:0 D:0 R:0", pressedLine(0xff))
	assert.Equal(t, "U:1 L:0 D:0 R:1", pressedLine(0xf3))
	assert.Equal(t, "U:1 L:1 D:1 R:1", pressedLine(0xf0))
}

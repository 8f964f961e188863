package ui_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/temoto/enderpanel/hardware/input"
	"github.com/temoto/enderpanel/internal/ui"
	"github.com/temoto/enderpanel/log2"
)

type mockExecutor struct{ mock.Mock }

func (m *mockExecutor) Execute(ctx context.Context, command string) (int, error) {
	returns := m.Called(command)
	return returns.Int(0), returns.Error(1)
}

// A:[{n1,c1},{n2,c2}] B:[{n3,c3}]
func testTree() ui.Tree {
	return ui.Tree{
		{Name: "A", Options: []ui.Option{{Name: "n1", Cmd: "c1"}, {Name: "n2", Cmd: "c2"}}},
		{Name: "B", Options: []ui.Option{{Name: "n3", Cmd: "c3"}}},
	}
}

func newTestMachine(t testing.TB, tree ui.Tree) (*ui.Machine, *mockExecutor) {
	exec := new(mockExecutor)
	m, err := ui.NewMachine(tree, exec, log2.NewTest(t, log2.LDebug))
	require.NoError(t, err)
	return m, exec
}

func key(k input.Key) input.Buttons {
	b, _ := input.Decode(input.RawNone &^ byte(k))
	return b
}

var (
	keyUp    = key(input.KeyUp)
	keyDown  = key(input.KeyDown)
	keyLeft  = key(input.KeyLeft)
	keyRight = key(input.KeyRight)
)

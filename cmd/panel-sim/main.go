// Menu simulator: keypad from prompt, LCD printed to terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/integrii/flaggy"
	"github.com/juju/errors"
	"github.com/temoto/enderpanel/hardware/lcd"
	"github.com/temoto/enderpanel/helpers/cli"
	"github.com/temoto/enderpanel/internal/command"
	"github.com/temoto/enderpanel/internal/ui"
	"github.com/temoto/enderpanel/log2"
)

type dryRun struct{ log *log2.Log }

func (d dryRun) Execute(ctx context.Context, cmd string) (int, error) {
	d.log.Infof("dry-run cmd=%q", cmd)
	return 0, nil
}

func main() {
	var (
		menuPath string
		execute  bool
		debug    bool
		width    = lcd.DefaultWidth
		rows     = lcd.DefaultRows
	)
	flaggy.SetName("panel-sim")
	flaggy.SetDescription("Menu simulator. Keys: up down left right (u d l r), chord u+r, raw 0xf7")
	flaggy.Bool(&execute, "x", "execute", "really run option commands, default only log them")
	flaggy.Bool(&debug, "d", "debug", "debug logging")
	flaggy.Int(&width, "w", "width", "display width")
	flaggy.Int(&rows, "r", "rows", "display rows")
	flaggy.AddPositionalValue(&menuPath, "menu", 1, true, "menu file (YAML)")
	flaggy.Parse()

	log := log2.NewStderr(log2.LInfo)
	log.SetFlags(log2.LInteractiveFlags)
	if debug {
		log.SetLevel(log2.LDebug)
	}

	if err := checkSize(width, rows); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	tree, err := ui.ReadMenuFile(menuPath)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	var executor ui.Executor = dryRun{log}
	runner := command.NewRunner(log, "")
	if execute {
		executor = runner
	}
	machine, err := ui.NewMachine(tree, executor, log)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	s := &sim{machine: machine, display: lcd.NewMockDisplay(width, rows), out: os.Stdout}
	if err := s.show(); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	ctx := context.Background()
	err = cli.MainLoop(fmt.Sprintf("panel-sim %s> ", menuPath),
		func(line string) bool { return s.exec(ctx, line) },
		complete,
		func(os.Signal) {
			runner.Interrupt()
			os.Exit(1)
		})
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

// Hardware probe: waits for keypad interrupts and shows raw expander byte on LCD.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/integrii/flaggy"
	"github.com/juju/errors"
	"github.com/temoto/enderpanel/hardware/input"
	"github.com/temoto/enderpanel/hardware/lcd"
	"github.com/temoto/enderpanel/internal/state"
	"github.com/temoto/enderpanel/log2"
	"golang.org/x/sys/unix"
)

func main() {
	var configPath string
	flaggy.SetName("panel-test")
	flaggy.SetDescription("Show keypad raw byte on LCD for every INT falling edge")
	flaggy.String(&configPath, "c", "config", "panel config (HCL)")
	flaggy.Parse()

	log := log2.NewStderr(log2.LDebug)
	log.SetFlags(log2.LInteractiveFlags)
	config := state.NewConfig()
	if configPath != "" {
		config = state.MustReadConfigFile(log, configPath)
	}
	config.UI.SplashMs = -1

	panel, err := state.OpenPanel(config, log)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	go func() {
		<-sigCh
		panel.Stop()
	}()

	err = probe(panel, log)
	if serr := panel.Shutdown(); serr != nil {
		log.Error(errors.ErrorStack(serr))
	}
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

func probe(panel *state.Panel, log *log2.Log) error {
	if err := panel.LCD.WriteLine("Press a key", lcd.Line1); err != nil {
		return err
	}
	for {
		wake, err := panel.Gate.Wait()
		if err != nil {
			return err
		}
		if wake == input.WakeShutdown {
			return nil
		}
		raw, err := panel.Keypad.ReadRaw()
		if err != nil {
			return err
		}
		b, _ := input.Decode(raw)
		log.Infof("keypad %s", b.String())
		if err := panel.LCD.WriteLine(fmt.Sprintf("Raw: %d", raw), lcd.Line1); err != nil {
			return err
		}
		if panel.LCD.Rows() < 2 {
			continue
		}
		if err := panel.LCD.WriteLine(pressedLine(raw), lcd.Line2); err != nil {
			return err
		}
	}
}

func pressedLine(raw byte) string {
	bit := func(k input.Key) int {
		if input.IsPressed(raw, k) {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("U:%d L:%d D:%d R:%d",
		bit(input.KeyUp), bit(input.KeyLeft), bit(input.KeyDown), bit(input.KeyRight))
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/coreos/go-systemd/daemon"
	"github.com/integrii/flaggy"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/enderpanel/internal/command"
	"github.com/temoto/enderpanel/internal/state"
	"github.com/temoto/enderpanel/internal/ui"
	"github.com/temoto/enderpanel/log2"
	"golang.org/x/sys/unix"
)

var BuildVersion string = "unknown" // set by ldflags -X

func main() {
	var (
		configPath string
		menuPath   string
		debug      bool
	)
	flaggy.SetName("enderpanel")
	flaggy.SetDescription("Printer front panel: menu on I2C LCD, 4-button keypad, shell commands")
	flaggy.String(&configPath, "c", "config", "panel config (HCL), built-in defaults when empty")
	flaggy.Bool(&debug, "d", "debug", "debug logging")
	flaggy.AddPositionalValue(&menuPath, "menu", 1, false, "menu file (YAML), overrides config")
	flaggy.SetVersion(BuildVersion)
	flaggy.Parse()

	log := log2.NewStderr(log2.LInfo)
	if sdnotify("STATUS=starting") {
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	}
	if debug {
		log.SetLevel(log2.LDebug)
	}
	log.Infof("enderpanel version=%s", BuildVersion)
	var errorCount uint32
	log.SetErrorFunc(func(err error) {
		sdnotify(errorStatus(atomic.AddUint32(&errorCount, 1), err))
	})

	os.Exit(run(log, configPath, menuPath))
}

// run returns process exit code. Hardware is released on every path after open.
func run(log *log2.Log, configPath, menuPath string) int {
	config := state.NewConfig()
	if configPath != "" {
		c, err := state.ReadConfigFile(log, configPath)
		if err != nil {
			log.Errorf("config: %s", errors.ErrorStack(err))
			return 1
		}
		config = c
	}
	if config.LogDebug {
		log.SetLevel(log2.LDebug)
	}
	if menuPath == "" {
		menuPath = config.Menu
	}
	log.Debugf("config %s", config.String())

	tree, err := ui.ReadMenuFile(menuPath)
	if err != nil {
		log.Errorf("menu: %s", errors.ErrorStack(err))
		return 1
	}
	for _, name := range tree.Duplicates() {
		log.Errorf("menu file=%s duplicate item=%q, all copies are shown", menuPath, name)
	}
	runner := command.NewRunner(log, config.Shell)
	machine, err := ui.NewMachine(tree, runner, log)
	if err != nil {
		log.Errorf("menu: %s", errors.ErrorStack(err))
		return 1
	}

	panel, err := state.OpenPanel(config, log)
	if err != nil {
		log.Errorf("hardware: %s", errors.ErrorStack(err))
		return 1
	}
	defer func() {
		sdnotify(daemon.SdNotifyStopping)
		if err := panel.Shutdown(); err != nil {
			log.Errorf("shutdown: %s", errors.ErrorStack(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		log.Infof("signal=%s stopping", sig.String())
		panel.Stop()
		runner.Interrupt()
		cancel()
	}()

	if err := panel.Splash(ctx); err != nil {
		log.Errorf("hardware: %s", errors.ErrorStack(err))
		return 1
	}
	u := ui.NewUI(machine, panel.LCD, panel.Gate, panel.Keypad, log)
	sdnotify(daemon.SdNotifyReady)
	if err := u.Loop(ctx); err != nil {
		log.Errorf("hardware: %s", errors.ErrorStack(err))
		return 1
	}
	log.Infof("stopped")
	return 0
}

// errorStatus formats systemd STATUS line, shown by systemctl status.
func errorStatus(n uint32, err error) string {
	msg := strings.Replace(err.Error(), "\n", " ", -1)
	return fmt.Sprintf("STATUS=errors=%d last: %s", n, msg)
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log2.NewStderr(log2.LError).Errorf("sdnotify: %s", errors.ErrorStack(err))
	}
	return ok
}

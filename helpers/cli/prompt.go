// Package cli runs line oriented interactive tools: prompt on terminal, plain lines from pipe.
package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

const DefaultPrefix = "> "

// MainLoop calls exec for every input line until EOF or exec returns false.
// onSignal runs on SIGINT, SIGTERM, SIGHUP, SIGQUIT; nil means exit(1).
func MainLoop(prefix string, exec func(line string) bool, complete prompt.Completer, onSignal func(os.Signal)) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		unix.SIGHUP,
		unix.SIGINT,
		unix.SIGTERM,
		unix.SIGQUIT)
	defer signal.Stop(signalCh)
	go func() {
		for s := range signalCh {
			if onSignal == nil {
				os.Exit(1)
			}
			onSignal(s)
		}
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		history := make([]string, 0, 32)
		for {
			line := strings.TrimSpace(prompt.Input(prefix, complete, prompt.OptionHistory(history)))
			if line != "" {
				history = append(history, line)
			}
			if !exec(line) {
				return nil
			}
		}
	}
	return ReadLines(os.Stdin, exec)
}

// ReadLines feeds trimmed lines from r into exec.
func ReadLines(r io.Reader, exec func(line string) bool) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if !exec(strings.TrimSpace(scanner.Text())) {
			return nil
		}
	}
	return scanner.Err()
}

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/enderpanel/hardware/input"
	"github.com/temoto/enderpanel/hardware/lcd"
	"github.com/temoto/enderpanel/internal/ui"
)

var keyWords = map[string]input.Key{
	"u": input.KeyUp, "up": input.KeyUp,
	"d": input.KeyDown, "down": input.KeyDown,
	"l": input.KeyLeft, "left": input.KeyLeft,
	"r": input.KeyRight, "right": input.KeyRight,
}

var suggests = []prompt.Suggest{
	{Text: "up", Description: "previous entry"},
	{Text: "down", Description: "next entry"},
	{Text: "right", Description: "enter item or run option"},
	{Text: "left", Description: "back to top level"},
	{Text: "raw", Description: "raw expander byte, e.g. raw 0xf3"},
	{Text: "state", Description: "print navigation state"},
	{Text: "quit"},
}

// parseRaw converts one word into expander byte.
// "u+r" is a chord, "raw:0xf3" passes byte as is.
func parseRaw(word string) (byte, error) {
	if strings.HasPrefix(word, "raw:") {
		n, err := strconv.ParseUint(word[4:], 0, 8)
		if err != nil {
			return 0, errors.Annotatef(err, "word=%s", word)
		}
		return byte(n), nil
	}
	raw := input.RawNone
	for _, part := range strings.Split(word, "+") {
		k, ok := keyWords[strings.ToLower(part)]
		if !ok {
			return 0, errors.NotValidf("key=%q", part)
		}
		raw &^= byte(k)
	}
	return raw, nil
}

// checkSize applies LCD driver limits to simulated display.
func checkSize(width, rows int) error {
	if width < 1 || width > lcd.MaxWidth {
		return errors.NotValidf("width=%d (1..%d)", width, lcd.MaxWidth)
	}
	switch rows {
	case 1, 2, 4:
		return nil
	}
	return errors.NotValidf("rows=%d (supported: 1, 2, 4)", rows)
}

type sim struct {
	machine *ui.Machine
	display *lcd.MockDisplay
	out     io.Writer
}

func (self *sim) show() error {
	if err := self.machine.Render(self.display); err != nil {
		return err
	}
	border := "+" + strings.Repeat("-", self.display.Width()) + "+"
	fmt.Fprintln(self.out, border)
	for _, l := range self.display.Lines() {
		fmt.Fprintf(self.out, "|%s|\n", l)
	}
	fmt.Fprintln(self.out, border)
	return nil
}

// exec handles one input line, false means quit.
func (self *sim) exec(ctx context.Context, line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 {
		return true
	}
	switch words[0] {
	case "quit", "exit", "q":
		return false
	case "state":
		fmt.Fprintln(self.out, self.machine.State().String())
		return true
	case "raw":
		words = words[1:]
		for i := range words {
			words[i] = "raw:" + words[i]
		}
	}
	for _, w := range words {
		raw, err := parseRaw(w)
		if err != nil {
			fmt.Fprintf(self.out, "error: %v\n", err)
			return true
		}
		if b, ok := input.Decode(raw); ok {
			self.machine.Handle(ctx, b)
		}
	}
	if err := self.show(); err != nil {
		fmt.Fprintf(self.out, "error: %v\n", err)
	}
	return true
}

func complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}

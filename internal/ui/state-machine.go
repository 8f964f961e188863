package ui

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/temoto/enderpanel/hardware/input"
	"github.com/temoto/enderpanel/hardware/lcd"
	"github.com/temoto/enderpanel/log2"
)

type Level uint8

const (
	LevelTop Level = iota
	LevelOption
)

func (l Level) String() string {
	switch l {
	case LevelTop:
		return "top"
	case LevelOption:
		return "option"
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// State is navigation snapshot.
type State struct {
	Level  Level
	Top    int
	Option int
	Cmd    string
}

func (s State) String() string {
	return fmt.Sprintf("level=%s top=%d option=%d cmd=%q", s.Level, s.Top, s.Option, s.Cmd)
}

type Executor interface {
	Execute(ctx context.Context, command string) (int, error)
}

type Display interface {
	WriteLine(text string, line lcd.Line) error
	Clear() error
	Rows() int
}

const (
	cursorMark = ">"
	cursorNone = " "
)

type Machine struct {
	Log        *log2.Log
	LastStatus int
	LastErr    error

	tree    Tree
	exec    Executor
	level   Level
	top     int
	option  int
	options []Option // options of entered item
	cmd     string
}

func NewMachine(tree Tree, exec Executor, log *log2.Log) (*Machine, error) {
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, errors.Errorf("code error NewMachine exec=nil")
	}
	return &Machine{Log: log, tree: tree, exec: exec, level: LevelTop}, nil
}

func (self *Machine) State() State {
	return State{Level: self.level, Top: self.top, Option: self.option, Cmd: self.cmd}
}

// Handle applies one decoded keypad read. Pressed buttons are processed in order
// up, down, right, left; level branch is chosen once per call.
// Chorded Right runs the option selected after Up/Down of the same read, Down+Right runs the next one.
func (self *Machine) Handle(ctx context.Context, b input.Buttons) {
	self.Log.Debugf("ui input %s state %s", b.String(), self.State().String())
	switch self.level {
	case LevelTop:
		if b.Up && self.top > 0 {
			self.top--
		}
		if b.Down && self.top < len(self.tree)-1 {
			self.top++
		}
		if b.Right {
			self.enter()
		}

	case LevelOption:
		if b.Up && self.option > 0 {
			self.option--
			self.cmd = self.options[self.option].Cmd
		}
		if b.Down && self.option < len(self.options)-1 {
			self.option++
			self.cmd = self.options[self.option].Cmd
		}
		if b.Right {
			self.run(ctx)
		}
		if b.Left {
			self.leave()
		}
	}
}

func (self *Machine) enter() {
	item := &self.tree[self.top]
	self.Log.Debugf("ui enter %s", item.String())
	self.level = LevelOption
	self.options = item.Options
	self.option = 0
	self.cmd = self.options[0].Cmd
}

func (self *Machine) leave() {
	self.Log.Debugf("ui leave item=%q", self.tree[self.top].Name)
	self.level = LevelTop
	self.options = nil
	self.option = 0
	self.cmd = ""
}

func (self *Machine) run(ctx context.Context) {
	opt := self.options[self.option]
	self.Log.Infof("ui run option=%q cmd=%q", opt.Name, opt.Cmd)
	status, err := self.exec.Execute(ctx, opt.Cmd)
	self.LastStatus, self.LastErr = status, err
	switch {
	case err != nil:
		self.Log.Errorf("ui run option=%q err=%s", opt.Name, errors.ErrorStack(err))
	case status != 0:
		self.Log.Errorf("ui run option=%q status=%d", opt.Name, status)
	default:
		self.Log.Infof("ui run option=%q status=0", opt.Name)
	}
}

// Frame returns rows of text window anchored at current index.
func (self *Machine) Frame(rows int) []string {
	names := self.names()
	current := self.top
	if self.level == LevelOption {
		current = self.option
	}
	frame := make([]string, rows)
	for i := range frame {
		idx := current + i
		if idx >= len(names) {
			break
		}
		mark := cursorNone
		if i == 0 {
			mark = cursorMark
		}
		frame[i] = mark + names[idx]
	}
	return frame
}

// Render clears display and writes whole frame.
func (self *Machine) Render(d Display) error {
	if err := d.Clear(); err != nil {
		return errors.Annotate(err, "ui render clear")
	}
	for row, text := range self.Frame(d.Rows()) {
		if text == "" {
			continue
		}
		line, ok := lcd.LineAt(row)
		if !ok {
			break
		}
		if err := d.WriteLine(text, line); err != nil {
			return errors.Annotatef(err, "ui render row=%d", row)
		}
	}
	return nil
}

func (self *Machine) names() []string {
	if self.level == LevelOption {
		ss := make([]string, len(self.options))
		for i, o := range self.options {
			ss[i] = o.Name
		}
		return ss
	}
	ss := make([]string, len(self.tree))
	for i, item := range self.tree {
		ss[i] = item.Name
	}
	return ss
}

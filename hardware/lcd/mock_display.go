package lcd

import (
	"strings"
	"sync"

	"github.com/juju/errors"
)

// MockDisplay keeps visible lines in memory, same width and addressing rules as LCD.
type MockDisplay struct {
	mu     sync.Mutex
	width  int
	lines  [][]byte
	frames []string
	err    error
}

func NewMockDisplay(width, rows int) *MockDisplay {
	self := &MockDisplay{width: width, lines: make([][]byte, rows)}
	for i := range self.lines {
		self.lines[i] = FitWidth(nil, width)
	}
	return self
}

func (self *MockDisplay) Width() int { return self.width }
func (self *MockDisplay) Rows() int  { return len(self.lines) }

// SetError makes every following write fail, nil restores.
func (self *MockDisplay) SetError(err error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.err = err
}

func (self *MockDisplay) WriteLine(text string, line Line) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.err != nil {
		return self.err
	}
	row := line.row()
	if row < 0 || row >= len(self.lines) {
		return errors.NotValidf("lcd line=%#02x rows=%d", byte(line), len(self.lines))
	}
	self.lines[row] = append([]byte(nil), FitWidth(ASCII(text), self.width)...)
	self.frames = append(self.frames, self.string())
	return nil
}

func (self *MockDisplay) Clear() error {
	for row := range self.lines {
		line, _ := LineAt(row)
		if err := self.WriteLine("", line); err != nil {
			return err
		}
	}
	return nil
}

// Lines returns copy of visible lines, each exactly width long.
func (self *MockDisplay) Lines() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	ss := make([]string, len(self.lines))
	for i, l := range self.lines {
		ss[i] = string(l)
	}
	return ss
}

// Writes returns display content after every WriteLine.
func (self *MockDisplay) Writes() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]string(nil), self.frames...)
}

func (self *MockDisplay) String() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.string()
}

func (self *MockDisplay) string() string {
	ss := make([]string, len(self.lines))
	for i, l := range self.lines {
		ss[i] = string(l)
	}
	return strings.Join(ss, "\n")
}

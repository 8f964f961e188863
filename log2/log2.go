// Package log2 is a thin leveled wrapper around stdlib *log.Logger.
// Every method is safe to call on nil *Log, which discards output.
// NewTest routes output into testing.TB so parallel tests keep their logs apart.
package log2

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"sync/atomic"
	"testing"
)

const (
	Lmicroseconds     int = log.Lmicroseconds
	Lshortfile        int = log.Lshortfile
	LStdFlags         int = log.Ltime | Lshortfile
	LInteractiveFlags int = log.Ltime | Lshortfile | Lmicroseconds
	LServiceFlags     int = Lshortfile
	LTestFlags        int = Lshortfile | Lmicroseconds
)

type Level int32

const (
	LError Level = iota
	LInfo
	LDebug
)

func (l Level) String() string {
	switch l {
	case LError:
		return "error"
	case LInfo:
		return "info"
	case LDebug:
		return "debug"
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

type Func func(format string, args ...interface{})

type Log struct {
	l      *log.Logger
	level  Level
	w      io.Writer
	fatalf Func
	errf   atomic.Value // func(error)
}

func NewStderr(level Level) *Log { return NewWriter(os.Stderr, level) }

func NewWriter(w io.Writer, level Level) *Log {
	if w == ioutil.Discard {
		return nil
	}
	return &Log{
		l:     log.New(w, "", LStdFlags),
		level: level,
		w:     w,
	}
}

type funcWriter struct{ f Func }

func (fw funcWriter) Write(b []byte) (int, error) {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	fw.f("%s", b)
	return n, nil
}

func NewFunc(f Func, level Level) *Log { return NewWriter(funcWriter{f}, level) }

func NewTest(t testing.TB, level Level) *Log {
	self := NewFunc(t.Logf, level)
	self.SetFlags(LTestFlags)
	self.fatalf = t.Fatalf
	return self
}

// Clone returns new logger with same destination and flags.
func (self *Log) Clone(level Level) *Log {
	if self == nil {
		return nil
	}
	l := NewWriter(self.w, level)
	l.SetFlags(self.l.Flags())
	l.SetPrefix(self.l.Prefix())
	l.fatalf = self.fatalf
	return l
}

func (self *Log) SetLevel(l Level) {
	if self == nil {
		return
	}
	atomic.StoreInt32((*int32)(&self.level), int32(l))
}

func (self *Log) SetFlags(f int) {
	if self == nil {
		return
	}
	self.l.SetFlags(f)
}

func (self *Log) SetPrefix(prefix string) {
	if self == nil {
		return
	}
	self.l.SetPrefix(prefix)
}

// SetErrorFunc installs hook called with every Error/Errorf argument.
func (self *Log) SetErrorFunc(f func(error)) {
	if self == nil {
		return
	}
	self.errf.Store(f)
}

func (self *Log) Enabled(level Level) bool {
	if self == nil {
		return false
	}
	return atomic.LoadInt32((*int32)(&self.level)) >= int32(level)
}

func (self *Log) output(level Level, s string) {
	if self.Enabled(level) {
		_ = self.l.Output(3, s)
	}
}

func (self *Log) Error(args ...interface{}) {
	if self == nil {
		return
	}
	self.output(LError, "error: "+fmt.Sprint(args...))
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			self.hookError(err)
			return
		}
	}
	self.hookError(fmt.Errorf("%s", fmt.Sprint(args...)))
}
func (self *Log) Errorf(format string, args ...interface{}) {
	if self == nil {
		return
	}
	self.output(LError, "error: "+fmt.Sprintf(format, args...))
	self.hookError(fmt.Errorf(format, args...))
}
func (self *Log) Info(args ...interface{}) {
	self.output(LInfo, fmt.Sprint(args...))
}
func (self *Log) Infof(format string, args ...interface{}) {
	self.output(LInfo, fmt.Sprintf(format, args...))
}
func (self *Log) Debug(args ...interface{}) {
	self.output(LDebug, "debug: "+fmt.Sprint(args...))
}
func (self *Log) Debugf(format string, args ...interface{}) {
	self.output(LDebug, "debug: "+fmt.Sprintf(format, args...))
}

func (self *Log) Fatal(args ...interface{}) {
	self.Fatalf("%s", fmt.Sprint(args...))
}
func (self *Log) Fatalf(format string, args ...interface{}) {
	if self != nil && self.fatalf != nil {
		self.fatalf(format, args...)
		return
	}
	if self != nil {
		self.output(LError, "fatal: "+fmt.Sprintf(format, args...))
	}
	os.Exit(1)
}

// Writer returns io.Writer that logs every write at given level.
func (self *Log) Writer(level Level) io.Writer {
	return funcWriter{func(format string, args ...interface{}) {
		self.output(level, fmt.Sprintf(format, args...))
	}}
}

func (self *Log) hookError(err error) {
	if f, ok := self.errf.Load().(func(error)); ok && f != nil {
		f(err)
	}
}

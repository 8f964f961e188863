// Package command runs menu option commands through the shell.
package command

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/jesseduffield/kill"
	"github.com/juju/errors"
	"github.com/temoto/enderpanel/log2"
)

const (
	DefaultShell    = "/bin/sh"
	DefaultShellArg = "-c"
)

// StatusNotStarted is reported together with error when process could not start.
const StatusNotStarted = -1

type Runner struct {
	Log      *log2.Log
	Shell    string
	ShellArg string
	Stdout   io.Writer
	Stderr   io.Writer

	mu      sync.Mutex
	current *exec.Cmd
}

func NewRunner(log *log2.Log, shell string) *Runner {
	if shell == "" {
		shell = DefaultShell
	}
	return &Runner{
		Log:      log,
		Shell:    shell,
		ShellArg: DefaultShellArg,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Execute runs command and waits for it to finish.
// Non-zero exit status is not an error. Error means command could not start or wait failed.
func (self *Runner) Execute(ctx context.Context, command string) (int, error) {
	cmd := exec.CommandContext(ctx, self.Shell, self.ShellArg, command)
	cmd.Env = os.Environ()
	cmd.Stdout = self.Stdout
	cmd.Stderr = self.Stderr
	// own process group, so Interrupt reaches children of the shell too
	kill.PrepareForChildren(cmd)

	self.Log.Debugf("command start %q", command)
	begin := time.Now()
	if err := cmd.Start(); err != nil {
		return StatusNotStarted, errors.Annotatef(err, "command start %q", command)
	}
	self.mu.Lock()
	self.current = cmd
	self.mu.Unlock()

	err := cmd.Wait()

	self.mu.Lock()
	self.current = nil
	self.mu.Unlock()

	status := StatusNotStarted
	if cmd.ProcessState != nil {
		status = cmd.ProcessState.ExitCode()
	}
	self.Log.Debugf("command finish %q status=%d duration=%v", command, status, time.Since(begin))
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return status, nil
		}
		return status, errors.Annotatef(err, "command wait %q", command)
	}
	return status, nil
}

// Interrupt kills process group of running command, if any.
func (self *Runner) Interrupt() error {
	self.mu.Lock()
	cmd := self.current
	self.mu.Unlock()
	if cmd == nil {
		return nil
	}
	self.Log.Infof("command interrupt pid=%d", cmd.Process.Pid)
	return errors.Annotate(kill.Kill(cmd), "command interrupt")
}

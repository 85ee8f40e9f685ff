// Package hostcmd is the single seam through which trojanup reaches the
// privileged system tools it orchestrates (apt-get, ufw, certbot, nginx,
// systemctl). Workflow code never calls os/exec directly, so it can be
// exercised in tests without root or a live host.
package hostcmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command is a single external invocation. Env entries are appended to the
// ambient environment.
type Command struct {
	Name string
	Args []string
	Env  []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes external commands and returns their combined output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// HostRunner runs commands on the local host.
type HostRunner struct{}

func (HostRunner) Run(ctx context.Context, cmd Command) (string, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	out, err := c.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s: %w", cmd, err)
	}
	return string(out), nil
}

// RunnerFunc adapts a function to the Runner interface. Tests use it to
// record and fake command invocations.
type RunnerFunc func(ctx context.Context, cmd Command) (string, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (string, error) {
	return f(ctx, cmd)
}

// Package workflow implements the two pipelines: fresh installation and
// port migration. All host access goes through the injected runner and the
// layout paths, so both pipelines run end to end in tests.
package workflow

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/hostcmd"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/layout"
)

type Deps struct {
	Run   hostcmd.Runner
	Paths layout.Paths
	Log   *log.Logger

	// Geteuid is swappable so tests can run the privilege check without
	// being root.
	Geteuid func() int

	// Settle is the pause between restarting services and checking that
	// they stayed up.
	Settle time.Duration
}

func NewDeps(logger *log.Logger) Deps {
	return Deps{
		Run:     hostcmd.HostRunner{},
		Paths:   layout.Default(),
		Log:     logger,
		Geteuid: os.Geteuid,
		Settle:  2 * time.Second,
	}
}

func (d Deps) requireRoot() error {
	euid := os.Geteuid()
	if d.Geteuid != nil {
		euid = d.Geteuid()
	}
	if euid != 0 {
		return fmt.Errorf("this command must be run as root")
	}
	return nil
}

// HintError carries likely root causes alongside the error so the CLI can
// print them under the red diagnostic line.
type HintError struct {
	Err   error
	Hints []string
}

func (e *HintError) Error() string { return e.Err.Error() }

func (e *HintError) Unwrap() error { return e.Err }

func withHints(err error, hints ...string) error {
	return &HintError{Err: err, Hints: hints}
}

func validPort(port int) bool {
	return port >= 1 && port <= 65535
}

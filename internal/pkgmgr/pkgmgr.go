// Package pkgmgr installs OS packages through apt-get.
package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/hostcmd"
)

type Manager struct {
	Run hostcmd.Runner
}

func NewManager(run hostcmd.Runner) *Manager {
	return &Manager{Run: run}
}

var noninteractive = []string{"DEBIAN_FRONTEND=noninteractive"}

// Update refreshes the package index.
func (m *Manager) Update(ctx context.Context) error {
	out, err := m.Run.Run(ctx, hostcmd.Command{
		Name: "apt-get",
		Args: []string{"update"},
		Env:  noninteractive,
	})
	if err != nil {
		return fmt.Errorf("apt-get update: %w\n%s", err, tail(out))
	}
	return nil
}

// Install installs the named packages.
func (m *Manager) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	out, err := m.Run.Run(ctx, hostcmd.Command{
		Name: "apt-get",
		Args: append([]string{"install", "-y"}, pkgs...),
		Env:  noninteractive,
	})
	if err != nil {
		return fmt.Errorf("apt-get install %s: %w\n%s", strings.Join(pkgs, " "), err, tail(out))
	}
	return nil
}

// tail keeps error output readable when apt dumps pages of progress text.
func tail(out string) string {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) <= 15 {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-15:], "\n")
}

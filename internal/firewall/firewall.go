// Package firewall drives the ufw front-end.
package firewall

import (
	"context"
	"fmt"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/hostcmd"
)

type Manager struct {
	Run hostcmd.Runner
}

func NewManager(run hostcmd.Runner) *Manager {
	return &Manager{Run: run}
}

// Allow opens TCP traffic on the given port.
func (m *Manager) Allow(ctx context.Context, port int) error {
	out, err := m.Run.Run(ctx, hostcmd.Command{Name: "ufw", Args: []string{"allow", fmt.Sprintf("%d/tcp", port)}})
	if err != nil {
		return fmt.Errorf("open port %d: %w\n%s", port, err, out)
	}
	return nil
}

// DeleteAllow removes the allow rule for a port. A missing rule is not an
// error; the rule may never have existed on this host.
func (m *Manager) DeleteAllow(ctx context.Context, port int) {
	_, _ = m.Run.Run(ctx, hostcmd.Command{Name: "ufw", Args: []string{"delete", "allow", fmt.Sprintf("%d/tcp", port)}})
}

// Enable turns the firewall on. --force suppresses the interactive
// confirmation ufw asks for when enabling over SSH.
func (m *Manager) Enable(ctx context.Context) error {
	out, err := m.Run.Run(ctx, hostcmd.Command{Name: "ufw", Args: []string{"--force", "enable"}})
	if err != nil {
		return fmt.Errorf("enable firewall: %w\n%s", err, out)
	}
	return nil
}

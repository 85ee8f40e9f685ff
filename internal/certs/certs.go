// Package certs obtains TLS certificates through the certbot CLI.
package certs

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

// Obtain requests a certificate for the domain in standalone mode. The
// caller must have freed port 80 first; certbot binds it for the HTTP-01
// challenge.
func (m *Manager) Obtain(ctx context.Context, domain, email string) error {
	out, err := m.Run.Run(ctx, hostcmd.Command{
		Name: "certbot",
		Args: []string{
			"certonly", "--standalone",
			"--non-interactive", "--agree-tos",
			"-d", domain,
			"-m", email,
		},
	})
	if err != nil {
		return fmt.Errorf("certificate issuance for %s failed: %w\n%s", domain, err, out)
	}
	return nil
}

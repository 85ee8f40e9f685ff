// Package sysd wraps the systemctl surface the workflows need and renders
// the trojan service unit.
package sysd

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/hostcmd"
)

//go:embed trojan.service.tmpl
var unitTemplateText string

var unitTemplate = template.Must(template.New("unit").Parse(unitTemplateText))

// RenderUnit produces the trojan service unit pointing at configPath.
func RenderUnit(configPath string) ([]byte, error) {
	var b strings.Builder
	if err := unitTemplate.Execute(&b, struct{ ConfigPath string }{configPath}); err != nil {
		return nil, fmt.Errorf("render service unit: %w", err)
	}
	return []byte(b.String()), nil
}

type Manager struct {
	Run hostcmd.Runner

	// SettleDelay is how long to wait after a restart before asking
	// is-active, giving a crash-looping unit time to reveal itself.
	SettleDelay time.Duration
}

func NewManager(run hostcmd.Runner) *Manager {
	return &Manager{Run: run, SettleDelay: 2 * time.Second}
}

func (m *Manager) systemctl(ctx context.Context, args ...string) (string, error) {
	return m.Run.Run(ctx, hostcmd.Command{Name: "systemctl", Args: args})
}

func (m *Manager) DaemonReload(ctx context.Context) error {
	if out, err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("daemon-reload: %w\n%s", err, out)
	}
	return nil
}

func (m *Manager) Enable(ctx context.Context, unit string) error {
	if out, err := m.systemctl(ctx, "enable", unit); err != nil {
		return fmt.Errorf("enable %s: %w\n%s", unit, err, out)
	}
	return nil
}

func (m *Manager) Restart(ctx context.Context, unit string) error {
	if out, err := m.systemctl(ctx, "restart", unit); err != nil {
		return fmt.Errorf("restart %s: %w\n%s", unit, err, out)
	}
	return nil
}

func (m *Manager) Reload(ctx context.Context, unit string) error {
	if out, err := m.systemctl(ctx, "reload", unit); err != nil {
		return fmt.Errorf("reload %s: %w\n%s", unit, err, out)
	}
	return nil
}

func (m *Manager) Stop(ctx context.Context, unit string) error {
	if out, err := m.systemctl(ctx, "stop", unit); err != nil {
		return fmt.Errorf("stop %s: %w\n%s", unit, err, out)
	}
	return nil
}

// IsActive reports whether the unit is in the active state.
func (m *Manager) IsActive(ctx context.Context, unit string) bool {
	out, err := m.systemctl(ctx, "is-active", unit)
	return err == nil && strings.TrimSpace(out) == "active"
}

// VerifyActive waits SettleDelay and then checks every unit; the first
// inactive one fails the call.
func (m *Manager) VerifyActive(ctx context.Context, units ...string) error {
	if m.SettleDelay > 0 {
		select {
		case <-time.After(m.SettleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, unit := range units {
		if !m.IsActive(ctx, unit) {
			return fmt.Errorf("service %s is not active after restart", unit)
		}
	}
	return nil
}

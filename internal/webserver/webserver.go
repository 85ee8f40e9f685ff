// Package webserver manages the nginx side of an installation: site files,
// the enabled-sites symlink, the placeholder web root, and config
// validation.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/hostcmd"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/layout"
)

const placeholderPage = `<!DOCTYPE html>
<html>
<head><title>Welcome</title></head>
<body><h1>It works!</h1></body>
</html>
`

type Manager struct {
	Run   hostcmd.Runner
	Paths layout.Paths
}

func NewManager(run hostcmd.Runner, paths layout.Paths) *Manager {
	return &Manager{Run: run, Paths: paths}
}

// TestConfig runs the nginx syntax check against the live configuration.
func (m *Manager) TestConfig(ctx context.Context) error {
	out, err := m.Run.Run(ctx, hostcmd.Command{Name: "nginx", Args: []string{"-t"}})
	if err != nil {
		return fmt.Errorf("nginx config test failed: %w\n%s", err, out)
	}
	return nil
}

// EnableSite links the domain's site file into sites-enabled and drops the
// distribution default site so it cannot shadow the redirect.
func (m *Manager) EnableSite(domain string) error {
	if err := os.MkdirAll(m.Paths.NginxEnabled, 0o755); err != nil {
		return fmt.Errorf("ensure sites-enabled dir: %w", err)
	}
	link := m.Paths.SiteLink(domain)
	if err := os.Remove(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace site link: %w", err)
	}
	if err := os.Symlink(m.Paths.SiteFile(domain), link); err != nil {
		return fmt.Errorf("enable site: %w", err)
	}
	if err := os.Remove(m.Paths.NginxDefaultSite); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove default site: %w", err)
	}
	return nil
}

// WritePlaceholder creates the per-domain web root with a stub index page
// and hands ownership to the web-server user.
func (m *Manager) WritePlaceholder(ctx context.Context, domain string) error {
	root := m.Paths.DomainRoot(domain)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create web root: %w", err)
	}
	index := filepath.Join(root, "index.html")
	if err := os.WriteFile(index, []byte(placeholderPage), 0o644); err != nil {
		return fmt.Errorf("write placeholder page: %w", err)
	}
	out, err := m.Run.Run(ctx, hostcmd.Command{Name: "chown", Args: []string{"-R", "www-data:www-data", root}})
	if err != nil {
		return fmt.Errorf("chown web root: %w\n%s", err, out)
	}
	return nil
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/firewall"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/nginxcfg"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/sysd"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/trojancfg"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/webserver"
)

type ChangeResult struct {
	Domain  string
	OldPort int
	NewPort int
}

// ChangePort migrates an existing installation to a new port. File
// mutations are staged and validated before anything irreversible happens:
// if the rewritten nginx config fails the syntax check, every file is
// restored and the firewall and services are left untouched.
func ChangePort(ctx context.Context, d Deps, newPort int) (ChangeResult, error) {
	if err := d.requireRoot(); err != nil {
		return ChangeResult{}, err
	}
	if !validPort(newPort) {
		return ChangeResult{}, fmt.Errorf("invalid port %d: must be between 1 and 65535", newPort)
	}

	cfg, err := trojancfg.Load(d.Paths.TrojanConfig)
	if err != nil {
		if errors.Is(err, trojancfg.ErrNotInstalled) {
			return ChangeResult{}, fmt.Errorf("no existing installation: %w", err)
		}
		return ChangeResult{}, err
	}

	oldPort := cfg.LocalPort
	if !validPort(oldPort) {
		return ChangeResult{}, fmt.Errorf("cannot determine current port from config (local_port=%d)", oldPort)
	}
	domain, err := cfg.Domain()
	if err != nil {
		return ChangeResult{}, err
	}
	if newPort == oldPort {
		return ChangeResult{}, fmt.Errorf("port %d is already the configured port", newPort)
	}

	sitePath := d.Paths.SiteFile(domain)
	site, err := os.ReadFile(sitePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ChangeResult{}, fmt.Errorf("site config for %s not found at %s", domain, sitePath)
		}
		return ChangeResult{}, fmt.Errorf("read site config: %w", err)
	}

	d.Log.Info("migrating port", "domain", domain, "from", oldPort, "to", newPort)

	newSite, err := nginxcfg.SetRedirectPort(site, newPort)
	if err != nil {
		return ChangeResult{}, err
	}
	cfg.LocalPort = newPort
	newConfig, err := trojancfg.Marshal(cfg)
	if err != nil {
		return ChangeResult{}, err
	}

	web := webserver.NewManager(d.Run, d.Paths)
	txn := newFileTxn()
	if err := txn.Write(sitePath, newSite, 0o644); err != nil {
		return ChangeResult{}, err
	}
	if err := web.TestConfig(ctx); err != nil {
		txn.Rollback()
		return ChangeResult{}, withHints(err,
			"the site config was restored; no changes were applied",
		)
	}
	if err := txn.Write(d.Paths.TrojanConfig, newConfig, 0o600); err != nil {
		txn.Rollback()
		return ChangeResult{}, err
	}

	fw := firewall.NewManager(d.Run)
	fw.DeleteAllow(ctx, oldPort)
	if err := fw.Allow(ctx, newPort); err != nil {
		return ChangeResult{}, err
	}

	services := sysd.NewManager(d.Run)
	services.SettleDelay = d.Settle
	if err := services.Reload(ctx, "nginx"); err != nil {
		return ChangeResult{}, err
	}
	if err := services.Restart(ctx, "trojan"); err != nil {
		return ChangeResult{}, err
	}
	if err := services.VerifyActive(ctx, "nginx", "trojan"); err != nil {
		return ChangeResult{}, withHints(err,
			"journalctl -u trojan -n 50 shows the service log",
			fmt.Sprintf("the configs now reference port %d; re-run with the old port to roll back", newPort),
		)
	}

	return ChangeResult{Domain: domain, OldPort: oldPort, NewPort: newPort}, nil
}

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/certs"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/firewall"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/nginxcfg"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/pkgmgr"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/secret"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/sysd"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/trojancfg"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/webserver"
)

// Packages installed before anything else runs.
var installPackages = []string{"nginx", "certbot", "trojan", "ufw"}

type InstallParams struct {
	Domain   string
	Password string // blank: generate one
	Port     int
	Email    string
}

type InstallResult struct {
	Domain   string
	Port     int
	Password string
	CertFile string
}

func (p *InstallParams) validate() error {
	p.Domain = strings.TrimSpace(p.Domain)
	p.Email = strings.TrimSpace(p.Email)
	if p.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !validPort(p.Port) {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", p.Port)
	}
	if p.Port == 80 {
		return fmt.Errorf("port 80 is reserved for the HTTP redirect and certificate challenges")
	}
	return nil
}

// Install provisions a trojan server behind nginx with a Let's Encrypt
// certificate, per the installer pipeline.
func Install(ctx context.Context, d Deps, params InstallParams) (InstallResult, error) {
	if err := d.requireRoot(); err != nil {
		return InstallResult{}, err
	}
	if err := params.validate(); err != nil {
		return InstallResult{}, err
	}

	password := params.Password
	if password == "" {
		generated, err := secret.Generate(secret.PasswordLength)
		if err != nil {
			return InstallResult{}, fmt.Errorf("generate password: %w", err)
		}
		password = generated
		d.Log.Info("generated trojan password", "length", secret.PasswordLength)
	}

	pkgs := pkgmgr.NewManager(d.Run)
	fw := firewall.NewManager(d.Run)
	services := sysd.NewManager(d.Run)
	services.SettleDelay = d.Settle
	web := webserver.NewManager(d.Run, d.Paths)
	ca := certs.NewManager(d.Run)

	d.Log.Info("installing packages", "packages", strings.Join(installPackages, " "))
	if err := pkgs.Update(ctx); err != nil {
		return InstallResult{}, err
	}
	if err := pkgs.Install(ctx, installPackages...); err != nil {
		return InstallResult{}, err
	}

	d.Log.Info("configuring firewall", "ports", fmt.Sprintf("80, %d", params.Port))
	if err := fw.Allow(ctx, 80); err != nil {
		return InstallResult{}, err
	}
	if err := fw.Allow(ctx, params.Port); err != nil {
		return InstallResult{}, err
	}
	if err := fw.Enable(ctx); err != nil {
		return InstallResult{}, err
	}

	d.Log.Info("requesting certificate", "domain", params.Domain)
	if err := services.Stop(ctx, "nginx"); err != nil {
		return InstallResult{}, err
	}
	if err := ca.Obtain(ctx, params.Domain, params.Email); err != nil {
		return InstallResult{}, withHints(err,
			"check that the domain's DNS A record points at this server",
			"check the domain spelling",
			"check that nothing else is listening on port 80",
		)
	}

	certFile := d.Paths.CertFile(params.Domain)
	keyFile := d.Paths.KeyFile(params.Domain)

	d.Log.Info("writing configuration", "domain", params.Domain, "port", params.Port)
	site, err := nginxcfg.Render(params.Domain, params.Port, d.Paths.DomainRoot(params.Domain))
	if err != nil {
		return InstallResult{}, err
	}

	txn := newFileTxn()
	if err := txn.Write(d.Paths.SiteFile(params.Domain), site, 0o644); err != nil {
		return InstallResult{}, err
	}
	unit, err := sysd.RenderUnit(d.Paths.TrojanConfig)
	if err != nil {
		txn.Rollback()
		return InstallResult{}, err
	}
	if err := txn.Write(d.Paths.SystemdUnit, unit, 0o644); err != nil {
		txn.Rollback()
		return InstallResult{}, err
	}
	cfgData, err := trojancfg.Marshal(trojancfg.New(params.Port, password, certFile, keyFile))
	if err != nil {
		txn.Rollback()
		return InstallResult{}, err
	}
	if err := txn.Write(d.Paths.TrojanConfig, cfgData, 0o600); err != nil {
		txn.Rollback()
		return InstallResult{}, err
	}

	if err := web.WritePlaceholder(ctx, params.Domain); err != nil {
		return InstallResult{}, err
	}
	if err := web.EnableSite(params.Domain); err != nil {
		return InstallResult{}, err
	}

	d.Log.Info("starting services")
	if err := services.DaemonReload(ctx); err != nil {
		txn.Rollback()
		return InstallResult{}, err
	}
	if err := web.TestConfig(ctx); err != nil {
		txn.Rollback()
		return InstallResult{}, err
	}
	if err := services.Restart(ctx, "nginx"); err != nil {
		return InstallResult{}, err
	}
	if err := services.Enable(ctx, "nginx"); err != nil {
		return InstallResult{}, err
	}
	if err := services.Restart(ctx, "trojan"); err != nil {
		return InstallResult{}, err
	}
	if err := services.Enable(ctx, "trojan"); err != nil {
		return InstallResult{}, err
	}
	if err := services.VerifyActive(ctx, "nginx", "trojan"); err != nil {
		return InstallResult{}, withHints(err,
			"journalctl -u trojan -n 50 shows the service log",
			"journalctl -u nginx -n 50 shows the web-server log",
		)
	}

	return InstallResult{
		Domain:   params.Domain,
		Port:     params.Port,
		Password: password,
		CertFile: certFile,
	}, nil
}

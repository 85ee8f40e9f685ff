package workflow

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/trojancfg"
)

func TestInstallFreshHost(t *testing.T) {
	host := &fakeHost{}
	d := testDeps(t, host)

	res, err := Install(context.Background(), d, InstallParams{
		Domain: "example.com",
		Port:   8443,
		Email:  "admin@example.com",
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if res.CertFile != d.Paths.CertFile("example.com") {
		t.Fatalf("cert file = %q", res.CertFile)
	}

	cfg, err := trojancfg.Load(d.Paths.TrojanConfig)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LocalPort != 8443 {
		t.Fatalf("local_port = %d, want 8443", cfg.LocalPort)
	}
	if !strings.HasSuffix(cfg.SSL.Cert, "/letsencrypt/live/example.com/fullchain.pem") {
		t.Fatalf("unexpected cert path: %q", cfg.SSL.Cert)
	}
	if len(cfg.Password) != 1 {
		t.Fatalf("unexpected password list: %v", cfg.Password)
	}
	if !regexp.MustCompile(`^[A-Za-z0-9]{16}$`).MatchString(cfg.Password[0]) {
		t.Fatalf("generated password %q is not 16 alphanumeric chars", cfg.Password[0])
	}
	if cfg.Password[0] != res.Password {
		t.Fatalf("result password does not match config")
	}

	site, err := os.ReadFile(d.Paths.SiteFile("example.com"))
	if err != nil {
		t.Fatalf("read site file: %v", err)
	}
	if !strings.Contains(string(site), "return 301 https://example.com:8443$request_uri;") {
		t.Fatalf("site file missing redirect:\n%s", site)
	}

	if _, err := os.Readlink(d.Paths.SiteLink("example.com")); err != nil {
		t.Fatalf("site not enabled: %v", err)
	}
	unit, err := os.ReadFile(d.Paths.SystemdUnit)
	if err != nil {
		t.Fatalf("read unit file: %v", err)
	}
	if !strings.Contains(string(unit), "Restart=on-failure") {
		t.Fatalf("unit file missing restart policy:\n%s", unit)
	}

	for _, want := range []string{
		"apt-get update",
		"apt-get install -y nginx certbot trojan ufw",
		"ufw allow 80/tcp",
		"ufw allow 8443/tcp",
		"ufw --force enable",
		"systemctl stop nginx",
		"certbot certonly --standalone --non-interactive --agree-tos -d example.com -m admin@example.com",
		"systemctl daemon-reload",
		"nginx -t",
		"systemctl restart nginx",
		"systemctl restart trojan",
		"systemctl is-active trojan",
	} {
		if !host.ran(want) {
			t.Fatalf("expected command %q to run; got:\n%s", want, strings.Join(host.commands, "\n"))
		}
	}
}

func TestInstallKeepsSuppliedPassword(t *testing.T) {
	host := &fakeHost{}
	d := testDeps(t, host)

	res, err := Install(context.Background(), d, InstallParams{
		Domain:   "example.com",
		Port:     8443,
		Email:    "admin@example.com",
		Password: "hunter2hunter2xx",
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if res.Password != "hunter2hunter2xx" {
		t.Fatalf("password = %q", res.Password)
	}
}

func TestInstallRejectsBadParams(t *testing.T) {
	cases := []struct {
		name   string
		params InstallParams
	}{
		{"port 80", InstallParams{Domain: "example.com", Port: 80, Email: "a@b.c"}},
		{"port zero", InstallParams{Domain: "example.com", Port: 0, Email: "a@b.c"}},
		{"port too large", InstallParams{Domain: "example.com", Port: 65536, Email: "a@b.c"}},
		{"missing domain", InstallParams{Port: 8443, Email: "a@b.c"}},
		{"missing email", InstallParams{Domain: "example.com", Port: 8443}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host := &fakeHost{}
			d := testDeps(t, host)
			if _, err := Install(context.Background(), d, tc.params); err == nil {
				t.Fatal("expected error")
			}
			if len(host.commands) != 0 {
				t.Fatalf("commands ran despite invalid params: %v", host.commands)
			}
			if !dirIsEmptyOrMissing(t, d.Paths.NginxAvailable) {
				t.Fatal("files were written despite invalid params")
			}
		})
	}
}

func TestInstallRequiresRoot(t *testing.T) {
	host := &fakeHost{}
	d := testDeps(t, host)
	d.Geteuid = func() int { return 1000 }

	_, err := Install(context.Background(), d, InstallParams{Domain: "example.com", Port: 8443, Email: "a@b.c"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(host.commands) != 0 {
		t.Fatalf("commands ran without root: %v", host.commands)
	}
}

func TestInstallCertbotFailureCarriesHints(t *testing.T) {
	host := &fakeHost{fail: map[string]string{"certbot": "Challenge failed"}}
	d := testDeps(t, host)

	_, err := Install(context.Background(), d, InstallParams{Domain: "example.com", Port: 8443, Email: "a@b.c"})
	if err == nil {
		t.Fatal("expected error")
	}
	var hints *HintError
	if !errors.As(err, &hints) {
		t.Fatalf("expected HintError, got %T: %v", err, err)
	}
	if len(hints.Hints) != 3 {
		t.Fatalf("expected three hints, got %v", hints.Hints)
	}
	if _, statErr := os.Stat(d.Paths.TrojanConfig); !os.IsNotExist(statErr) {
		t.Fatal("trojan config was written despite certificate failure")
	}
}

func TestInstallNginxValidationFailureRollsBackStagedFiles(t *testing.T) {
	host := &fakeHost{fail: map[string]string{"nginx -t": "emerg: unknown directive"}}
	d := testDeps(t, host)

	_, err := Install(context.Background(), d, InstallParams{Domain: "example.com", Port: 8443, Email: "a@b.c"})
	if err == nil {
		t.Fatal("expected error")
	}
	if host.ran("systemctl restart nginx") {
		t.Fatal("nginx restarted despite failed validation")
	}
	for _, path := range []string{
		d.Paths.SiteFile("example.com"),
		d.Paths.SystemdUnit,
		d.Paths.TrojanConfig,
	} {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Fatalf("%s still present after failed validation", path)
		}
	}
}

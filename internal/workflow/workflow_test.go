package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/hostcmd"
	"github.com/qbzbyl-sudo/auto-install-trojan/internal/layout"
)

// fakeHost records every command and answers from a table of canned
// responses keyed by command prefix.
type fakeHost struct {
	commands []string
	fail     map[string]string // command prefix -> output returned with an error
}

func (f *fakeHost) Run(_ context.Context, cmd hostcmd.Command) (string, error) {
	line := cmd.String()
	f.commands = append(f.commands, line)
	for prefix, out := range f.fail {
		if strings.HasPrefix(line, prefix) {
			return out, fmt.Errorf("exit status 1")
		}
	}
	if strings.HasPrefix(line, "systemctl is-active") {
		return "active\n", nil
	}
	return "", nil
}

func (f *fakeHost) ran(prefix string) bool {
	for _, line := range f.commands {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func testPaths(t *testing.T) layout.Paths {
	t.Helper()
	root := t.TempDir()
	return layout.Paths{
		TrojanConfig:     filepath.Join(root, "trojan", "config.json"),
		SystemdUnit:      filepath.Join(root, "systemd", "trojan.service"),
		NginxAvailable:   filepath.Join(root, "nginx", "sites-available"),
		NginxEnabled:     filepath.Join(root, "nginx", "sites-enabled"),
		NginxDefaultSite: filepath.Join(root, "nginx", "sites-enabled", "default"),
		WebRoot:          filepath.Join(root, "www"),
		LetsEncryptLive:  filepath.Join(root, "letsencrypt", "live"),
	}
}

func testDeps(t *testing.T, host *fakeHost) Deps {
	t.Helper()
	return Deps{
		Run:     host,
		Paths:   testPaths(t),
		Log:     log.New(io.Discard),
		Geteuid: func() int { return 0 },
		Settle:  0,
	}
}

func dirIsEmptyOrMissing(t *testing.T, dir string) bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return true
	}
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	return len(entries) == 0
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/workflow"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

func PrintHelp() {
	fmt.Print(`trojanup: install and reconfigure a trojan proxy behind nginx.

Usage:
  trojanup                       Interactive installer (prompts for everything)
  trojanup install [options]     Non-interactive installer
  trojanup change-port <port>    Move an existing installation to a new port

Install options:
  --domain <name>               Domain with an A record pointing at this host
  --port <port>                 Trojan listening port (not 80)
  --email <address>             Email for certificate expiry notices
  --password <secret>           Trojan password (blank: generate one)

Other:
  --version                     Print trojanup version and exit
  -h, --help                    Show this help

Both commands must run as root: they install packages, change firewall
rules, and restart system services.
`)
}

// Runner handles the non-interactive command paths.
type Runner struct {
	Deps workflow.Deps
	Out  io.Writer
}

func (r *Runner) Run(ctx context.Context, opts Options) (int, error) {
	switch opts.Action {
	case "install":
		return r.runInstall(ctx, opts)
	case "change-port":
		return r.runChangePort(ctx, opts)
	default:
		return ExitFailure, errors.New("no command given. use install or change-port (or run without arguments on a terminal)")
	}
}

func (r *Runner) runInstall(ctx context.Context, opts Options) (int, error) {
	var missing []string
	if strings.TrimSpace(opts.Domain) == "" {
		missing = append(missing, "--domain")
	}
	if opts.Port == 0 {
		missing = append(missing, "--port")
	}
	if strings.TrimSpace(opts.Email) == "" {
		missing = append(missing, "--email")
	}
	if len(missing) > 0 {
		return ExitFailure, fmt.Errorf("install requires %s", strings.Join(missing, ", "))
	}

	res, err := workflow.Install(ctx, r.Deps, workflow.InstallParams{
		Domain:   opts.Domain,
		Password: opts.Password,
		Port:     opts.Port,
		Email:    opts.Email,
	})
	if err != nil {
		return ExitFailure, err
	}
	PrintInstallResult(r.Out, res)
	return ExitSuccess, nil
}

func (r *Runner) runChangePort(ctx context.Context, opts Options) (int, error) {
	if len(opts.Args) != 1 {
		fmt.Fprintln(r.Out, "usage: trojanup change-port <new_port>")
		return ExitFailure, errors.New("change-port takes exactly one argument")
	}
	port, err := ParsePort(opts.Args[0])
	if err != nil {
		return ExitFailure, err
	}

	res, err := workflow.ChangePort(ctx, r.Deps, port)
	if err != nil {
		return ExitFailure, err
	}
	fmt.Fprintf(r.Out, "\nPort changed for %s: %d -> %d\n", res.Domain, res.OldPort, res.NewPort)
	fmt.Fprintln(r.Out, "Update your client configuration to use the new port.")
	return ExitSuccess, nil
}

// PrintInstallResult writes the connection summary shown after a
// successful installation.
func PrintInstallResult(w io.Writer, res workflow.InstallResult) {
	fmt.Fprintln(w, "\nInstallation complete.")
	fmt.Fprintln(w, "Connection details:")
	fmt.Fprintf(w, "  Server:   %s\n", res.Domain)
	fmt.Fprintf(w, "  Port:     %d\n", res.Port)
	fmt.Fprintf(w, "  Password: %s\n", res.Password)
	fmt.Fprintf(w, "\nCertificate: %s\n", res.CertFile)
}

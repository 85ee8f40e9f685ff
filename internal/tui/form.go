// Package tui implements the interactive installer flow shown when
// trojanup is started with no arguments on a terminal.
package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/qbzbyl-sudo/auto-install-trojan/internal/workflow"
)

// ErrCancelled is returned when the user aborts the form.
var ErrCancelled = errors.New("cancelled")

// InstallForm prompts for everything the installer needs. A blank
// password means a random one will be generated.
func InstallForm() (workflow.InstallParams, error) {
	var (
		domain   string
		password string
		port     = "8443"
		email    string
	)

	group := huh.NewGroup(
		huh.NewInput().
			Title("Domain").
			Description("must have an A record pointing at this server").
			Value(&domain).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("domain is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Trojan password").
			Description("leave blank to generate one").
			EchoMode(huh.EchoModePassword).
			Value(&password),
		huh.NewInput().
			Title("Trojan port").
			Value(&port).
			Validate(validatePort),
		huh.NewInput().
			Title("Email").
			Description("for certificate expiry notices").
			Value(&email).
			Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter a valid email address")
				}
				return nil
			}),
	)

	if err := huh.NewForm(group).Run(); err != nil {
		if isUserCancelled(err) {
			return workflow.InstallParams{}, ErrCancelled
		}
		return workflow.InstallParams{}, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil {
		return workflow.InstallParams{}, errors.New("invalid port")
	}

	params := workflow.InstallParams{
		Domain:   strings.TrimSpace(domain),
		Password: password,
		Port:     n,
		Email:    strings.TrimSpace(email),
	}

	if !confirm("Install trojan on " + params.Domain + " port " + port + "?") {
		return workflow.InstallParams{}, ErrCancelled
	}
	return params, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return errors.New("port must be 1-65535")
	}
	if n == 80 {
		return errors.New("port 80 is reserved for the redirect site")
	}
	return nil
}

func confirm(prompt string) bool {
	val := false
	if err := huh.NewConfirm().Title(prompt).Affirmative("Yes").Negative("No").Value(&val).Run(); err != nil {
		return false
	}
	return val
}

func isUserCancelled(err error) bool {
	if err == nil {
		return false
	}
	v := strings.ToLower(err.Error())
	return strings.Contains(v, "interrupt") || strings.Contains(v, "cancel") || strings.Contains(v, "abort")
}

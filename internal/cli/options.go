package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type Options struct {
	Action      string // "", "install", "change-port"
	Domain      string
	Password    string
	Port        int
	Email       string
	VersionOnly bool
	Help        bool
	Args        []string // positionals after the action
}

func Parse(args []string) (Options, error) {
	var opts Options
	fs := pflag.NewFlagSet("trojanup", pflag.ContinueOnError)

	fs.StringVar(&opts.Domain, "domain", "", "Domain name with an A record pointing at this host")
	fs.StringVar(&opts.Password, "password", "", "Trojan password (blank: generate one)")
	fs.IntVar(&opts.Port, "port", 0, "Trojan listening port")
	fs.StringVar(&opts.Email, "email", "", "Email for certificate expiry notices")
	fs.BoolVar(&opts.VersionOnly, "version", false, "Print version")
	fs.BoolVarP(&opts.Help, "help", "h", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		action, ok := NormalizeAction(rest[0])
		if !ok {
			return opts, fmt.Errorf("unknown command %q", rest[0])
		}
		opts.Action = action
		opts.Args = rest[1:]
	}
	return opts, nil
}

func NormalizeAction(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "install":
		return "install", true
	case "change-port", "changeport":
		return "change-port", true
	default:
		return "", false
	}
}

// ParsePort turns a raw CLI argument into a port, rejecting anything
// non-numeric or outside 1-65535.
func ParsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("port is required")
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: must be a number", raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	return port, nil
}

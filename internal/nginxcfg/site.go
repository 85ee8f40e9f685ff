// Package nginxcfg renders the per-domain nginx site file and rewrites the
// port embedded in its HTTPS redirect rule. Rewriting works on the parsed
// redirect statement rather than a whole-file substitution, so the rest of
// the file is never touched.
package nginxcfg

import (
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

//go:embed site.conf.tmpl
var siteTemplateText string

var siteTemplate = template.Must(template.New("site").Parse(siteTemplateText))

type siteParams struct {
	Domain  string
	Port    int
	WebRoot string
}

// Render produces the site file for a fresh install: an HTTP block that
// redirects to the trojan port and a loopback block serving the placeholder
// page trojan falls back to for non-proxy traffic.
func Render(domain string, port int, webRoot string) ([]byte, error) {
	var b strings.Builder
	err := siteTemplate.Execute(&b, siteParams{Domain: domain, Port: port, WebRoot: webRoot})
	if err != nil {
		return nil, fmt.Errorf("render site config: %w", err)
	}
	return []byte(b.String()), nil
}

// redirectStart matches up to and including the scheme of the redirect
// target. \s matches newlines, so a statement split across lines still
// parses.
var redirectStart = regexp.MustCompile(`return\s+301\s+https://`)

// RedirectPort reports the port embedded in the redirect rule. A target
// without an explicit port means 443.
func RedirectPort(content []byte) (int, error) {
	_, target, err := locateTarget(string(content))
	if err != nil {
		return 0, err
	}
	_, portDigits, _ := splitTarget(target)
	if portDigits == "" {
		return 443, nil
	}
	port, err := strconv.Atoi(portDigits)
	if err != nil {
		return 0, fmt.Errorf("redirect rule has malformed port %q", portDigits)
	}
	return port, nil
}

// SetRedirectPort returns content with the redirect target's port segment
// replaced by port. Both target forms are handled: with an explicit port
// (":8443" is rewritten) and without one (the port is inserted after the
// host).
func SetRedirectPort(content []byte, port int) ([]byte, error) {
	text := string(content)
	start, target, err := locateTarget(text)
	if err != nil {
		return nil, err
	}
	host, _, rest := splitTarget(target)

	rebuilt := fmt.Sprintf("%s:%d%s", host, port, rest)
	return []byte(text[:start] + rebuilt + text[start+len(target):]), nil
}

// locateTarget finds the redirect target (host[:port][path]) and returns its
// offset and text. The target runs from the end of "https://" to the first
// whitespace or semicolon.
func locateTarget(text string) (int, string, error) {
	loc := redirectStart.FindStringIndex(text)
	if loc == nil {
		return 0, "", fmt.Errorf("no HTTPS redirect rule found in site config")
	}
	start := loc[1]
	end := start
	for end < len(text) {
		c := text[end]
		if c == ';' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		end++
	}
	if end == start {
		return 0, "", fmt.Errorf("redirect rule has an empty target")
	}
	return start, text[start:end], nil
}

// splitTarget divides a redirect target into host, optional port digits, and
// the trailing path/variable part. The host ends at the first ':', '/', '$'
// or '?'. A ':' not followed by digits is left as part of the remainder.
func splitTarget(target string) (host, portDigits, rest string) {
	hostEnd := len(target)
	for i := 0; i < len(target); i++ {
		c := target[i]
		if c == ':' || c == '/' || c == '$' || c == '?' {
			hostEnd = i
			break
		}
	}
	host = target[:hostEnd]
	rest = target[hostEnd:]
	if strings.HasPrefix(rest, ":") {
		i := 1
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i > 1 {
			portDigits = rest[1:i]
			rest = rest[i:]
		}
	}
	return host, portDigits, rest
}

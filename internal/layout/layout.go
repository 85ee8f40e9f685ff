package layout

import "path/filepath"

// Paths pins down where trojanup reads and writes host state. The defaults
// are part of the tool's contract; tests point them at a temp directory.
type Paths struct {
	TrojanConfig     string // proxy server JSON config
	SystemdUnit      string // trojan service unit file
	NginxAvailable   string // sites-available directory
	NginxEnabled     string // sites-enabled directory
	NginxDefaultSite string
	WebRoot          string // parent of per-domain placeholder directories
	LetsEncryptLive  string // parent of per-domain certificate bundles
}

func Default() Paths {
	return Paths{
		TrojanConfig:     "/etc/trojan/config.json",
		SystemdUnit:      "/etc/systemd/system/trojan.service",
		NginxAvailable:   "/etc/nginx/sites-available",
		NginxEnabled:     "/etc/nginx/sites-enabled",
		NginxDefaultSite: "/etc/nginx/sites-enabled/default",
		WebRoot:          "/var/www",
		LetsEncryptLive:  "/etc/letsencrypt/live",
	}
}

// SiteFile returns the sites-available path for a domain.
func (p Paths) SiteFile(domain string) string {
	return filepath.Join(p.NginxAvailable, domain)
}

// SiteLink returns the sites-enabled symlink path for a domain.
func (p Paths) SiteLink(domain string) string {
	return filepath.Join(p.NginxEnabled, domain)
}

// DomainRoot returns the placeholder web root for a domain.
func (p Paths) DomainRoot(domain string) string {
	return filepath.Join(p.WebRoot, domain)
}

// CertFile returns the fullchain path for a domain.
func (p Paths) CertFile(domain string) string {
	return filepath.Join(p.LetsEncryptLive, domain, "fullchain.pem")
}

// KeyFile returns the private key path for a domain.
func (p Paths) KeyFile(domain string) string {
	return filepath.Join(p.LetsEncryptLive, domain, "privkey.pem")
}

// Package trojancfg reads and writes the trojan server's JSON config as a
// typed structure. The port-change workflow mutates the struct and saves it
// back; no line-oriented text substitution is involved.
package trojancfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config mirrors the trojan server config schema, limited to the fields this
// tool manages.
type Config struct {
	RunType    string   `json:"run_type"`
	LocalAddr  string   `json:"local_addr"`
	LocalPort  int      `json:"local_port"`
	RemoteAddr string   `json:"remote_addr"`
	RemotePort int      `json:"remote_port"`
	Password   []string `json:"password"`
	SSL        SSL      `json:"ssl"`
	Router     Router   `json:"router"`
}

type SSL struct {
	Cert         string `json:"cert"`
	Key          string `json:"key"`
	FallbackPort int    `json:"fallback_port"`
}

type Router struct {
	Enabled bool `json:"enabled"`
}

// ErrNotInstalled reports a missing config file, which means there is no
// prior installation to operate on.
var ErrNotInstalled = errors.New("trojan config not found")

// New returns the server config the installer writes for a fresh setup.
func New(port int, password, certFile, keyFile string) Config {
	return Config{
		RunType:    "server",
		LocalAddr:  "0.0.0.0",
		LocalPort:  port,
		RemoteAddr: "127.0.0.1",
		RemotePort: 8080,
		Password:   []string{password},
		SSL: SSL{
			Cert:         certFile,
			Key:          keyFile,
			FallbackPort: 80,
		},
		Router: Router{Enabled: false},
	}
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrNotInstalled, path)
		}
		return Config{}, fmt.Errorf("read trojan config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse trojan config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to a temp file in the target directory and renames
// it over path, so an interrupted write never leaves a half-written config.
func Save(cfg Config, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace trojan config: %w", err)
	}
	return nil
}

// Marshal renders the config as indented JSON with a trailing newline.
func Marshal(cfg Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode trojan config: %w", err)
	}
	return append(data, '\n'), nil
}

// Domain extracts the domain from the certificate path, e.g.
// /etc/letsencrypt/live/example.com/fullchain.pem -> example.com.
func (c Config) Domain() (string, error) {
	dir := filepath.Dir(strings.TrimSpace(c.SSL.Cert))
	domain := filepath.Base(dir)
	if domain == "" || domain == "." || domain == string(filepath.Separator) {
		return "", fmt.Errorf("cannot determine domain from cert path %q", c.SSL.Cert)
	}
	return domain, nil
}

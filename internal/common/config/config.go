package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/obentoo/kpm/internal/apt"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format: use .yaml, .yml or .toml")
	ErrInvalidStrategy   = errors.New("invalid connectivity strategy: must be 'http' or 'socket'")
	ErrEmptyKeyserver    = errors.New("keys.keyserver must not be empty")
	ErrEmptyInstallPath  = errors.New("install.path must not be empty")
)

// Config represents the application configuration
type Config struct {
	Apt          AptConfig          `yaml:"apt" toml:"apt"`
	Keys         KeysConfig         `yaml:"keys" toml:"keys"`
	Sources      SourcesConfig      `yaml:"sources" toml:"sources"`
	Connectivity ConnectivityConfig `yaml:"connectivity" toml:"connectivity"`
	SelfUpdate   SelfUpdateConfig   `yaml:"self_update" toml:"self_update"`
	Install      InstallConfig      `yaml:"install" toml:"install"`
	Log          LogConfig          `yaml:"log" toml:"log"`
}

// AptConfig holds package manager binaries and system file locations
type AptConfig struct {
	AptGet      string `yaml:"apt_get" toml:"apt_get"`
	AptCache    string `yaml:"apt_cache" toml:"apt_cache"`
	AptKey      string `yaml:"apt_key" toml:"apt_key"`
	AptMark     string `yaml:"apt_mark" toml:"apt_mark"`
	DpkgQuery   string `yaml:"dpkg_query" toml:"dpkg_query"`
	SourcesList string `yaml:"sources_list" toml:"sources_list"`
	SourcesDir  string `yaml:"sources_dir" toml:"sources_dir"`
	OSRelease   string `yaml:"os_release" toml:"os_release"`
}

// KeysConfig holds signing key import settings
type KeysConfig struct {
	Keyserver string `yaml:"keyserver" toml:"keyserver"`
	Dirmngr   string `yaml:"dirmngr" toml:"dirmngr"`
}

// SourcesConfig describes the vendor mirror check run before upgrading
type SourcesConfig struct {
	VendorDomain string `yaml:"vendor_domain" toml:"vendor_domain"`
	VendorID     string `yaml:"vendor_id" toml:"vendor_id"`
}

// ConnectivityConfig selects and tunes the connectivity probe
type ConnectivityConfig struct {
	Strategy string        `yaml:"strategy" toml:"strategy"` // "http" or "socket"
	URL      string        `yaml:"url" toml:"url"`
	Expected string        `yaml:"expected" toml:"expected"`
	Address  string        `yaml:"address" toml:"address"`
	Host     string        `yaml:"host" toml:"host"`
	Timeout  time.Duration `yaml:"timeout" toml:"timeout"`
}

// SelfUpdateConfig holds release lookup settings
type SelfUpdateConfig struct {
	APIURL       string        `yaml:"api_url" toml:"api_url"`
	Repository   string        `yaml:"repository" toml:"repository"`
	Asset        string        `yaml:"asset" toml:"asset"`
	CheckOnStart bool          `yaml:"check_on_start" toml:"check_on_start"`
	Timeout      time.Duration `yaml:"timeout" toml:"timeout"`
}

// InstallConfig holds the --install_kpm destination
type InstallConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LogConfig holds file logging settings
type LogConfig struct {
	File    string `yaml:"file" toml:"file"` // empty selects the default location
	Disable bool   `yaml:"disable" toml:"disable"`
}

// Default returns the built-in configuration
func Default() *Config {
	bin := apt.DefaultBinaries()
	return &Config{
		Apt: AptConfig{
			AptGet:      bin.AptGet,
			AptCache:    bin.AptCache,
			AptKey:      bin.AptKey,
			AptMark:     bin.AptMark,
			DpkgQuery:   bin.DpkgQuery,
			SourcesList: "/etc/apt/sources.list",
			SourcesDir:  "/etc/apt/sources.list.d",
			OSRelease:   "/etc/os-release",
		},
		Keys: KeysConfig{
			Keyserver: "keyserver.ubuntu.com",
			Dirmngr:   bin.Dirmngr,
		},
		Sources: SourcesConfig{
			VendorDomain: "ubuntu.com",
			VendorID:     "ubuntu",
		},
		Connectivity: ConnectivityConfig{
			Strategy: "http",
			URL:      "http://detectportal.firefox.com/success.txt",
			Expected: "success\n",
			Address:  "1.1.1.1:53",
			Host:     "github.com",
			Timeout:  5 * time.Second,
		},
		SelfUpdate: SelfUpdateConfig{
			APIURL:       "https://api.github.com",
			Repository:   "K4YT3X/KPM",
			Asset:        "kpm",
			CheckOnStart: true,
			Timeout:      30 * time.Second,
		},
		Install: InstallConfig{
			Path: "/usr/bin/kpm",
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. /etc/kpm/config.yaml
// 2. /etc/kpm/config.toml
// 3. $XDG_CONFIG_HOME/kpm/config.yaml (or ~/.config/kpm/config.yaml)
func ConfigPaths() []string {
	paths := []string{
		"/etc/kpm/config.yaml",
		"/etc/kpm/config.toml",
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfig = filepath.Join(home, ".config")
		}
	}
	if xdgConfig != "" {
		paths = append(paths, filepath.Join(xdgConfig, "kpm", "config.yaml"))
	}

	return paths
}

// FindConfigPath returns the first existing config file path, or "" when
// none of the candidates exist
func FindConfigPath(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads configuration from explicit when set, otherwise from the first
// existing file in ConfigPaths. Without any file the defaults are returned.
func Load(explicit string) (*Config, error) {
	if explicit != "" {
		return LoadFrom(explicit)
	}

	path := FindConfigPath(ConfigPaths())
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path. Values missing
// from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes configuration to a specific file path. The format follows
// the file extension.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		out, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		data = out
	case ".toml":
		var buf strings.Builder
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return err
		}
		data = []byte(buf.String())
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would make a run fail later in a confusing way
func (c *Config) Validate() error {
	switch c.Connectivity.Strategy {
	case "http", "socket":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStrategy, c.Connectivity.Strategy)
	}
	if strings.TrimSpace(c.Keys.Keyserver) == "" {
		return ErrEmptyKeyserver
	}
	if strings.TrimSpace(c.Install.Path) == "" {
		return ErrEmptyInstallPath
	}
	return nil
}

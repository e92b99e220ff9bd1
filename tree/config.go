package tree

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

// ConfigFileName is the name of the file containing the configuration
// of the index. It lives at the root of the index
const ConfigFileName = "config.json"

// CratesIORegistry is the URL of the index of crates.io
const CratesIORegistry = "https://github.com/rust-lang/crates.io-index"

// matches the markers of a download template, like {crate} or
// {sha256-checksum}
var templateMarker = regexp.MustCompile(`\{[a-z0-9-]+\}`)

// Config represents the configuration of an index, as read by the
// package managers
type Config struct {
	download          string
	api               string
	allowedRegistries []string
}

// ConfigOptions represents all the optional data of a Config
type ConfigOptions struct {
	// API is the base URL of the registry's web API
	API string
	// AllowedRegistries contains the URL of the other indexes the crates
	// of this index are allowed to depend on
	AllowedRegistries []string
	// AllowCratesIO adds crates.io to the list of allowed registries
	AllowCratesIO bool
}

// NewConfig returns a new validated Config.
// download is the URL used to download a crate, it may contain the
// markers {crate} and {version}
func NewConfig(download string, opts ConfigOptions) (*Config, error) {
	cfg := &Config{
		download: download,
		api:      opts.API,
	}
	cfg.allowedRegistries = append(cfg.allowedRegistries, opts.AllowedRegistries...)
	if opts.AllowCratesIO {
		cfg.allowedRegistries = append(cfg.allowedRegistries, CratesIORegistry)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if err := checkURL(templateMarker.ReplaceAllString(cfg.download, "x")); err != nil {
		return fmt.Errorf("download URL %q: %w", cfg.download, err)
	}
	if cfg.api != "" {
		if err := checkURL(cfg.api); err != nil {
			return fmt.Errorf("API URL %q: %w", cfg.api, err)
		}
	}
	for _, r := range cfg.allowedRegistries {
		if err := checkURL(r); err != nil {
			return fmt.Errorf("registry URL %q: %w", r, err)
		}
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrConfigInvalid)
	}
	if !u.IsAbs() {
		return fmt.Errorf("URL must be absolute: %w", ErrConfigInvalid)
	}
	// file:///path has no host
	if u.Host == "" && u.Scheme != "file" {
		return fmt.Errorf("URL has no host: %w", ErrConfigInvalid)
	}
	return nil
}

// Download returns the URL template used to download a crate
func (cfg *Config) Download() string {
	return cfg.download
}

// API returns the URL of the API of the registry, if any
func (cfg *Config) API() (api string, ok bool) {
	return cfg.api, cfg.api != ""
}

// AllowedRegistries returns a copy of the list of registries the
// crates are allowed to depend on
func (cfg *Config) AllowedRegistries() []string {
	out := make([]string, len(cfg.allowedRegistries))
	copy(out, cfg.allowedRegistries)
	return out
}

type configJSON struct {
	Download          string   `json:"dl"`
	API               string   `json:"api,omitempty"`
	AllowedRegistries []string `json:"allowed-registries,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (cfg *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		Download:          cfg.download,
		API:               cfg.api,
		AllowedRegistries: cfg.allowedRegistries,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// The URLs are loaded as they are, only NewConfig validates them
func (cfg *Config) UnmarshalJSON(data []byte) error {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Download == "" {
		return fmt.Errorf("missing dl: %w", ErrConfigInvalid)
	}
	*cfg = Config{
		download:          raw.Download,
		api:               raw.API,
		allowedRegistries: raw.AllowedRegistries,
	}
	return nil
}

// String returns the config as it is written on disk
func (cfg *Config) String() string {
	// Marshalling a struct of strings cannot fail
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}

// writeConfig persists the config at the root of the index
func writeConfig(fs afero.Fs, root string, cfg *Config) error {
	p := filepath.Join(root, ConfigFileName)
	if err := afero.WriteFile(fs, p, []byte(cfg.String()), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", p, err)
	}
	return nil
}

// readConfig loads the config stored at the root of the index
func readConfig(fs afero.Fs, root string) (*Config, error) {
	p := filepath.Join(root, ConfigFileName)
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", p, err)
	}
	cfg := &Config{}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", p, err)
	}
	return cfg, nil
}

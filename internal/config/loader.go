package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".collecter"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// HostConfig holds fetch overrides for a single image host.
// Some CDNs refuse downloads unless the request carries the referer of the
// page that embeds the image, or specific extra headers; these overrides
// let a run satisfy such checks without changing the code.
type HostConfig struct {
	// Referer overrides the default referer header for this host.
	Referer string `yaml:"referer"`

	// Headers are extra request headers sent to this host.
	Headers map[string]string `yaml:"headers"`
}

// File is the parsed YAML configuration file.
type File struct {
	// Defaults apply to every host without a specific entry.
	Defaults HostConfig `yaml:"defaults"`

	// Hosts maps a hostname to its fetch overrides.
	Hosts map[string]HostConfig `yaml:"hosts"`
}

// ForURL returns the merged host configuration for a candidate URL:
// the defaults, overridden by the host-specific entry when one exists.
func (f *File) ForURL(rawURL string) HostConfig {
	if f == nil {
		return HostConfig{}
	}

	// Copy the default headers so a host merge never mutates the
	// shared defaults map.
	merged := f.Defaults
	if len(f.Defaults.Headers) > 0 {
		merged.Headers = make(map[string]string, len(f.Defaults.Headers))
		for k, v := range f.Defaults.Headers {
			merged.Headers[k] = v
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return merged
	}

	host, ok := f.Hosts[strings.ToLower(u.Hostname())]
	if !ok {
		return merged
	}

	if host.Referer != "" {
		merged.Referer = host.Referer
	}
	if len(host.Headers) > 0 {
		if merged.Headers == nil {
			merged.Headers = make(map[string]string)
		}
		for k, v := range host.Headers {
			merged.Headers[k] = v
		}
	}
	return merged
}

// LoadConfigFile loads host configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound so callers can
// decide whether a missing file is an error (explicit path) or not
// (default search locations).
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Hosts == nil {
		cf.Hosts = make(map[string]HostConfig)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in order:
// the explicit path if given, .collecter in the current directory, then
// .collecter in the user's home directory.
// Returns the path if found, or empty string if not.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Package config holds the collecter configuration: compiled-in defaults,
// the flat Config struct populated from CLI flags, and the optional
// .collecter YAML file with per-host fetch overrides.
package config

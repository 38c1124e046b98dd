// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads mcpm's settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tombee/mcpm/internal/log"
)

// Config is the content of settings.yaml.
type Config struct {
	Log LogConfig `yaml:"log" json:"log"`

	// RegistryPath is the server registry file.
	// Default: <config dir>/registry.json
	RegistryPath string `yaml:"registry_path" json:"registry_path"`

	Host HostConfig `yaml:"host" json:"host"`

	// PackageRegistryURL is the remote package registry used by install and search.
	PackageRegistryURL string `yaml:"package_registry_url" json:"package_registry_url"`

	// CallTimeout bounds a single tool invocation.
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout"`

	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// LogConfig configures logging. Environment variables override it.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// HostConfig selects the host application.
type HostConfig struct {
	// Profile is claude or generic.
	Profile string `yaml:"profile" json:"profile"`

	// ConfigPath overrides the platform's host configuration path.
	ConfigPath string `yaml:"config_path,omitempty" json:"config_path,omitempty"`
}

// TracingConfig configures invocation spans.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Exporter is console or none.
	Exporter string `yaml:"exporter" json:"exporter"`
}

const (
	// DefaultPackageRegistryURL is the public package registry.
	DefaultPackageRegistryURL = "https://registry.mcphub.io"

	// DefaultCallTimeout bounds a tool invocation when nothing is set.
	DefaultCallTimeout = 60 * time.Second
)

// Default returns the configuration used when no settings file exists.
func Default() *Config {
	cfg := &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: string(log.FormatText),
		},
		Host: HostConfig{
			Profile: "claude",
		},
		PackageRegistryURL: DefaultPackageRegistryURL,
		CallTimeout:        DefaultCallTimeout,
		Tracing: TracingConfig{
			Exporter: "console",
		},
	}
	if dir, err := ConfigDir(); err == nil {
		cfg.RegistryPath = filepath.Join(dir, "registry.json")
	}
	return cfg
}

// applyDefaults fills in zero values so minimal files work.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.RegistryPath == "" {
		c.RegistryPath = defaults.RegistryPath
	}
	if c.Host.Profile == "" {
		c.Host.Profile = defaults.Host.Profile
	}
	if c.PackageRegistryURL == "" {
		c.PackageRegistryURL = defaults.PackageRegistryURL
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = defaults.CallTimeout
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = defaults.Tracing.Exporter
	}
}

// loadFromEnv overrides settings from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("MCPM_REGISTRY_PATH"); val != "" {
		c.RegistryPath = val
	}
	if val := os.Getenv("MCPM_HOST_CONFIG"); val != "" {
		c.Host.ConfigPath = val
	}
	if val := os.Getenv("MCPM_HOST_PROFILE"); val != "" {
		c.Host.Profile = val
	}
	if val := os.Getenv("MCPM_PACKAGE_REGISTRY_URL"); val != "" {
		c.PackageRegistryURL = val
	}
	if val := os.Getenv("MCPM_CALL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.CallTimeout = d
		}
	}
	if val := os.Getenv("MCPM_TRACING"); val == "1" || val == "true" {
		c.Tracing.Enabled = true
	}
}

// expandPaths resolves ~/ in path settings.
func (c *Config) expandPaths() error {
	var err error
	if c.RegistryPath, err = ExpandHome(c.RegistryPath); err != nil {
		return err
	}
	if c.Host.ConfigPath, err = ExpandHome(c.Host.ConfigPath); err != nil {
		return err
	}
	return nil
}

// Validate checks that the configuration is valid. Every problem is reported.
func (c *Config) Validate() error {
	var errs []string

	if !log.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, error], got %q", c.Log.Level))
	}
	switch log.Format(c.Log.Format) {
	case log.FormatJSON, log.FormatText:
	default:
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if c.RegistryPath == "" {
		errs = append(errs, "registry_path could not be determined")
	}

	switch strings.ToLower(c.Host.Profile) {
	case "claude", "generic":
	default:
		errs = append(errs, fmt.Sprintf("host.profile must be one of [claude, generic], got %q", c.Host.Profile))
	}

	if !strings.HasPrefix(c.PackageRegistryURL, "http://") && !strings.HasPrefix(c.PackageRegistryURL, "https://") {
		errs = append(errs, fmt.Sprintf("package_registry_url must be an http(s) URL, got %q", c.PackageRegistryURL))
	}

	if c.CallTimeout < 0 {
		errs = append(errs, fmt.Sprintf("call_timeout must not be negative, got %v", c.CallTimeout))
	}

	switch c.Tracing.Exporter {
	case "console", "none":
	default:
		errs = append(errs, fmt.Sprintf("tracing.exporter must be one of [console, none], got %q", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// ValidationError lists every invalid setting.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}

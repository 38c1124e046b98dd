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


// Package httpclient builds the HTTP client mcpm uses for the package
// registry: bounded timeouts, retries with backoff for safe methods and
// debug logging of every request with credentials removed from the URL.
package httpclient

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config configures a client.
type Config struct {
	// Timeout bounds a whole request including retries. Must be > 0.
	Timeout time.Duration

	// RetryAttempts is the number of retries after the first try. 0 disables retries.
	RetryAttempts int

	// RetryBackoff is the delay before the first retry; it doubles per attempt.
	RetryBackoff time.Duration

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// UserAgent is sent when a request has none. Required.
	UserAgent string

	// Logger receives one record per attempt (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns the settings used for the package registry.
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		RetryAttempts: 2,
		RetryBackoff:  200 * time.Millisecond,
		MaxBackoff:    5 * time.Second,
		UserAgent:     "mcpm",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts must be >= 0, got %d", c.RetryAttempts)
	}
	if c.RetryAttempts > 0 {
		if c.RetryBackoff <= 0 {
			return fmt.Errorf("retry backoff must be > 0 when retries are enabled, got %v", c.RetryBackoff)
		}
		if c.MaxBackoff < c.RetryBackoff {
			return fmt.Errorf("max backoff (%v) must be >= retry backoff (%v)", c.MaxBackoff, c.RetryBackoff)
		}
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent is required")
	}
	return nil
}

// New creates a client from cfg.
func New(cfg Config) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	var transport http.RoundTripper = &loggingTransport{base: base, userAgent: cfg.UserAgent, logger: logger}
	if cfg.RetryAttempts > 0 {
		transport = newRetryTransport(transport, cfg)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}, nil
}

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

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tombee/mcpm/internal/httpclient"
)

// DefaultBaseURL is the public package registry.
const DefaultBaseURL = "https://registry.mcphub.io"

// DefaultTimeout bounds each registry request.
const DefaultTimeout = 30 * time.Second

// Client talks to the remote package registry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another registry.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if raw == "" {
			return nil
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid package registry URL %q", raw)
		}
		c.baseURL = strings.TrimRight(raw, "/")
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger for request logging on the default HTTP client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// New creates a registry client. Without WithHTTPClient, requests go
// through an httpclient with retries for transient registry failures.
func New(opts ...Option) (*Client, error) {
	c := &Client{baseURL: DefaultBaseURL, userAgent: "mcpm"}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.httpClient == nil {
		cfg := httpclient.DefaultConfig()
		cfg.Timeout = DefaultTimeout
		cfg.UserAgent = c.userAgent
		cfg.Logger = c.logger
		client, err := httpclient.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		c.httpClient = client
	}
	return c, nil
}

// BaseURL returns the registry base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetPackage fetches the description of one package.
func (c *Client) GetPackage(ctx context.Context, id string) (*PackageInfo, error) {
	if id == "" {
		return nil, fmt.Errorf("package id is required")
	}
	var pkg PackageInfo
	if err := c.getJSON(ctx, "/registry/"+url.PathEscape(id), &pkg, "fetch package info"); err != nil {
		return nil, err
	}
	if pkg.ID == "" {
		pkg.ID = id
	}
	return &pkg, nil
}

// ListPackages returns every package in the registry.
func (c *Client) ListPackages(ctx context.Context) ([]PackageInfo, error) {
	var pkgs []PackageInfo
	if err := c.getJSON(ctx, "/registry", &pkgs, "fetch package list"); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// SearchPackages returns the packages matching query. An empty query lists
// every package.
func (c *Client) SearchPackages(ctx context.Context, query string) ([]PackageInfo, error) {
	if strings.TrimSpace(query) == "" {
		return c.ListPackages(ctx)
	}
	var pkgs []PackageInfo
	if err := c.getJSON(ctx, "/search?q="+url.QueryEscape(query), &pkgs, "search packages"); err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any, action string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Action: action, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode registry response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx registry response.
type StatusError struct {
	Action     string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to %s: %d %s", e.Action, e.StatusCode, e.Status)
}

// NotFound reports whether the registry answered 404.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

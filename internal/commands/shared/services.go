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


package shared

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/tombee/mcpm/internal/catalog"
	"github.com/tombee/mcpm/internal/cli/prompt"
	"github.com/tombee/mcpm/internal/config"
	"github.com/tombee/mcpm/internal/hostconfig"
	"github.com/tombee/mcpm/internal/log"
	"github.com/tombee/mcpm/internal/mcp"
	"github.com/tombee/mcpm/internal/reconcile"
	"github.com/tombee/mcpm/internal/registry"
	"github.com/tombee/mcpm/internal/tracing"
)

// Services bundles the collaborators commands work with.
type Services struct {
	Config   *config.Config
	Logger   *slog.Logger
	Platform hostconfig.Platform
	Host     *hostconfig.Store
	Registry *registry.Store
	Packages *catalog.Client
	Engine   *reconcile.Engine
	Proxy    *mcp.Proxy

	tracing *tracing.Provider
}

// NewPrompter returns the prompter used by commands that ask for missing
// input. Tests replace it with a prompt.MockPrompter.
var NewPrompter = func() prompt.Prompter {
	return prompt.NewSurveyPrompter(!IsNonInteractive())
}

// GOOS selects the host platform. Tests override it.
var GOOS = runtime.GOOS

// LoadServices loads settings and wires the stores, engine and proxy.
// Call Close when done so buffered spans are flushed.
func LoadServices() (*Services, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewValidationError("failed to load settings", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	tp, err := tracing.Setup(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Exporter:       cfg.Tracing.Exporter,
		ServiceName:    "mcpm",
		ServiceVersion: version,
	})
	if err != nil {
		return nil, NewFailureError("failed to set up tracing", err)
	}

	profile, err := hostconfig.ParseProfile(cfg.Host.Profile)
	if err != nil {
		return nil, NewValidationError("invalid host profile", err)
	}
	platform, err := hostconfig.DetectPlatform(GOOS, profile)
	if err != nil {
		return nil, err
	}
	host, err := hostconfig.OpenStore(platform, cfg.Host.ConfigPath)
	if err != nil {
		return nil, err
	}

	reg := registry.NewStore(cfg.RegistryPath)

	packages, err := catalog.New(
		catalog.WithBaseURL(cfg.PackageRegistryURL),
		catalog.WithUserAgent("mcpm/"+version),
		catalog.WithLogger(log.WithComponent(logger, "catalog")),
	)
	if err != nil {
		return nil, NewValidationError("invalid package registry", err)
	}

	engine, err := reconcile.New(reconcile.Config{
		Host:     host,
		Registry: reg,
		Packages: packages,
		Logger:   log.WithComponent(logger, "reconcile"),
	})
	if err != nil {
		return nil, err
	}

	proxy := mcp.NewProxy(mcp.ProxyConfig{
		Resolver: engine,
		Timeout:  cfg.CallTimeout,
		Logger:   log.WithComponent(logger, "proxy"),
		Tracer:   tp.Tracer(mcp.TracerName),
	})

	logger.Debug("services loaded",
		slog.String("host_config", host.Path()),
		slog.String("registry", reg.Path()),
		slog.String("platform", platform.Name()))

	return &Services{
		Config:   cfg,
		Logger:   logger,
		Platform: platform,
		Host:     host,
		Registry: reg,
		Packages: packages,
		Engine:   engine,
		Proxy:    proxy,
		tracing:  tp,
	}, nil
}

// WithServices loads services, runs fn and closes them again.
func WithServices(ctx context.Context, fn func(*Services) error) error {
	svc, err := LoadServices()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(ctx); err != nil {
			svc.Logger.Warn("failed to flush traces", log.Error(err))
		}
	}()
	return fn(svc)
}

// Close flushes and shuts down tracing.
func (s *Services) Close(ctx context.Context) error {
	if s == nil || s.tracing == nil {
		return nil
	}
	return s.tracing.Shutdown(ctx)
}

// newLogger builds the logger: settings first, then the environment, then
// --debug, --verbose and --quiet.
func newLogger(cfg *config.Config) *slog.Logger {
	lc := log.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = log.Format(cfg.Log.Format)
	log.ApplyEnv(lc)

	switch {
	case GetDebug():
		lc.Level = "debug"
		lc.AddSource = true
	case GetVerbose():
		if log.ParseLevel(lc.Level) > slog.LevelInfo {
			lc.Level = "info"
		}
	case GetQuiet():
		lc.Level = "error"
	}
	return log.New(lc)
}

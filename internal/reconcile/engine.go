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

// Package reconcile keeps the local registry and the host configuration
// file consistent.
//
// The host file holds only the enabled servers, and only their command and
// args. The registry holds every server ever seen with its full definition.
// Enablement is never stored: a server is enabled iff its host key is
// present in the host file at the time of the query. Reads heal drift by
// backfilling host keys the registry does not know yet.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/tombee/mcpm/internal/catalog"
	"github.com/tombee/mcpm/internal/mcp"
)

// HostStore is the host application's configuration file.
type HostStore interface {
	Servers() (map[string]mcp.HostConfigEntry, error)
	Get(key string) (mcp.HostConfigEntry, bool, error)
	Has(key string) (bool, error)
	Put(key string, entry mcp.HostConfigEntry) error
	Delete(key string) (bool, error)
}

// Registry is the local store of server definitions.
type Registry interface {
	List() ([]mcp.ServerDefinition, error)
	Get(name string) (mcp.ServerDefinition, bool, error)
	Put(def mcp.ServerDefinition) error
	PutIfAbsent(def mcp.ServerDefinition) (bool, error)
	PutAllIfAbsent(defs []mcp.ServerDefinition) ([]string, error)
	Delete(name string) (bool, error)
}

// PackageResolver looks up installable packages.
type PackageResolver interface {
	GetPackage(ctx context.Context, id string) (*catalog.PackageInfo, error)
}

// Config configures an Engine.
type Config struct {
	Host     HostStore
	Registry Registry

	// Packages is optional; InstallFromPackage fails without it.
	Packages PackageResolver

	Logger *slog.Logger
}

// Engine applies add, remove, enable and disable across both stores.
type Engine struct {
	host     HostStore
	registry Registry
	packages PackageResolver
	logger   *slog.Logger

	// mu serializes operations within the process. Other processes can
	// still race; the last write wins.
	mu sync.Mutex
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Host == nil {
		return nil, fmt.Errorf("host store is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		host:     cfg.Host,
		registry: cfg.Registry,
		packages: cfg.Packages,
		logger:   logger,
	}, nil
}

// hostEntry is what the host file gets for def: the command and the args
// with placeholders resolved against the stored parameters.
func hostEntry(def mcp.ServerDefinition) mcp.HostConfigEntry {
	return mcp.HostConfigEntry{
		Command: def.AppConfig.Command,
		Args:    mcp.SubstituteArgs(def.AppConfig.Args, def.Parameters),
	}
}

// Add registers a new server and enables it.
func (e *Engine) Add(name string, boot mcp.BootConfig, from mcp.Provenance) (mcp.ServerDefinition, error) {
	def := mcp.ServerDefinition{
		Name:      name,
		AppConfig: boot.Clone(),
		From:      from,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.add(def); err != nil {
		return mcp.ServerDefinition{}, err
	}
	return def, nil
}

// RegisterSelf adds mcpm's own management server.
func (e *Engine) RegisterSelf(name string, boot mcp.BootConfig) (mcp.ServerDefinition, error) {
	return e.Add(name, boot, mcp.ProvenanceSelf)
}

// add writes the registry first and the host file second. A failed host
// write rolls the registry back to what it held before.
func (e *Engine) add(def mcp.ServerDefinition) error {
	if err := mcp.ValidateServerName(def.Name); err != nil {
		return err
	}
	if err := mcp.ValidateBootConfig(def.AppConfig); err != nil {
		return err
	}
	if !def.From.Valid() {
		return mcp.NewMCPError(mcp.ErrorCodeValidation, fmt.Sprintf("invalid provenance for server %q", def.Name))
	}

	key := def.HostKey()
	exists, err := e.host.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return mcp.ErrServerAlreadyExists(key)
	}

	previous, hadPrevious, err := e.registry.Get(def.Name)
	if err != nil {
		return err
	}

	if err := e.registry.Put(def); err != nil {
		return err
	}

	if err := e.host.Put(key, hostEntry(def)); err != nil {
		var rollbackErr error
		if hadPrevious {
			rollbackErr = e.registry.Put(previous)
		} else {
			_, rollbackErr = e.registry.Delete(def.Name)
		}
		if rollbackErr != nil {
			e.logger.Error("failed to roll back registry after host write failure",
				slog.String("server", def.Name),
				slog.Any("error", rollbackErr))
		}
		return fmt.Errorf("failed to enable server %q in host config: %w", def.Name, err)
	}

	e.logger.Info("server added",
		slog.String("server", def.Name),
		slog.String("from", def.From.String()))
	return nil
}

// Remove deletes a server from the registry and, when present, from the
// host file.
func (e *Engine) Remove(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok, err := e.registry.Get(name)
	if err != nil {
		return err
	}
	if !ok {
		return mcp.ErrServerNotFound(name)
	}

	if _, err := e.registry.Delete(name); err != nil {
		return err
	}

	// The host delete is best effort once the registry record is gone.
	deleted, err := e.host.Delete(def.HostKey())
	if err != nil {
		e.logger.Warn("failed to remove host entry",
			slog.String("server", name),
			slog.String("key", def.HostKey()),
			slog.Any("error", err))
	}

	e.logger.Info("server removed",
		slog.String("server", name),
		slog.Bool("was_enabled", deleted))
	return nil
}

// Disable removes a server's host entry and keeps its registry record so
// it can be enabled again.
func (e *Engine) Disable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, known, err := e.registry.Get(name)
	if err != nil {
		return err
	}
	key := name
	if known {
		key = def.HostKey()
	}

	entry, ok, err := e.host.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return mcp.ErrHostEntryNotFound(name)
	}

	// A tracked definition is authoritative; only untracked entries are recorded.
	if !known {
		if _, err := e.registry.PutIfAbsent(mcp.ServerDefinition{
			Name:      name,
			AppConfig: entry.BootConfig(),
			From:      mcp.ProvenanceLocal,
		}); err != nil {
			return err
		}
	}

	if _, err := e.host.Delete(key); err != nil {
		return err
	}

	e.logger.Info("server disabled", slog.String("server", name))
	return nil
}

// Enable writes a registered server back to the host file. A server whose
// host key is already present is rejected rather than overwritten.
func (e *Engine) Enable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok, err := e.registry.Get(name)
	if err != nil {
		return err
	}
	if !ok {
		return mcp.ErrServerNotFound(name)
	}

	key := def.HostKey()
	exists, err := e.host.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return mcp.ErrServerAlreadyExists(key)
	}

	if err := e.host.Put(key, hostEntry(def)); err != nil {
		return err
	}

	e.logger.Info("server enabled", slog.String("server", name))
	return nil
}

// ListAllWithStatus returns every known server sorted by name. Host keys
// the registry does not know are recorded with local provenance first.
func (e *Engine) ListAllWithStatus() ([]mcp.ServerStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listAll()
}

func (e *Engine) listAll() ([]mcp.ServerStatus, error) {
	hostServers, err := e.host.Servers()
	if err != nil {
		return nil, err
	}
	defs, err := e.registry.List()
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]bool, len(defs)*2)
	for _, def := range defs {
		tracked[def.Name] = true
		if def.HostAlias != "" {
			tracked[def.HostAlias] = true
		}
	}

	var untracked []mcp.ServerDefinition
	for _, key := range slices.Sorted(maps.Keys(hostServers)) {
		if tracked[key] {
			continue
		}
		untracked = append(untracked, mcp.ServerDefinition{
			Name:      key,
			AppConfig: hostServers[key].BootConfig(),
			From:      mcp.ProvenanceLocal,
		})
	}

	if len(untracked) > 0 {
		added, err := e.registry.PutAllIfAbsent(untracked)
		if err != nil {
			return nil, fmt.Errorf("failed to record host servers in the registry: %w", err)
		}
		if len(added) > 0 {
			e.logger.Info("recorded servers found in host config", slog.Any("servers", added))
		}
		defs = append(defs, untracked...)
	}

	statuses := make([]mcp.ServerStatus, 0, len(defs))
	for _, def := range defs {
		_, byName := hostServers[def.Name]
		enabled := byName
		if !enabled && def.HostAlias != "" {
			_, enabled = hostServers[def.HostAlias]
		}
		statuses = append(statuses, mcp.ServerStatus{Definition: def, Enabled: enabled})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Definition.Name < statuses[j].Definition.Name
	})
	return statuses, nil
}

// ListEnabled returns the servers present in the host file.
func (e *Engine) ListEnabled() ([]mcp.ServerStatus, error) {
	return e.filter(true)
}

// ListDisabled returns the registered servers absent from the host file.
func (e *Engine) ListDisabled() ([]mcp.ServerStatus, error) {
	return e.filter(false)
}

func (e *Engine) filter(enabled bool) ([]mcp.ServerStatus, error) {
	all, err := e.ListAllWithStatus()
	if err != nil {
		return nil, err
	}
	out := make([]mcp.ServerStatus, 0, len(all))
	for _, s := range all {
		if s.Enabled == enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

// Resolve returns one server with its current enablement. Name is matched
// against registry names first and host aliases second.
func (e *Engine) Resolve(name string) (mcp.ServerStatus, error) {
	all, err := e.ListAllWithStatus()
	if err != nil {
		return mcp.ServerStatus{}, err
	}
	for _, s := range all {
		if s.Definition.Name == name {
			return s, nil
		}
	}
	for _, s := range all {
		if s.Definition.HostAlias == name {
			return s, nil
		}
	}
	return mcp.ServerStatus{}, mcp.ErrServerNotFound(name)
}

// InstallFromPackage resolves a package, checks the supplied parameters
// against its declaration and adds it with remote provenance. The package
// id becomes the server name.
func (e *Engine) InstallFromPackage(ctx context.Context, id string, supplied map[string]string) (mcp.ServerDefinition, error) {
	if e.packages == nil {
		return mcp.ServerDefinition{}, mcp.NewMCPError(mcp.ErrorCodeConfig, "no package registry configured")
	}

	pkg, err := e.packages.GetPackage(ctx, id)
	if err != nil {
		return mcp.ServerDefinition{}, fmt.Errorf("failed to resolve package %q: %w", id, err)
	}
	return e.Install(id, pkg, supplied)
}

// Install adds an already resolved package under the server name id.
func (e *Engine) Install(id string, pkg *catalog.PackageInfo, supplied map[string]string) (mcp.ServerDefinition, error) {
	def, err := DefinitionFromPackage(id, pkg, supplied)
	if err != nil {
		return mcp.ServerDefinition{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.add(def); err != nil {
		return mcp.ServerDefinition{}, err
	}
	return def, nil
}

// DefinitionFromPackage builds the definition an install would store.
// Every unknown and every missing parameter is reported, not just the
// first. Placeholders without a value stay as they are.
func DefinitionFromPackage(name string, pkg *catalog.PackageInfo, supplied map[string]string) (mcp.ServerDefinition, error) {
	var unknown []string
	for key := range supplied {
		if _, ok := pkg.Parameters[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return mcp.ServerDefinition{}, mcp.ErrUnknownParameters(name, unknown)
	}

	var missing []string
	for _, key := range pkg.RequiredParameters() {
		if supplied[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return mcp.ServerDefinition{}, mcp.ErrMissingParameters(name, missing)
	}

	def := mcp.ServerDefinition{
		Name: name,
		AppConfig: mcp.BootConfig{
			Command: pkg.CommandInfo.Command,
			Args:    mcp.SubstituteArgs(pkg.CommandInfo.Args, supplied),
		},
		From: mcp.ProvenanceRemote,
	}
	if len(pkg.CommandInfo.Env) > 0 {
		def.AppConfig.Env = maps.Clone(pkg.CommandInfo.Env)
	}
	if len(supplied) > 0 {
		def.Parameters = maps.Clone(supplied)
	}
	return def, nil
}

// SetParameters merges params into a server's stored parameters. An empty
// value removes the parameter. An enabled server's host entry is rewritten
// when the resolved args change.
func (e *Engine) SetParameters(name string, params map[string]string) (mcp.ServerDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok, err := e.registry.Get(name)
	if err != nil {
		return mcp.ServerDefinition{}, err
	}
	if !ok {
		return mcp.ServerDefinition{}, mcp.ErrServerNotFound(name)
	}

	before := hostEntry(def)
	if def.Parameters == nil {
		def.Parameters = make(map[string]string, len(params))
	}
	for k, v := range params {
		if v == "" {
			delete(def.Parameters, k)
			continue
		}
		def.Parameters[k] = v
	}
	if len(def.Parameters) == 0 {
		def.Parameters = nil
	}

	if err := e.registry.Put(def); err != nil {
		return mcp.ServerDefinition{}, err
	}

	after := hostEntry(def)
	if !sameEntry(before, after) {
		current, enabled, err := e.host.Get(def.HostKey())
		if err != nil {
			return mcp.ServerDefinition{}, err
		}
		if enabled && sameEntry(current, before) {
			if err := e.host.Put(def.HostKey(), after); err != nil {
				return mcp.ServerDefinition{}, err
			}
		}
	}

	e.logger.Info("server parameters updated", slog.String("server", name))
	return def, nil
}

func sameEntry(a, b mcp.HostConfigEntry) bool {
	return a.Command == b.Command && slices.Equal(a.Args, b.Args)
}

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

package reconcile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/mcpm/internal/catalog"
	"github.com/tombee/mcpm/internal/hostconfig"
	"github.com/tombee/mcpm/internal/mcp"
	mcptesting "github.com/tombee/mcpm/internal/mcp/testing"
	"github.com/tombee/mcpm/internal/reconcile"
	"github.com/tombee/mcpm/internal/registry"
)

type fixture struct {
	engine   *reconcile.Engine
	host     *hostconfig.Store
	registry *registry.Store
	dir      string
}

func newFixture(t *testing.T, packages reconcile.PackageResolver) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		host:     hostconfig.NewStore(filepath.Join(dir, "host", hostconfig.ConfigFileName), hostconfig.ServersKeyGeneric),
		registry: registry.NewStore(filepath.Join(dir, "mcpm", registry.FileName)),
		dir:      dir,
	}
	engine, err := reconcile.New(reconcile.Config{Host: f.host, Registry: f.registry, Packages: packages})
	require.NoError(t, err)
	f.engine = engine
	return f
}

// snapshot returns the raw contents of both files; a missing file is "".
func (f *fixture) snapshot(t *testing.T) (string, string) {
	t.Helper()
	read := func(path string) string {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return ""
		}
		require.NoError(t, err)
		return string(data)
	}
	return read(f.host.Path()), read(f.registry.Path())
}

func (f *fixture) status(t *testing.T, name string) (mcp.ServerStatus, bool) {
	t.Helper()
	all, err := f.engine.ListAllWithStatus()
	require.NoError(t, err)
	for _, s := range all {
		if s.Definition.Name == name {
			return s, true
		}
	}
	return mcp.ServerStatus{}, false
}

type fakeResolver map[string]*catalog.PackageInfo

func (r fakeResolver) GetPackage(ctx context.Context, id string) (*catalog.PackageInfo, error) {
	pkg, ok := r[id]
	if !ok {
		return nil, &catalog.StatusError{Action: "fetch package info", StatusCode: 404, Status: "Not Found"}
	}
	return pkg, nil
}

func weatherPackage() *catalog.PackageInfo {
	return &catalog.PackageInfo{
		ID:    "weather",
		Title: "Weather",
		Parameters: map[string]catalog.Parameter{
			"city":   {Type: "string", Required: true},
			"apiKey": {Type: "string", Required: true},
			"units":  {Type: "string"},
		},
		CommandInfo: catalog.CommandInfo{
			Command: "uvx",
			Args:    []string{"weather-mcp", "--city", "**city**", "--units", "**units**"},
			Env:     map[string]string{"WEATHER_API_KEY": "**apiKey**"},
		},
	}
}

// Scenarios 1-4: add, disable, enable and a call while disabled.
func TestEngine_Lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	echo := mcp.BootConfig{Command: "echo", Args: []string{"hi"}}

	_, err := f.engine.Add("foo", echo, mcp.ProvenanceLocal)
	require.NoError(t, err)

	s, ok := f.status(t, "foo")
	require.True(t, ok)
	assert.True(t, s.Enabled)

	require.NoError(t, f.engine.Disable("foo"))

	has, err := f.host.Has("foo")
	require.NoError(t, err)
	assert.False(t, has)

	s, ok = f.status(t, "foo")
	require.True(t, ok, "disabled servers stay in the registry")
	assert.False(t, s.Enabled)

	dialer := mcptesting.NewMockDialer()
	proxy := mcp.NewProxy(mcp.ProxyConfig{Resolver: f.engine, Dialer: dialer.Dial})
	_, err = proxy.CallTool(context.Background(), "foo", "anyTool", map[string]any{})
	require.Error(t, err)
	assert.True(t, mcp.IsNotFound(err))
	assert.Contains(t, err.Error(), "not available or not enabled")
	assert.Empty(t, dialer.Specs(), "no transport may be built for a disabled server")

	require.NoError(t, f.engine.Enable("foo"))

	entry, ok, err := f.host.Get("foo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mcp.HostConfigEntry{Command: "echo", Args: []string{"hi"}}, entry)
}

func TestEngine_AddThenRemoveRestoresStores(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Add("seed", mcp.BootConfig{Command: "seed"}, mcp.ProvenanceLocal)
	require.NoError(t, err)
	hostBefore, registryBefore := f.snapshot(t)

	_, err = f.engine.Add("foo", mcp.BootConfig{Command: "echo", Args: []string{"hi"}, Env: map[string]string{"A": "b"}}, mcp.ProvenanceLocal)
	require.NoError(t, err)
	require.NoError(t, f.engine.Remove("foo"))

	hostAfter, registryAfter := f.snapshot(t)
	assert.JSONEq(t, hostBefore, hostAfter)
	assert.JSONEq(t, registryBefore, registryAfter)
}

func TestEngine_DisableEnableRestoresHostEntry(t *testing.T) {
	f := newFixture(t, nil)
	entry := mcp.HostConfigEntry{Command: "npx", Args: []string{"-y", "@scope/server", "--flag=<x>&y"}}
	require.NoError(t, f.host.Put("ext", entry))

	before, _ := f.snapshot(t)
	require.NoError(t, f.engine.Disable("ext"))
	require.NoError(t, f.engine.Enable("ext"))
	after, _ := f.snapshot(t)

	assert.JSONEq(t, before, after)
}

func TestEngine_DisableKeepsTrackedDefinition(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Add("foo", mcp.BootConfig{Command: "echo", Args: []string{"v1"}}, mcp.ProvenanceLocal)
	require.NoError(t, err)

	require.NoError(t, f.host.Put("foo", mcp.HostConfigEntry{Command: "echo", Args: []string{"v2"}}))

	require.NoError(t, f.engine.Disable("foo"))
	def, _, err := f.registry.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, def.AppConfig.Args, "a tracked definition is not overwritten from the host file")

	require.NoError(t, f.engine.Enable("foo"))
	got, _, err := f.host.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, mcp.HostConfigEntry{Command: "echo", Args: []string{"v1"}}, got)
}

func TestEngine_AddRejectsHostKeyRegardlessOfRegistry(t *testing.T) {
	tests := []struct {
		name       string
		inRegistry bool
	}{
		{"host only", false},
		{"host and registry", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			require.NoError(t, f.host.Put("foo", mcp.HostConfigEntry{Command: "x"}))
			if tt.inRegistry {
				require.NoError(t, f.registry.Put(mcp.ServerDefinition{
					Name: "foo", AppConfig: mcp.BootConfig{Command: "x"}, From: mcp.ProvenanceLocal,
				}))
			}

			_, err := f.engine.Add("foo", mcp.BootConfig{Command: "y"}, mcp.ProvenanceLocal)
			require.Error(t, err)
			assert.True(t, mcp.IsAlreadyExists(err))

			entry, _, err := f.host.Get("foo")
			require.NoError(t, err)
			assert.Equal(t, "x", entry.Command, "host entry must be untouched")
		})
	}
}

func TestEngine_AddOverRegistryOnlyEntry(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.registry.Put(mcp.ServerDefinition{
		Name: "foo", AppConfig: mcp.BootConfig{Command: "old"}, From: mcp.ProvenanceRemote,
	}))

	_, err := f.engine.Add("foo", mcp.BootConfig{Command: "new"}, mcp.ProvenanceLocal)
	require.NoError(t, err)

	def, _, err := f.registry.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, "new", def.AppConfig.Command)
	assert.Equal(t, mcp.ProvenanceLocal, def.From)
}

func TestEngine_AddValidation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.engine.Add("", mcp.BootConfig{Command: "x"}, mcp.ProvenanceLocal)
	assert.True(t, mcp.IsValidation(err))

	_, err = f.engine.Add("foo", mcp.BootConfig{}, mcp.ProvenanceLocal)
	assert.True(t, mcp.IsValidation(err))

	_, err = f.engine.Add("foo", mcp.BootConfig{Command: "x"}, mcp.Provenance(0))
	assert.True(t, mcp.IsValidation(err))
}

func TestEngine_DisableAbsentFromHost(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.registry.Put(mcp.ServerDefinition{
		Name: "foo", AppConfig: mcp.BootConfig{Command: "x"}, From: mcp.ProvenanceLocal,
	}))

	err := f.engine.Disable("foo")
	require.Error(t, err)
	assert.True(t, mcp.IsNotFound(err))

	err = f.engine.Disable("never-seen")
	assert.True(t, mcp.IsNotFound(err))
}

func TestEngine_DisableUntrackedBackfills(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.host.Put("ext", mcp.HostConfigEntry{Command: "ext", Args: []string{"a"}}))

	require.NoError(t, f.engine.Disable("ext"))

	def, ok, err := f.registry.Get("ext")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mcp.ProvenanceLocal, def.From)
	assert.Equal(t, []string{"a"}, def.AppConfig.Args)
}

func TestEngine_EnableErrors(t *testing.T) {
	f := newFixture(t, nil)

	err := f.engine.Enable("missing")
	assert.True(t, mcp.IsNotFound(err))

	_, err = f.engine.Add("foo", mcp.BootConfig{Command: "x"}, mcp.ProvenanceLocal)
	require.NoError(t, err)
	err = f.engine.Enable("foo")
	assert.True(t, mcp.IsAlreadyExists(err), "enable rejects an existing host key")
}

func TestEngine_RemoveToleratesMissingHostEntry(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Add("foo", mcp.BootConfig{Command: "x"}, mcp.ProvenanceLocal)
	require.NoError(t, err)
	require.NoError(t, f.engine.Disable("foo"))

	require.NoError(t, f.engine.Remove("foo"))

	_, ok := f.status(t, "foo")
	assert.False(t, ok)

	err = f.engine.Remove("foo")
	assert.True(t, mcp.IsNotFound(err))
}

func TestEngine_ListAllBackfillsOnce(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.host.Put("b-ext", mcp.HostConfigEntry{Command: "b"}))
	require.NoError(t, f.host.Put("a-ext", mcp.HostConfigEntry{Command: "a"}))
	_, err := f.engine.Add("c", mcp.BootConfig{Command: "c"}, mcp.ProvenanceLocal)
	require.NoError(t, err)

	first, err := f.engine.ListAllWithStatus()
	require.NoError(t, err)
	_, registryAfterFirst := f.snapshot(t)

	second, err := f.engine.ListAllWithStatus()
	require.NoError(t, err)
	_, registryAfterSecond := f.snapshot(t)

	assert.Equal(t, first, second)
	assert.Equal(t, registryAfterFirst, registryAfterSecond, "second listing must not write")

	names := make([]string, len(second))
	for i, s := range second {
		names[i] = s.Definition.Name
		assert.True(t, s.Enabled)
	}
	assert.Equal(t, []string{"a-ext", "b-ext", "c"}, names)

	defs, err := f.registry.List()
	require.NoError(t, err)
	assert.Len(t, defs, 3)
}

func TestEngine_HostAlias(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.registry.Put(mcp.ServerDefinition{
		Name:      "github",
		HostAlias: "gh",
		AppConfig: mcp.BootConfig{Command: "npx", Args: []string{"server-github"}},
		From:      mcp.ProvenanceRemote,
	}))
	require.NoError(t, f.host.Put("gh", mcp.HostConfigEntry{Command: "npx", Args: []string{"server-github"}}))

	all, err := f.engine.ListAllWithStatus()
	require.NoError(t, err)
	require.Len(t, all, 1, "an aliased host key is not backfilled")
	assert.True(t, all[0].Enabled)

	s, err := f.engine.Resolve("gh")
	require.NoError(t, err)
	assert.Equal(t, "github", s.Definition.Name)

	require.NoError(t, f.engine.Disable("github"))
	has, err := f.host.Has("gh")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestEngine_ListEnabledDisabled(t *testing.T) {
	f := newFixture(t, nil)
	for _, name := range []string{"a", "b", "c"} {
		_, err := f.engine.Add(name, mcp.BootConfig{Command: name}, mcp.ProvenanceLocal)
		require.NoError(t, err)
	}
	require.NoError(t, f.engine.Disable("b"))

	enabled, err := f.engine.ListEnabled()
	require.NoError(t, err)
	disabled, err := f.engine.ListDisabled()
	require.NoError(t, err)

	require.Len(t, enabled, 2)
	require.Len(t, disabled, 1)
	assert.Equal(t, "b", disabled[0].Definition.Name)
}

func TestEngine_Resolve(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Resolve("nope")
	assert.True(t, mcp.IsNotFound(err))
}

// Scenario 5.
func TestEngine_InstallSubstitutesArgs(t *testing.T) {
	f := newFixture(t, fakeResolver{"weather": weatherPackage()})

	def, err := f.engine.InstallFromPackage(context.Background(), "weather", map[string]string{"city": "Paris", "apiKey": "k"})
	require.NoError(t, err)

	assert.Equal(t, mcp.ProvenanceRemote, def.From)
	assert.Equal(t, []string{"weather-mcp", "--city", "Paris", "--units", "**units**"}, def.AppConfig.Args)
	assert.Equal(t, map[string]string{"city": "Paris", "apiKey": "k"}, def.Parameters)
	assert.Equal(t, "**apiKey**", def.AppConfig.Env["WEATHER_API_KEY"], "env placeholders resolve at launch")

	entry, ok, err := f.host.Get("weather")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, def.AppConfig.Args, entry.Args)

	spec := mcp.NewTransportBuilder().Build(def)
	assert.Equal(t, "k", spec.Env["WEATHER_API_KEY"])
}

// Scenario 6.
func TestEngine_InstallMissingParameters(t *testing.T) {
	f := newFixture(t, fakeResolver{"weather": weatherPackage()})

	_, err := f.engine.InstallFromPackage(context.Background(), "weather", nil)
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))
	assert.Contains(t, err.Error(), "apiKey")
	assert.Contains(t, err.Error(), "city")

	var mcpErr *mcp.MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, []string{"apiKey", "city"}, mcpErr.Details)

	has, err := f.host.Has("weather")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestEngine_InstallUnknownParameters(t *testing.T) {
	f := newFixture(t, fakeResolver{"weather": weatherPackage()})

	_, err := f.engine.InstallFromPackage(context.Background(), "weather", map[string]string{
		"city": "Paris", "apiKey": "k", "zeta": "1", "alpha": "2",
	})
	require.Error(t, err)
	assert.True(t, mcp.IsValidation(err))

	var mcpErr *mcp.MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, []string{"alpha", "zeta"}, mcpErr.Details)
}

func TestEngine_InstallErrors(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.InstallFromPackage(context.Background(), "weather", nil)
	assert.Equal(t, mcp.ErrorCodeConfig, mcp.CodeOf(err))

	f = newFixture(t, fakeResolver{})
	_, err = f.engine.InstallFromPackage(context.Background(), "weather", nil)
	require.Error(t, err)
	var statusErr *catalog.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestEngine_SetParameters(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Add("tpl", mcp.BootConfig{Command: "run", Args: []string{"**dir**"}}, mcp.ProvenanceLocal)
	require.NoError(t, err)

	entry, _, err := f.host.Get("tpl")
	require.NoError(t, err)
	assert.Equal(t, []string{"**dir**"}, entry.Args)

	def, err := f.engine.SetParameters("tpl", map[string]string{"dir": "/data"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dir": "/data"}, def.Parameters)

	entry, _, err = f.host.Get("tpl")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data"}, entry.Args)

	def, err = f.engine.SetParameters("tpl", map[string]string{"dir": ""})
	require.NoError(t, err)
	assert.Nil(t, def.Parameters)

	_, err = f.engine.SetParameters("missing", map[string]string{"a": "b"})
	assert.True(t, mcp.IsNotFound(err))
}

func TestEngine_RegisterSelf(t *testing.T) {
	f := newFixture(t, nil)
	def, err := f.engine.RegisterSelf("mcpm", mcp.BootConfig{Command: "/usr/local/bin/mcpm", Args: []string{"mcp-server"}})
	require.NoError(t, err)
	assert.Equal(t, mcp.ProvenanceSelf, def.From)

	_, err = f.engine.RegisterSelf("mcpm", mcp.BootConfig{Command: "/usr/local/bin/mcpm"})
	assert.True(t, mcp.IsAlreadyExists(err))
}

// failingHost fails every write.
type failingHost struct {
	*hostconfig.Store
}

func (failingHost) Put(string, mcp.HostConfigEntry) error {
	return errors.New("disk full")
}

func TestEngine_AddRollsBackRegistry(t *testing.T) {
	dir := t.TempDir()
	reg := registry.NewStore(filepath.Join(dir, registry.FileName))
	host := failingHost{hostconfig.NewStore(filepath.Join(dir, "host.json"), "")}
	engine, err := reconcile.New(reconcile.Config{Host: host, Registry: reg})
	require.NoError(t, err)

	_, err = engine.Add("new", mcp.BootConfig{Command: "x"}, mcp.ProvenanceLocal)
	require.Error(t, err)
	has, err := reg.Has("new")
	require.NoError(t, err)
	assert.False(t, has, "a failed host write removes the new registry entry")

	previous := mcp.ServerDefinition{Name: "old", AppConfig: mcp.BootConfig{Command: "v1", Args: []string{}}, From: mcp.ProvenanceRemote}
	require.NoError(t, reg.Put(previous))
	_, err = engine.Add("old", mcp.BootConfig{Command: "v2"}, mcp.ProvenanceLocal)
	require.Error(t, err)

	got, _, err := reg.Get("old")
	require.NoError(t, err)
	assert.Equal(t, previous, got, "a failed host write restores the previous definition")
}

// failingDeleteHost fails every delete.
type failingDeleteHost struct {
	*hostconfig.Store
}

func (failingDeleteHost) Delete(string) (bool, error) {
	return false, errors.New("permission denied")
}

func TestEngine_RemoveHostDeleteIsBestEffort(t *testing.T) {
	dir := t.TempDir()
	reg := registry.NewStore(filepath.Join(dir, registry.FileName))
	store := hostconfig.NewStore(filepath.Join(dir, "host.json"), "")
	engine, err := reconcile.New(reconcile.Config{Host: failingDeleteHost{store}, Registry: reg})
	require.NoError(t, err)

	_, err = engine.Add("foo", mcp.BootConfig{Command: "x"}, mcp.ProvenanceLocal)
	require.NoError(t, err)

	require.NoError(t, engine.Remove("foo"))
	has, err := reg.Has("foo")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestNew_RequiresStores(t *testing.T) {
	_, err := reconcile.New(reconcile.Config{})
	assert.Error(t, err)
}

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

package mcp

import (
	"os"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

// placeholderRegex matches a whole-string **token** placeholder.
var placeholderRegex = regexp.MustCompile(`^\*\*(.+)\*\*$`)

// inheritedEnvUnix and inheritedEnvWindows are the variables a server
// subprocess inherits from mcpm's own environment.
var (
	inheritedEnvUnix = []string{"HOME", "LOGNAME", "PATH", "SHELL", "TERM", "USER"}

	inheritedEnvWindows = []string{
		"APPDATA", "HOMEDRIVE", "HOMEPATH", "LOCALAPPDATA", "PATH",
		"PROCESSOR_ARCHITECTURE", "SYSTEMDRIVE", "SYSTEMROOT", "TEMP",
		"USERNAME", "USERPROFILE",
	}
)

// SubstitutePlaceholder returns params[token] when s is exactly **token**
// and the token has a value. Any other string is returned unchanged.
func SubstitutePlaceholder(s string, params map[string]string) string {
	token, ok := PlaceholderToken(s)
	if !ok {
		return s
	}
	if v, ok := params[token]; ok {
		return v
	}
	return s
}

// PlaceholderToken returns the token of a **token** placeholder.
func PlaceholderToken(s string) (string, bool) {
	m := placeholderRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SubstituteArgs applies SubstitutePlaceholder to every element.
func SubstituteArgs(args []string, params map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = SubstitutePlaceholder(a, params)
	}
	return out
}

// DefaultEnvironment returns the subset of the current environment that
// server subprocesses inherit.
func DefaultEnvironment() map[string]string {
	keys := inheritedEnvUnix
	if runtime.GOOS == "windows" {
		keys = inheritedEnvWindows
	}
	return inheritEnv(keys, os.LookupEnv)
}

func inheritEnv(keys []string, lookup func(string) (string, bool)) map[string]string {
	env := make(map[string]string, len(keys))
	for _, key := range keys {
		value, ok := lookup(key)
		if !ok {
			continue
		}
		// Exported shell functions.
		if strings.HasPrefix(value, "()") {
			continue
		}
		env[key] = value
	}
	return env
}

// ProcessSpec is a fully resolved subprocess launch.
type ProcessSpec struct {
	Command string
	Args    []string
	Env     map[string]string
}

// EnvList renders Env as sorted KEY=VALUE entries.
func (p ProcessSpec) EnvList() []string {
	keys := make([]string, 0, len(p.Env))
	for k := range p.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + p.Env[k]
	}
	return out
}

// TransportBuilder turns a ServerDefinition into a ProcessSpec. It performs
// no I/O beyond reading the base environment.
type TransportBuilder struct {
	// BaseEnv supplies the starting environment. Defaults to DefaultEnvironment.
	BaseEnv func() map[string]string
}

// NewTransportBuilder creates a builder using the inherited process environment.
func NewTransportBuilder() *TransportBuilder {
	return &TransportBuilder{BaseEnv: DefaultEnvironment}
}

// BuildEnvironment overlays the definition's env on the base environment.
func (b *TransportBuilder) BuildEnvironment(def ServerDefinition) map[string]string {
	base := b.BaseEnv
	if base == nil {
		base = DefaultEnvironment
	}

	env := make(map[string]string)
	for k, v := range base() {
		env[k] = v
	}
	for k, v := range def.AppConfig.Env {
		env[k] = SubstitutePlaceholder(v, def.Parameters)
	}
	return env
}

// BuildArgs substitutes placeholders in the definition's args.
func (b *TransportBuilder) BuildArgs(def ServerDefinition) []string {
	return SubstituteArgs(def.AppConfig.Args, def.Parameters)
}

// Build resolves the full launch description.
func (b *TransportBuilder) Build(def ServerDefinition) ProcessSpec {
	return ProcessSpec{
		Command: def.AppConfig.Command,
		Args:    b.BuildArgs(def),
		Env:     b.BuildEnvironment(def),
	}
}

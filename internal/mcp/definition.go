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
	"fmt"
	"maps"
	"slices"
)

// Provenance records where a server definition came from.
// The zero value is invalid; use one of the declared constants.
type Provenance uint8

const (
	// ProvenanceLocal is a server added by hand or discovered in the host file.
	ProvenanceLocal Provenance = iota + 1
	// ProvenanceRemote is a server installed from the package registry.
	ProvenanceRemote
	// ProvenanceSelf is mcpm's own management server.
	ProvenanceSelf
)

// String returns the stored form of the provenance.
func (p Provenance) String() string {
	switch p {
	case ProvenanceLocal:
		return "local"
	case ProvenanceRemote:
		return "remote"
	case ProvenanceSelf:
		return "self"
	default:
		return fmt.Sprintf("Provenance(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the declared provenances.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceLocal, ProvenanceRemote, ProvenanceSelf:
		return true
	default:
		return false
	}
}

// ParseProvenance parses the stored form of a provenance.
func ParseProvenance(s string) (Provenance, error) {
	switch s {
	case "local":
		return ProvenanceLocal, nil
	case "remote":
		return ProvenanceRemote, nil
	case "self":
		return ProvenanceSelf, nil
	default:
		return 0, fmt.Errorf("unknown provenance %q (must be local, remote, or self)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot encode invalid provenance %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Provenance) UnmarshalText(text []byte) error {
	parsed, err := ParseProvenance(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// BootConfig is how a server subprocess is launched.
// Args entries and Env values may be **token** placeholders.
type BootConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// HostEntry returns the command and args as written to the host file.
func (b BootConfig) HostEntry() HostConfigEntry {
	args := make([]string, len(b.Args))
	copy(args, b.Args)
	return HostConfigEntry{Command: b.Command, Args: args}
}

// Clone returns a deep copy.
func (b BootConfig) Clone() BootConfig {
	out := BootConfig{Command: b.Command, Args: slices.Clone(b.Args)}
	if out.Args == nil {
		out.Args = []string{}
	}
	if b.Env != nil {
		out.Env = maps.Clone(b.Env)
	}
	return out
}

// ServerDefinition is the full record of a server kept in the local registry.
type ServerDefinition struct {
	// Name is the registry key.
	Name string `json:"name"`

	// HostAlias is the key used in the host file when it differs from Name.
	HostAlias string `json:"claudeId,omitempty"`

	// AppConfig is the launch configuration.
	AppConfig BootConfig `json:"appConfig"`

	// Parameters are the values substituted into **token** placeholders.
	Parameters map[string]string `json:"parameters,omitempty"`

	// From is the provenance.
	From Provenance `json:"from"`
}

// HostKey returns the key this server uses in the host file.
func (d ServerDefinition) HostKey() string {
	if d.HostAlias != "" {
		return d.HostAlias
	}
	return d.Name
}

// Clone returns a deep copy.
func (d ServerDefinition) Clone() ServerDefinition {
	out := d
	out.AppConfig = d.AppConfig.Clone()
	if d.Parameters != nil {
		out.Parameters = maps.Clone(d.Parameters)
	}
	return out
}

// HostConfigEntry is a server as the host application stores it.
type HostConfigEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// BootConfig converts a host entry into a launch configuration without env.
func (e HostConfigEntry) BootConfig() BootConfig {
	args := make([]string, len(e.Args))
	copy(args, e.Args)
	return BootConfig{Command: e.Command, Args: args}
}

// ServerStatus pairs a definition with its derived enablement.
type ServerStatus struct {
	Definition ServerDefinition `json:"definition"`
	Enabled    bool             `json:"enabled"`
}

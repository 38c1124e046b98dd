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

// Package catalog describes installable server packages and fetches them
// from the remote package registry.
package catalog

import (
	"sort"
	"strings"
)

// PackageInfo is a server package as published in the registry.
type PackageInfo struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Tags        []string             `json:"tags,omitempty"`
	Parameters  map[string]Parameter `json:"parameters"`
	CommandInfo CommandInfo          `json:"commandInfo"`
}

// Parameter is a value the package needs at install time.
type Parameter struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// CommandInfo is the launch template. Args and Env values may hold
// **name** placeholders for the package parameters.
type CommandInfo struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// ParameterNames returns the declared parameter names in sorted order.
func (p PackageInfo) ParameterNames() []string {
	names := make([]string, 0, len(p.Parameters))
	for name := range p.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiredParameters returns the names of the required parameters in sorted order.
func (p PackageInfo) RequiredParameters() []string {
	var names []string
	for _, name := range p.ParameterNames() {
		if p.Parameters[name].Required {
			names = append(names, name)
		}
	}
	return names
}

// DisplayName returns the title, falling back to the name and then the id.
func (p PackageInfo) DisplayName() string {
	switch {
	case p.Title != "":
		return p.Title
	case p.Name != "":
		return p.Name
	default:
		return p.ID
	}
}

// Summary renders the package as a short block of text.
func (p PackageInfo) Summary() string {
	var b strings.Builder
	b.WriteString(p.DisplayName())
	b.WriteString(" (")
	b.WriteString(p.ID)
	b.WriteString(")\n")
	if p.Description != "" {
		b.WriteString("  ")
		b.WriteString(p.Description)
		b.WriteString("\n")
	}
	if len(p.Tags) > 0 {
		b.WriteString("  Tags: ")
		b.WriteString(strings.Join(p.Tags, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

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

// Package registry stores every known MCP server definition in a local JSON
// file, whether or not the server is currently enabled in the host
// application.
//
// File format:
//
//	{
//	  "serversMap": {
//	    "github": {
//	      "name": "github",
//	      "appConfig": {"command": "npx", "args": ["-y", "server-github"]},
//	      "from": "remote"
//	    }
//	  }
//	}
//
// The store serializes access within one process only. Concurrent mcpm
// processes race with last-writer-wins semantics.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tombee/mcpm/internal/mcp"
)

// FileName is the default registry file name inside the config directory.
const FileName = "registry.json"

// fileFormat is the on-disk layout.
type fileFormat struct {
	ServersMap map[string]mcp.ServerDefinition `json:"serversMap"`
}

// Store is a JSON-file backed server registry.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the file at path. The file is not touched
// until the first operation.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.path
}

// List returns every definition sorted by name.
func (s *Store) List() ([]mcp.ServerDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]mcp.ServerDefinition, 0, len(servers))
	for _, def := range servers {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns the definition stored under name.
func (s *Store) Get(name string) (mcp.ServerDefinition, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.load()
	if err != nil {
		return mcp.ServerDefinition{}, false, err
	}
	def, ok := servers[name]
	return def, ok, nil
}

// Has reports whether name is registered.
func (s *Store) Has(name string) (bool, error) {
	_, ok, err := s.Get(name)
	return ok, err
}

// Put inserts or replaces a definition.
func (s *Store) Put(def mcp.ServerDefinition) error {
	if err := checkDefinition(def); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.load()
	if err != nil {
		return err
	}
	servers[def.Name] = def.Clone()
	return s.save(servers)
}

// PutIfAbsent inserts def unless its name is already registered.
func (s *Store) PutIfAbsent(def mcp.ServerDefinition) (bool, error) {
	added, err := s.PutAllIfAbsent([]mcp.ServerDefinition{def})
	return len(added) == 1, err
}

// PutAllIfAbsent inserts every definition whose name is not yet registered
// with a single write, and returns the names that were added.
func (s *Store) PutAllIfAbsent(defs []mcp.ServerDefinition) ([]string, error) {
	for _, def := range defs {
		if err := checkDefinition(def); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.load()
	if err != nil {
		return nil, err
	}

	var added []string
	for _, def := range defs {
		if _, exists := servers[def.Name]; exists {
			continue
		}
		servers[def.Name] = def.Clone()
		added = append(added, def.Name)
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := s.save(servers); err != nil {
		return nil, err
	}
	return added, nil
}

// Delete removes name and reports whether it was present.
func (s *Store) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := servers[name]; !ok {
		return false, nil
	}
	delete(servers, name)
	return true, s.save(servers)
}

func checkDefinition(def mcp.ServerDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("server definition has no name")
	}
	if !def.From.Valid() {
		return fmt.Errorf("server %q has invalid provenance", def.Name)
	}
	return nil
}

// load reads the registry. A missing file is an empty registry.
func (s *Store) load() (map[string]mcp.ServerDefinition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]mcp.ServerDefinition), nil
		}
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var f fileFormat
	if len(data) > 0 {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse registry file %s: %w", s.path, err)
		}
	}
	if f.ServersMap == nil {
		f.ServersMap = make(map[string]mcp.ServerDefinition)
	}

	// Older files may omit the name inside the entry.
	for key, def := range f.ServersMap {
		if def.Name == "" {
			def.Name = key
			f.ServersMap[key] = def
		}
	}

	return f.ServersMap, nil
}

// save writes the registry to a temp file and renames it into place.
func (s *Store) save(servers map[string]mcp.ServerDefinition) error {
	data, err := json.MarshalIndent(fileFormat{ServersMap: servers}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save registry file: %w", err)
	}
	return nil
}

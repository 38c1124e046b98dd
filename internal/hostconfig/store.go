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

// Package hostconfig reads and writes the configuration file of the host
// application (Claude Desktop or a compatible client).
//
// The file is owned by the host. mcpm only touches the entries of the
// servers map it is asked to change; every other top-level key and every
// other server entry is written back with the values it was read with.
package hostconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tombee/mcpm/internal/mcp"
)

// Store is the host configuration file.
type Store struct {
	path       string
	serversKey string
	mu         sync.Mutex
}

// NewStore creates a store for the file at path whose server map lives
// under serversKey ("mcpServers" for Claude Desktop).
func NewStore(path, serversKey string) *Store {
	if serversKey == "" {
		serversKey = ServersKeyGeneric
	}
	return &Store{path: path, serversKey: serversKey}
}

// Path returns the host configuration file path.
func (s *Store) Path() string {
	return s.path
}

// ServersKey returns the top-level key holding the server map.
func (s *Store) ServersKey() string {
	return s.serversKey
}

// Servers returns every host entry.
func (s *Store) Servers() (map[string]mcp.HostConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make(map[string]mcp.HostConfigEntry, len(doc.servers))
	for key, raw := range doc.servers {
		entry, err := decodeEntry(key, raw)
		if err != nil {
			return nil, err
		}
		out[key] = entry
	}
	return out, nil
}

// Get returns the entry stored under key.
func (s *Store) Get(key string) (mcp.HostConfigEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return mcp.HostConfigEntry{}, false, err
	}
	raw, ok := doc.servers[key]
	if !ok {
		return mcp.HostConfigEntry{}, false, nil
	}
	entry, err := decodeEntry(key, raw)
	if err != nil {
		return mcp.HostConfigEntry{}, false, err
	}
	return entry, true, nil
}

// Has reports whether key is present.
func (s *Store) Has(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := doc.servers[key]
	return ok, nil
}

// Put writes entry under key, replacing any existing entry.
func (s *Store) Put(key string, entry mcp.HostConfigEntry) error {
	if entry.Args == nil {
		entry.Args = []string{}
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal host entry %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.servers[key] = raw
	return s.save(doc)
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := doc.servers[key]; !ok {
		return false, nil
	}
	delete(doc.servers, key)
	return true, s.save(doc)
}

// document is the parsed file with every value kept as raw JSON.
type document struct {
	top     map[string]json.RawMessage
	servers map[string]json.RawMessage
}

func decodeEntry(key string, raw json.RawMessage) (mcp.HostConfigEntry, error) {
	var entry mcp.HostConfigEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return mcp.HostConfigEntry{}, fmt.Errorf("invalid host entry %q: %w", key, err)
	}
	if entry.Args == nil {
		entry.Args = []string{}
	}
	return entry, nil
}

// load reads the file. A missing or empty file is an empty document.
func (s *Store) load() (*document, error) {
	doc := &document{
		top:     make(map[string]json.RawMessage),
		servers: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read host config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc.top); err != nil {
		return nil, fmt.Errorf("failed to parse host config %s: %w", s.path, err)
	}
	if doc.top == nil {
		doc.top = make(map[string]json.RawMessage)
	}
	if raw, ok := doc.top[s.serversKey]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &doc.servers); err != nil {
			return nil, fmt.Errorf("failed to parse %q in host config %s: %w", s.serversKey, s.path, err)
		}
		if doc.servers == nil {
			doc.servers = make(map[string]json.RawMessage)
		}
	}
	return doc, nil
}

// encodeJSON marshals without HTML escaping so values the host wrote come
// back unchanged.
func encodeJSON(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if !indent {
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}
	return buf.Bytes(), nil
}

// save writes the document to a temp file and renames it into place.
func (s *Store) save(doc *document) error {
	servers, err := encodeJSON(doc.servers, false)
	if err != nil {
		return fmt.Errorf("failed to marshal host servers: %w", err)
	}
	doc.top[s.serversKey] = servers

	data, err := encodeJSON(doc.top, true)
	if err != nil {
		return fmt.Errorf("failed to marshal host config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create host config directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write host config: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save host config: %w", err)
	}
	return nil
}

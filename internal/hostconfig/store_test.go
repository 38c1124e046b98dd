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

package hostconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/mcpm/internal/mcp"
)

func TestStore_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Claude", ConfigFileName)
	store := NewStore(path, ServersKeyClaude)

	servers, err := store.Servers()
	require.NoError(t, err)
	assert.Empty(t, servers)

	has, err := store.Has("x")
	require.NoError(t, err)
	assert.False(t, has)

	deleted, err := store.Delete("x")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "reads and no-op deletes must not create the file")
}

func TestStore_PutCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Claude", ConfigFileName)
	store := NewStore(path, ServersKeyClaude)

	require.NoError(t, store.Put("echo", mcp.HostConfigEntry{Command: "echo", Args: []string{"hi"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]mcp.HostConfigEntry
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, mcp.HostConfigEntry{Command: "echo", Args: []string{"hi"}}, doc["mcpServers"]["echo"])
}

func TestStore_GenericKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"servers":{"a":{"command":"x","args":[]}},"mcpServers":{"b":{"command":"y","args":[]}}}`), 0600))

	servers, err := NewStore(path, ServersKeyGeneric).Servers()
	require.NoError(t, err)
	assert.Len(t, servers, 1)
	assert.Contains(t, servers, "a")

	servers, err = NewStore(path, ServersKeyClaude).Servers()
	require.NoError(t, err)
	assert.Len(t, servers, 1)
	assert.Contains(t, servers, "b")
}

func TestStore_PreservesUnrelatedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	original := `{
  "globalShortcut": "Ctrl+Space",
  "theme": {"mode": "dark", "accent": "<blue>"},
  "mcpServers": {
    "github": {
      "command": "npx",
      "args": ["-y", "@modelcontextprotocol/server-github"],
      "env": {"GITHUB_TOKEN": "ghp_x&y"}
    },
    "files": {"command": "npx", "args": ["server-files", "/tmp"]}
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0600))

	store := NewStore(path, ServersKeyClaude)
	deleted, err := store.Delete("files")
	require.NoError(t, err)
	assert.True(t, deleted)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "Ctrl+Space", got["globalShortcut"])
	assert.Equal(t, map[string]any{"mode": "dark", "accent": "<blue>"}, got["theme"])

	servers := got["mcpServers"].(map[string]any)
	assert.NotContains(t, servers, "files")
	github := servers["github"].(map[string]any)
	assert.Equal(t, map[string]any{"GITHUB_TOKEN": "ghp_x&y"}, github["env"], "env of untouched entries survives")

	assert.Contains(t, string(data), `"<blue>"`, "values are not HTML escaped")
}

func TestStore_EntryWithoutArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"bare":{"command":"tool"}}}`), 0600))

	entry, ok, err := NewStore(path, ServersKeyClaude).Get("bare")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tool", entry.Command)
	assert.NotNil(t, entry.Args)
}

func TestStore_NullServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": null}`), 0600))

	store := NewStore(path, ServersKeyClaude)
	servers, err := store.Servers()
	require.NoError(t, err)
	assert.Empty(t, servers)

	require.NoError(t, store.Put("a", mcp.HostConfigEntry{Command: "c"}))
	has, err := store.Has("a")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStore_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := NewStore(path, ServersKeyClaude).Servers()
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

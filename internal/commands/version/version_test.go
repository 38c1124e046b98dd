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


package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/mcpm/internal/commands/shared"
)

func execVersion(t *testing.T, args ...string) []byte {
	t.Helper()
	shared.SetVersion("0.4.2", "abc1234", "2026-01-15")
	t.Cleanup(func() {
		shared.SetVersion("dev", "unknown", "unknown")
		shared.SetJSONForTest(false)
	})

	root := &cobra.Command{Use: "mcpm"}
	flags := shared.RegisterFlagPointers()
	root.PersistentFlags().BoolVar(flags.JSON, "json", false, "JSON output")
	root.AddCommand(NewVersionCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"version"}, args...))
	require.NoError(t, root.Execute())
	return out.Bytes()
}

func TestVersion_Text(t *testing.T) {
	out := string(execVersion(t))
	assert.Contains(t, out, "mcpm version 0.4.2")
	assert.Contains(t, out, "commit:     abc1234")
	assert.Contains(t, out, "build date: 2026-01-15")
}

func TestVersion_JSON(t *testing.T) {
	var info VersionInfo
	require.NoError(t, json.Unmarshal(execVersion(t, "--json"), &info))

	assert.True(t, info.Success)
	assert.Equal(t, "version", info.Command)
	assert.Equal(t, "0.4.2", info.Version)
	assert.Equal(t, "abc1234", info.Commit)
	assert.Equal(t, "2026-01-15", info.BuildDate)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestVersion_RejectsArgs(t *testing.T) {
	cmd := NewVersionCommand()
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

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
	"reflect"
	"strings"
	"testing"
)

func TestValidateServerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "github", false},
		{"scoped package", "@modelcontextprotocol/server-github", false},
		{"spaces inside", "my server", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"control character", "bad\nname", true},
		{"too long", strings.Repeat("a", MaxServerNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestValidateBootConfig(t *testing.T) {
	if err := ValidateBootConfig(BootConfig{Command: "npx"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateBootConfig(BootConfig{}); err == nil {
		t.Error("missing command should fail")
	}
	if err := ValidateBootConfig(BootConfig{Command: "x", Env: map[string]string{"1BAD": "v"}}); err == nil {
		t.Error("invalid env key should fail")
	}
}

func TestParseEnvAssignment(t *testing.T) {
	tests := []struct {
		input     string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{"KEY=value", "KEY", "value", false},
		{"KEY=a=b", "KEY", "a=b", false},
		{"KEY=", "KEY", "", false},
		{"NOEQUALS", "", "", true},
		{"=value", "", "", true},
		{"1KEY=value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := ParseEnvAssignment(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEnvAssignment(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if key != tt.wantKey || value != tt.wantValue {
				t.Errorf("ParseEnvAssignment(%q) = (%q, %q), want (%q, %q)", tt.input, key, value, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func TestRedactEnv(t *testing.T) {
	input := []string{"PATH=/usr/bin", "GITHUB_TOKEN=ghp_secret", "API_KEY=abc", "MALFORMED"}
	want := []string{"PATH=/usr/bin", "GITHUB_TOKEN=***REDACTED***", "API_KEY=***REDACTED***", "MALFORMED"}
	if got := RedactEnv(input); !reflect.DeepEqual(got, want) {
		t.Errorf("RedactEnv = %v, want %v", got, want)
	}
}

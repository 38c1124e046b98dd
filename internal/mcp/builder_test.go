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
	"testing"
)

func TestSubstitutePlaceholder(t *testing.T) {
	params := map[string]string{"bar": "value", "city": "Paris"}

	tests := []struct {
		name   string
		input  string
		params map[string]string
		want   string
	}{
		{"exact placeholder with value", "**bar**", params, "value"},
		{"exact placeholder without value", "**missing**", params, "**missing**"},
		{"unterminated", "foo**bar", params, "foo**bar"},
		{"embedded placeholder", "pre**bar**post", params, "pre**bar**post"},
		{"leading text", "x**bar**", params, "x**bar**"},
		{"trailing text", "**bar**x", params, "**bar**x"},
		{"plain string", "--city", params, "--city"},
		{"empty token", "****", params, "****"},
		{"nil params", "**bar**", nil, "**bar**"},
		{"empty value is still a value", "**empty**", map[string]string{"empty": ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubstitutePlaceholder(tt.input, tt.params)
			if got != tt.want {
				t.Errorf("SubstitutePlaceholder(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubstitutePlaceholder_Idempotent(t *testing.T) {
	params := map[string]string{"bar": "value"}
	for _, s := range []string{"foo**bar", "pre**bar**post", "plain", ""} {
		once := SubstitutePlaceholder(s, params)
		twice := SubstitutePlaceholder(once, params)
		if once != s || twice != s {
			t.Errorf("non-placeholder %q changed: once=%q twice=%q", s, once, twice)
		}
	}
}

func TestPlaceholderToken(t *testing.T) {
	token, ok := PlaceholderToken("**apiKey**")
	if !ok || token != "apiKey" {
		t.Errorf("PlaceholderToken = (%q, %v), want (apiKey, true)", token, ok)
	}
	if _, ok := PlaceholderToken("apiKey"); ok {
		t.Error("plain string should not be a placeholder")
	}
}

func TestInheritEnv(t *testing.T) {
	env := map[string]string{
		"HOME":  "/home/test",
		"PATH":  "/usr/bin",
		"SHELL": "() { :; }",
		"OTHER": "ignored",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	got := inheritEnv(inheritedEnvUnix, lookup)
	want := map[string]string{"HOME": "/home/test", "PATH": "/usr/bin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("inheritEnv = %v, want %v", got, want)
	}
}

func TestTransportBuilder_Build(t *testing.T) {
	b := &TransportBuilder{BaseEnv: func() map[string]string {
		return map[string]string{"PATH": "/usr/bin", "HOME": "/home/test"}
	}}

	def := ServerDefinition{
		Name: "weather",
		AppConfig: BootConfig{
			Command: "npx",
			Args:    []string{"-y", "weather-mcp", "--city", "**city**", "**unset**"},
			Env: map[string]string{
				"API_KEY": "**apiKey**",
				"PATH":    "/opt/bin",
				"MODE":    "fast",
			},
		},
		Parameters: map[string]string{"city": "Paris", "apiKey": "secret"},
		From:       ProvenanceRemote,
	}

	spec := b.Build(def)

	if spec.Command != "npx" {
		t.Errorf("Command = %q, want npx", spec.Command)
	}
	wantArgs := []string{"-y", "weather-mcp", "--city", "Paris", "**unset**"}
	if !reflect.DeepEqual(spec.Args, wantArgs) {
		t.Errorf("Args = %v, want %v", spec.Args, wantArgs)
	}
	wantEnv := map[string]string{
		"PATH":    "/opt/bin",
		"HOME":    "/home/test",
		"API_KEY": "secret",
		"MODE":    "fast",
	}
	if !reflect.DeepEqual(spec.Env, wantEnv) {
		t.Errorf("Env = %v, want %v", spec.Env, wantEnv)
	}

	// The definition itself is untouched.
	if def.AppConfig.Args[3] != "**city**" {
		t.Errorf("Build mutated definition args: %v", def.AppConfig.Args)
	}
}

func TestProcessSpec_EnvList(t *testing.T) {
	spec := ProcessSpec{Env: map[string]string{"B": "2", "A": "1", "C": "x=y"}}
	want := []string{"A=1", "B=2", "C=x=y"}
	if got := spec.EnvList(); !reflect.DeepEqual(got, want) {
		t.Errorf("EnvList = %v, want %v", got, want)
	}

	empty := ProcessSpec{}
	if got := empty.EnvList(); got == nil || len(got) != 0 {
		t.Errorf("EnvList of empty env = %#v, want empty non-nil slice", got)
	}
}

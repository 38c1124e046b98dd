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

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "warn" {
		t.Errorf("expected default level 'warn', got %q", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("expected default format 'text', got %q", cfg.Format)
	}
	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}
	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		envVars    map[string]string
		wantLevel  string
		wantFormat Format
		wantSource bool
	}{
		{
			name:       "defaults when no env vars",
			envVars:    map[string]string{},
			wantLevel:  "warn",
			wantFormat: FormatText,
		},
		{
			name:       "LOG_LEVEL=DEBUG (case insensitive)",
			envVars:    map[string]string{"LOG_LEVEL": "DEBUG"},
			wantLevel:  "debug",
			wantFormat: FormatText,
		},
		{
			name:       "MCPM_LOG_LEVEL wins over LOG_LEVEL",
			envVars:    map[string]string{"MCPM_LOG_LEVEL": "error", "LOG_LEVEL": "debug"},
			wantLevel:  "error",
			wantFormat: FormatText,
		},
		{
			name:       "MCPM_DEBUG wins over levels",
			envVars:    map[string]string{"MCPM_DEBUG": "1", "MCPM_LOG_LEVEL": "error"},
			wantLevel:  "debug",
			wantFormat: FormatText,
			wantSource: true,
		},
		{
			name:       "LOG_FORMAT=json and LOG_SOURCE=1",
			envVars:    map[string]string{"LOG_FORMAT": "JSON", "LOG_SOURCE": "1"},
			wantLevel:  "warn",
			wantFormat: FormatJSON,
			wantSource: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"MCPM_DEBUG", "MCPM_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := FromEnv()
			if cfg.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", cfg.Level, tt.wantLevel)
			}
			if cfg.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.wantFormat)
			}
			if cfg.AddSource != tt.wantSource {
				t.Errorf("AddSource = %v, want %v", cfg.AddSource, tt.wantSource)
			}
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	WithServer(WithComponent(logger, "proxy"), "github").Info("connected", Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["component"] != "proxy" || entry[ServerKey] != "github" || entry["error"] != "boom" {
		t.Errorf("unexpected fields: %v", entry)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: FormatText, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message missing")
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	Trace(New(&Config{Level: "debug", Output: &buf}), "skipped")
	if buf.Len() != 0 {
		t.Errorf("trace should be filtered at debug level, got %q", buf.String())
	}

	Trace(New(&Config{Level: "trace", Output: &buf}), "kept", slog.String(ToolKey, "echo"))
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("trace level name missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ValidLevel("bogus") || !ValidLevel("Warn") {
		t.Error("ValidLevel mismatch")
	}
}

func TestDiscard(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
}

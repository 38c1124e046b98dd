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
	"os/exec"
	"regexp"
	"strings"
	"unicode"
)

// MaxServerNameLength bounds registry keys. Package ids such as
// "@scope/server-name" must fit.
const MaxServerNameLength = 128

// envKeyRegex validates environment variable names.
var envKeyRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateServerName validates a server name.
// Package names like "@modelcontextprotocol/server-github" are allowed.
func ValidateServerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewMCPError(ErrorCodeValidation, "server name is required")
	}
	if len(name) > MaxServerNameLength {
		return NewMCPError(ErrorCodeValidation, fmt.Sprintf("server name exceeds %d character limit", MaxServerNameLength))
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return NewMCPError(ErrorCodeValidation, "invalid server name: must not contain control characters")
		}
	}
	return nil
}

// ValidateBootConfig checks that a launch configuration is usable.
func ValidateBootConfig(boot BootConfig) error {
	if strings.TrimSpace(boot.Command) == "" {
		return NewMCPError(ErrorCodeValidation, "command is required")
	}
	for key := range boot.Env {
		if !envKeyRegex.MatchString(key) {
			return NewMCPError(ErrorCodeValidation, fmt.Sprintf("invalid environment variable key: %s", key))
		}
	}
	return nil
}

// CommandAvailable reports whether cmd resolves on PATH or as a file.
func CommandAvailable(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// ParseEnvAssignment splits a KEY=VALUE string.
func ParseEnvAssignment(env string) (string, string, error) {
	key, value, ok := strings.Cut(env, "=")
	if !ok {
		return "", "", fmt.Errorf("environment variable must be in KEY=VALUE format")
	}
	if key == "" {
		return "", "", fmt.Errorf("environment variable key is required")
	}
	if !envKeyRegex.MatchString(key) {
		return "", "", fmt.Errorf("invalid environment variable key: %s", key)
	}
	return key, value, nil
}

// sensitiveKeyPatterns are patterns that indicate a sensitive value.
var sensitiveKeyPatterns = []string{
	"SECRET", "TOKEN", "KEY", "PASSWORD", "CREDENTIAL", "AUTH", "API_KEY",
}

// IsSensitiveEnvKey returns true if the key appears to contain sensitive data.
func IsSensitiveEnvKey(key string) bool {
	upperKey := strings.ToUpper(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(upperKey, pattern) {
			return true
		}
	}
	return false
}

// RedactEnv redacts sensitive values from an environment variable list.
func RedactEnv(envs []string) []string {
	result := make([]string, len(envs))
	for i, env := range envs {
		key, _, ok := strings.Cut(env, "=")
		if ok && IsSensitiveEnvKey(key) {
			result[i] = key + "=***REDACTED***"
		} else {
			result[i] = env
		}
	}
	return result
}

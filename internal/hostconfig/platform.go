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
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tombee/mcpm/internal/mcp"
)

// Profile selects the host application flavour.
type Profile string

const (
	// ProfileClaude is Claude Desktop, which keeps servers under "mcpServers".
	ProfileClaude Profile = "claude"
	// ProfileGeneric is any host that keeps servers under "servers".
	ProfileGeneric Profile = "generic"
)

const (
	// ServersKeyClaude is the server map key used by Claude Desktop.
	ServersKeyClaude = "mcpServers"
	// ServersKeyGeneric is the server map key of the generic profile.
	ServersKeyGeneric = "servers"

	// ConfigFileName is the host configuration file name.
	ConfigFileName = "claude_desktop_config.json"
)

// ServersKey returns the server map key of the profile.
func (p Profile) ServersKey() string {
	if p == ProfileGeneric {
		return ServersKeyGeneric
	}
	return ServersKeyClaude
}

// AppName names the host application in user-facing messages.
func (p Profile) AppName() string {
	if p == ProfileGeneric {
		return "host application"
	}
	return "Claude App"
}

// ParseProfile validates a profile name. Empty means claude.
func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(s)) {
	case "", ProfileClaude:
		return ProfileClaude, nil
	case ProfileGeneric:
		return ProfileGeneric, nil
	default:
		return "", fmt.Errorf("unknown host profile %q (must be claude or generic)", s)
	}
}

// Platform is the per-OS integration with the host application.
type Platform interface {
	// Name returns the GOOS value the platform was selected for.
	Name() string

	// ConfigPath returns the default host configuration file path.
	ConfigPath() (string, error)

	// ServersKey returns the server map key inside the configuration file.
	ServersKey() string

	// AppName names the host application for messages.
	AppName() string

	// Restart stops the host application and starts it again so it
	// rereads its configuration.
	Restart(ctx context.Context) error
}

// CommandRunner runs an external command and waits for it.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// CommandStarter starts an external command without waiting for it.
type CommandStarter func(name string, args ...string) error

// RestartDelay is how long Restart waits between stopping and starting the host.
var RestartDelay = 2 * time.Second

// base carries what every platform shares.
type base struct {
	goos    string
	profile Profile
	home    func() (string, error)
	run     CommandRunner
	start   CommandStarter
	sleep   func(ctx context.Context, d time.Duration) error
}

func (b base) Name() string       { return b.goos }
func (b base) ServersKey() string { return b.profile.ServersKey() }
func (b base) AppName() string    { return b.profile.AppName() }

func (b base) homeDir() (string, error) {
	home, err := b.home()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return home, nil
}

// darwinPlatform is Claude Desktop on macOS.
type darwinPlatform struct{ base }

func (p darwinPlatform) ConfigPath() (string, error) {
	home, err := p.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Application Support", "Claude", ConfigFileName), nil
}

func (p darwinPlatform) Restart(ctx context.Context) error {
	// pkill exits 1 when nothing matched.
	if err := p.run(ctx, "pkill", "-9", "Claude"); err != nil && exitCode(err) != 1 {
		return fmt.Errorf("failed to stop Claude: %w", err)
	}
	if err := p.sleep(ctx, RestartDelay); err != nil {
		return err
	}
	if err := p.start("open", "-a", "Claude"); err != nil {
		return fmt.Errorf("failed to start Claude: %w", err)
	}
	return nil
}

// windowsPlatform is Claude Desktop on Windows.
type windowsPlatform struct {
	base
	lookupExe func(ctx context.Context) (string, error)
}

func (p windowsPlatform) ConfigPath() (string, error) {
	home, err := p.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "AppData", "Local", "Claude", ConfigFileName), nil
}

func (p windowsPlatform) Restart(ctx context.Context) error {
	exe, err := p.lookupExe(ctx)
	if err != nil {
		return err
	}
	// taskkill exits 128 when the process is not running.
	if err := p.run(ctx, "taskkill", "/F", "/IM", "Claude.exe"); err != nil && exitCode(err) != 128 {
		return fmt.Errorf("failed to stop Claude: %w", err)
	}
	if err := p.sleep(ctx, RestartDelay); err != nil {
		return err
	}
	if err := p.start(exe); err != nil {
		return fmt.Errorf("failed to start Claude: %w", err)
	}
	return nil
}

// windowsClaudeExe finds the Claude executable in the usual install locations.
func windowsClaudeExe(ctx context.Context) (string, error) {
	candidates := []string{
		`C:\Program Files\Claude\Claude.exe`,
		`C:\Program Files (x86)\Claude\Claude.exe`,
	}
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		candidates = append([]string{filepath.Join(local, "AnthropicClaude", "Claude.exe")}, candidates...)
	}
	if data := os.Getenv("PROGRAMDATA"); data != "" {
		candidates = append(candidates, filepath.Join(data, "Programs", "Claude", "Claude.exe"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("Claude executable not found")
}

// unixPlatform covers Linux and the BSDs. There is no official host build
// to restart, so only the configuration path is provided.
type unixPlatform struct{ base }

func (p unixPlatform) ConfigPath() (string, error) {
	home, err := p.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "claude", ConfigFileName), nil
}

func (p unixPlatform) Restart(ctx context.Context) error {
	return mcp.ErrUnsupportedPlatform(p.goos, "restarting the host application")
}

// DetectPlatform selects the platform implementation for goos.
func DetectPlatform(goos string, profile Profile) (Platform, error) {
	b := base{
		goos:    goos,
		profile: profile,
		home:    os.UserHomeDir,
		run:     runCommand,
		start:   startCommand,
		sleep:   sleepContext,
	}

	switch goos {
	case "darwin":
		return darwinPlatform{b}, nil
	case "windows":
		return windowsPlatform{base: b, lookupExe: windowsClaudeExe}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		return unixPlatform{b}, nil
	default:
		return nil, mcp.ErrUnsupportedPlatform(goos, "locating the host configuration")
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func startCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func exitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// OpenStore returns the store for the platform's configuration file, or for
// overridePath when it is set.
func OpenStore(p Platform, overridePath string) (*Store, error) {
	path := overridePath
	if path == "" {
		var err error
		path, err = p.ConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return NewStore(path, p.ServersKey()), nil
}

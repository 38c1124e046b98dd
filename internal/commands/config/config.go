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


// Package config implements the config command.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/mcpm/internal/commands/shared"
	"github.com/tombee/mcpm/internal/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage settings",
		Long: `View and manage mcpm settings.

Subcommands:
  show - Display the effective settings
  path - Show the settings file location
  init - Write a settings file with the defaults`,
		Args: cobra.NoArgs,
	}

	show := newConfigShowCommand()
	cmd.AddCommand(show, newConfigPathCommand(), newConfigInitCommand())

	// If no subcommand provided, default to 'show'
	cmd.RunE = show.RunE

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective settings",
		Long: `Display the settings after defaults and environment overrides are applied.

Credentials in the package registry URL are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settingsPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")

	return cmd
}

// settingsPath is --config when set, else the default location.
func settingsPath() (string, error) {
	if p := shared.GetConfigPath(); p != "" {
		return config.ExpandHome(p)
	}
	path, err := config.SettingsPath()
	if err != nil {
		return "", fmt.Errorf("failed to determine settings path: %w", err)
	}
	return path, nil
}

type showResponse struct {
	shared.JSONResponse
	Path     string         `json:"path"`
	Settings *config.Config `json:"settings"`
}

func runConfigShow(w io.Writer) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return shared.NewValidationError("failed to load settings", err)
	}
	masked := *cfg
	masked.PackageRegistryURL = maskURL(cfg.PackageRegistryURL)

	if shared.GetJSON() {
		return shared.EmitJSON(w, showResponse{
			JSONResponse: shared.NewJSONResponse("config show"),
			Path:         path,
			Settings:     &masked,
		})
	}

	fmt.Fprintf(w, "Settings: %s\n", path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(w, shared.RenderLabel("(file does not exist; showing defaults)"))
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&masked); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return encoder.Close()
}

func runConfigInit(w io.Writer, force bool) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return shared.NewValidationError(fmt.Sprintf("settings file %s already exists (use --force to overwrite)", path), nil)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return shared.NewFailureError("failed to write settings", err)
	}
	shared.PrintOK(w, "Settings written to %s", path)
	return nil
}

// maskURL hides the password of a URL with user info.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}

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

/*
Package mcp holds the domain model of mcpm and the Model Context Protocol
(MCP) client side used to invoke tools on locally configured servers.

# Overview

mcpm keeps two files in step:

  - the host configuration file (for example Claude Desktop's
    claude_desktop_config.json), which lists only the enabled servers and
    only their command and args
  - the local registry, which holds every known ServerDefinition including
    env, parameters and provenance

This package defines the types shared by both stores and the pieces that
turn a ServerDefinition into a running tool call:

  - ServerDefinition, BootConfig, Provenance, ServerStatus: the data model
  - TransportBuilder: placeholder substitution and environment assembly
  - Transport and StdioDialer: the subprocess connection over mcp-go
  - Proxy: resolve, validate, call and close a single tool invocation
  - GenerateToolPrompt: a markdown summary of all enabled tools

# Placeholders

An argument or env value written exactly as **token** is replaced with
Parameters["token"] when the server is launched:

	def := mcp.ServerDefinition{
	    Name: "weather",
	    AppConfig: mcp.BootConfig{
	        Command: "npx",
	        Args:    []string{"-y", "weather-mcp", "--city", "**city**"},
	    },
	    Parameters: map[string]string{"city": "Paris"},
	}

	spec := mcp.NewTransportBuilder().Build(def)
	// spec.Args == ["-y", "weather-mcp", "--city", "Paris"]

Strings that only contain ** somewhere in the middle are left alone, and a
token without a value stays as written.

# Tool Invocation

	proxy := mcp.NewProxy(mcp.ProxyConfig{Resolver: engine})
	resp, err := proxy.CallTool(ctx, "weather", "forecast", json.RawMessage(`{"days":3}`))

The proxy refuses servers that are not enabled, checks the arguments against
the tool's input schema, and always closes the subprocess before returning.
*/
package mcp

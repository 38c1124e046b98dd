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


package shared

import (
	"os"
	"slices"

	"golang.org/x/term"
)

// ciFlags are set to "true" or "1" by common CI systems.
var ciFlags = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI"}

// IsNonInteractive reports whether mcpm must not prompt. Commands that
// would ask for a missing server name, command or package parameter fail
// with a validation error instead.
//
// MCPM_NON_INTERACTIVE=true wins, then CI detection, then whether stdin
// is a terminal.
func IsNonInteractive() bool {
	if os.Getenv("MCPM_NON_INTERACTIVE") == "true" {
		return true
	}
	return isCIEnvironment() || !isTerminal()
}

func isCIEnvironment() bool {
	// Jenkins sets a path rather than a flag.
	if os.Getenv("JENKINS_HOME") != "" {
		return true
	}
	return slices.ContainsFunc(ciFlags, func(key string) bool {
		v := os.Getenv(key)
		return v == "true" || v == "1"
	})
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

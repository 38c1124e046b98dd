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


// Package prompt collects missing command input interactively.
// It backs the add, remove, enable and disable commands when a name or
// command is not given on the command line.
package prompt

import (
	"context"
	"errors"
)

// ErrNonInteractive is returned by prompters that cannot display prompts.
var ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("operation cancelled")

// Prompter defines the interface for interactive input collection.
// Implementations include SurveyPrompter (production) and MockPrompter (testing).
type Prompter interface {
	// PromptString collects a free-form string. When required is set an
	// empty answer is rejected and asked again.
	PromptString(ctx context.Context, message, def string, required bool) (string, error)

	// PromptSelect presents options and returns the chosen one.
	PromptSelect(ctx context.Context, message string, options []string) (string, error)

	// PromptConfirm asks a yes/no question.
	PromptConfirm(ctx context.Context, message string, def bool) (bool, error)

	// IsInteractive returns true if prompts can be displayed
	IsInteractive() bool
}

// Option is a selectable entry whose label differs from its value.
type Option struct {
	Label string
	Value string
}

// Select presents labelled options and returns the value of the chosen one.
func Select(ctx context.Context, p Prompter, message string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options to select from")
	}

	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.Label
	}

	chosen, err := p.PromptSelect(ctx, message, labels)
	if err != nil {
		return "", err
	}
	for _, opt := range options {
		if opt.Label == chosen {
			return opt.Value, nil
		}
	}
	return "", ErrCancelled
}

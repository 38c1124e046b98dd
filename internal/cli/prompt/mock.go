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


package prompt

import (
	"context"
	"fmt"
)

// MockPrompter implements Prompter with scripted responses for testing.
// Responses are consumed in order; an error response is returned as is.
type MockPrompter struct {
	responses    []interface{}
	currentIndex int
	interactive  bool
	callLog      []string
}

// NewMockPrompter creates a new mock prompter with pre-scripted responses.
func NewMockPrompter(interactive bool, responses ...interface{}) *MockPrompter {
	return &MockPrompter{
		responses:   responses,
		interactive: interactive,
		callLog:     make([]string, 0),
	}
}

func (mp *MockPrompter) next(call string) (interface{}, bool, error) {
	mp.callLog = append(mp.callLog, call)

	if !mp.interactive {
		return nil, false, ErrNonInteractive
	}
	if mp.currentIndex >= len(mp.responses) {
		return nil, false, nil
	}

	resp := mp.responses[mp.currentIndex]
	mp.currentIndex++
	if err, ok := resp.(error); ok {
		return nil, false, err
	}
	return resp, true, nil
}

// PromptString returns the next string response, or def when none is left.
func (mp *MockPrompter) PromptString(ctx context.Context, message, def string, required bool) (string, error) {
	resp, ok, err := mp.next(fmt.Sprintf("PromptString(%s)", message))
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}

	str, isStr := resp.(string)
	if !isStr {
		return "", fmt.Errorf("mock response is not a string")
	}
	if required {
		if err := ValidateRequired(str); err != nil {
			return "", err
		}
	}
	return str, nil
}

// PromptSelect returns the next string response. It must be one of options.
func (mp *MockPrompter) PromptSelect(ctx context.Context, message string, options []string) (string, error) {
	resp, ok, err := mp.next(fmt.Sprintf("PromptSelect(%s)", message))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCancelled
	}

	str, isStr := resp.(string)
	if !isStr {
		return "", fmt.Errorf("mock response is not a string")
	}
	for _, opt := range options {
		if opt == str {
			return str, nil
		}
	}
	return "", fmt.Errorf("mock response %q is not one of the options", str)
}

// PromptConfirm returns the next boolean response, or def when none is left.
func (mp *MockPrompter) PromptConfirm(ctx context.Context, message string, def bool) (bool, error) {
	resp, ok, err := mp.next(fmt.Sprintf("PromptConfirm(%s)", message))
	if err != nil {
		return false, err
	}
	if !ok {
		return def, nil
	}

	b, isBool := resp.(bool)
	if !isBool {
		return false, fmt.Errorf("mock response is not a boolean")
	}
	return b, nil
}

// IsInteractive returns the configured interactive state.
func (mp *MockPrompter) IsInteractive() bool {
	return mp.interactive
}

// CallLog returns the prompts issued so far.
func (mp *MockPrompter) CallLog() []string {
	return mp.callLog
}

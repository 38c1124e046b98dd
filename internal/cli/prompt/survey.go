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
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// SurveyPrompter implements Prompter using the survey library.
type SurveyPrompter struct {
	interactive bool
}

// NewSurveyPrompter creates a new survey-based prompter.
func NewSurveyPrompter(interactive bool) *SurveyPrompter {
	return &SurveyPrompter{
		interactive: interactive,
	}
}

// PromptString collects a string input using survey.Input.
func (sp *SurveyPrompter) PromptString(ctx context.Context, message, def string, required bool) (string, error) {
	if !sp.interactive {
		return "", ErrNonInteractive
	}

	var result string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}

	validators := []survey.Validator{func(ans interface{}) error {
		if str, ok := ans.(string); ok {
			return ValidateString(str)
		}
		return nil
	}}
	if required {
		validators = append(validators, func(ans interface{}) error {
			if str, ok := ans.(string); ok {
				return ValidateRequired(str)
			}
			return nil
		})
	}

	err := survey.AskOne(prompt, &result, survey.WithValidator(survey.ComposeValidators(validators...)))
	return result, translate(err)
}

// PromptSelect collects a selection using survey.Select.
func (sp *SurveyPrompter) PromptSelect(ctx context.Context, message string, options []string) (string, error) {
	if !sp.interactive {
		return "", ErrNonInteractive
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided for %q", message)
	}

	var result string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}

	err := survey.AskOne(prompt, &result)
	return result, translate(err)
}

// PromptConfirm collects a yes/no answer using survey.Confirm.
func (sp *SurveyPrompter) PromptConfirm(ctx context.Context, message string, def bool) (bool, error) {
	if !sp.interactive {
		return false, ErrNonInteractive
	}

	var result bool
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}

	err := survey.AskOne(prompt, &result)
	return result, translate(err)
}

// IsInteractive returns whether the prompter can display interactive prompts.
func (sp *SurveyPrompter) IsInteractive() bool {
	return sp.interactive
}

// translate maps Ctrl-C to ErrCancelled.
func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrCancelled
	}
	return err
}

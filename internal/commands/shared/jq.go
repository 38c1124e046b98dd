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
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tombee/mcpm/internal/jq"
)

// WriteJQ runs expr over data and prints each result: strings raw, other
// values as compact JSON.
func WriteJQ(ctx context.Context, w io.Writer, expr string, data any) error {
	executor := jq.NewExecutor(jq.DefaultTimeout, jq.DefaultMaxInputSize)
	if err := executor.Validate(expr); err != nil {
		return NewValidationError("invalid --jq expression", err)
	}

	results, err := executor.Execute(ctx, expr, data)
	if err != nil {
		return NewFailureError("jq filter failed", err)
	}
	for _, r := range results {
		if s, ok := r.(string); ok {
			fmt.Fprintln(w, s)
			continue
		}
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode jq result: %w", err)
		}
		fmt.Fprintln(w, string(b))
	}
	return nil
}

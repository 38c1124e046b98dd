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
Package tracing sets up OpenTelemetry for mcpm.

Tool invocations are wrapped in spans by the proxy through the global
tracer provider. When tracing is disabled the global provider stays the
no-op default and spans cost nothing. When enabled, spans are written by
the console exporter to stderr as they end.

	provider, err := tracing.Setup(tracing.Config{
	    Enabled:        true,
	    Exporter:       tracing.ExporterConsole,
	    ServiceVersion: version,
	})
	if err != nil {
	    return err
	}
	defer provider.Shutdown(context.Background())
*/
package tracing

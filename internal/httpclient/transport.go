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


package httpclient

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// loggingTransport sets the User-Agent and logs each attempt.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	attrs := []any{
		slog.String("method", req.Method),
		slog.String("url", sanitizeURL(req.URL)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	}

	if err != nil {
		t.logger.WarnContext(req.Context(), "http request failed", append(attrs, slog.Any("error", err))...)
		return nil, err
	}
	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelWarn
	}
	t.logger.Log(req.Context(), level, "http request", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}

// sensitiveParams are query parameter name fragments whose values are redacted.
var sensitiveParams = []string{"token", "key", "secret", "password", "auth", "credential"}

// sanitizeURL drops user info and redacts sensitive query values.
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	safe := *u
	safe.User = nil

	q := safe.Query()
	for param := range q {
		lower := strings.ToLower(param)
		for _, s := range sensitiveParams {
			if strings.Contains(lower, s) {
				q.Set(param, "REDACTED")
				break
			}
		}
	}
	safe.RawQuery = q.Encode()
	return safe.String()
}

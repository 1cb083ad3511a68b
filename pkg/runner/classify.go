// Copyright 2026 The Evalloom Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"strings"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

// classifyError buckets a failure message into the error taxonomy, in
// priority order: timeout, api, judge, unknown.
func classifyError(message string) evalcase.ErrorKind {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return evalcase.ErrorKindTimeout
	case containsAny(lower, "api", "rate limit", "429", "500", "502", "503", "529", "overloaded", "api error"):
		return evalcase.ErrorKindAPI
	case strings.Contains(lower, "judge"):
		return evalcase.ErrorKindJudge
	default:
		return evalcase.ErrorKindUnknown
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

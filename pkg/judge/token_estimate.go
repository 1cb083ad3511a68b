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

package judge

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEstimator approximates prompt/response token counts for provider
// responses that report no token usage at all. It is only ever a
// fallback: a provider's own reported usage always wins.
type tokenEstimator struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

var (
	globalTokenEstimator *tokenEstimator
	tokenEstimatorOnce   sync.Once
)

// getTokenEstimator returns the process-wide estimator, built lazily on
// cl100k_base (the GPT-4 encoding, a reasonable stand-in for Claude's own
// tokenizer since none is published).
func getTokenEstimator() *tokenEstimator {
	tokenEstimatorOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			globalTokenEstimator = &tokenEstimator{encoder: nil}
			return
		}
		globalTokenEstimator = &tokenEstimator{encoder: enc}
	})
	return globalTokenEstimator
}

// count estimates the token count of text, falling back to a char/4
// approximation if the encoder failed to load.
func (e *tokenEstimator) count(text string) int {
	if e.encoder == nil {
		return len(text) / 4
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.encoder.Encode(text, nil, nil))
}

// estimatedCostPerMillionInput/Output are per-million-token rates used
// only when a provider's response reports no tokens. They track
// Claude 3.5 Sonnet list pricing, the same reference point the Anthropic
// provider's own cost estimate uses.
const (
	estimatedCostPerMillionInput  = 3.00
	estimatedCostPerMillionOutput = 15.00
)

// estimateJudgeCallCost fills in estimatedInputTokens, estimatedOutputTokens
// and estimatedCostUsd on details when usage reports no tokens, approximating
// them from the prompt sent and the response text received.
func estimateJudgeCallCost(details map[string]any, prompt, responseText string, reportedTotalTokens int) {
	if reportedTotalTokens > 0 {
		return
	}
	est := getTokenEstimator()
	inTok := est.count(prompt)
	outTok := est.count(responseText)
	cost := float64(inTok)/1_000_000*estimatedCostPerMillionInput + float64(outTok)/1_000_000*estimatedCostPerMillionOutput
	details["estimatedInputTokens"] = inTok
	details["estimatedOutputTokens"] = outTok
	details["estimatedCostUsd"] = cost
}

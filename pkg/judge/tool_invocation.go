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
	"context"
	"fmt"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

// ToolInvocationJudge checks each expected tool's call count against its
// [min,max] bounds, and when expectedInput is given, restricts the count
// to calls whose input is a superset of it.
type ToolInvocationJudge struct{}

func NewToolInvocationJudge() *ToolInvocationJudge { return &ToolInvocationJudge{} }

func (j *ToolInvocationJudge) Evaluate(_ context.Context, jctx Context) (evalcase.JudgeResult, error) {
	expected := jctx.EvalCase.ExpectedToolCalls
	if len(expected) == 0 {
		return notApplicable(), nil
	}

	satisfied := 0
	var unsatisfied []string
	for _, exp := range expected {
		count := countMatchingCalls(jctx.Result.ToolCalls, exp)
		min, max := exp.Bounds()
		ok := count >= min && (max < 0 || count <= max)
		if ok {
			satisfied++
		} else {
			unsatisfied = append(unsatisfied, fmt.Sprintf("%s: got %d, want [%d,%s]", exp.ToolName, count, min, boundsMaxLabel(max)))
		}
	}

	score := 100 * float64(satisfied) / float64(len(expected))
	passed := satisfied == len(expected)
	reasoning := fmt.Sprintf("%d/%d tool call expectations satisfied", satisfied, len(expected))
	if len(unsatisfied) > 0 {
		reasoning += fmt.Sprintf("; unsatisfied: %v", unsatisfied)
	}

	return evalcase.JudgeResult{
		Passed:     passed,
		Score:      score,
		Confidence: 1,
		Reasoning:  reasoning,
		Details:    map[string]any{"unsatisfied": unsatisfied},
	}, nil
}

func countMatchingCalls(calls []evalcase.ToolCallRecord, exp evalcase.ExpectedToolCall) int {
	count := 0
	for _, call := range calls {
		if call.ToolName != exp.ToolName {
			continue
		}
		if len(exp.ExpectedInput) > 0 && !inputContains(call.Input, exp.ExpectedInput) {
			continue
		}
		count++
	}
	return count
}

// inputContains reports whether actual is a superset of expected, i.e.
// every key in expected exists in actual with an equal value.
func inputContains(actual, expected map[string]any) bool {
	for k, v := range expected {
		av, ok := actual[k]
		if !ok || fmt.Sprintf("%v", av) != fmt.Sprintf("%v", v) {
			return false
		}
	}
	return true
}

func boundsMaxLabel(max int) string {
	if max < 0 {
		return "inf"
	}
	return fmt.Sprintf("%d", max)
}

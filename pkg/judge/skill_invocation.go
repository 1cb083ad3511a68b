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
	"strings"

	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/sessionlog"
)

const skillInvocationPassThreshold = 80.0

// SkillInvocationJudge counts invocations of each expected skill, drawing
// evidence from both in-process tool calls and a claude-code session-log
// scan (regardless of the run's configured agentType, since Skill
// invocation is a claude-code-specific mechanism).
type SkillInvocationJudge struct{}

func NewSkillInvocationJudge() *SkillInvocationJudge { return &SkillInvocationJudge{} }

func (j *SkillInvocationJudge) Evaluate(_ context.Context, jctx Context) (evalcase.JudgeResult, error) {
	expected := jctx.EvalCase.ExpectedSkills
	if len(expected) == 0 {
		return notApplicable(), nil
	}

	invoked := invokedSkillNames(jctx)

	satisfied := 0
	var unsatisfied []string
	for _, exp := range expected {
		count := invoked[exp.SkillName]
		minCalls := exp.MinCalls
		if minCalls <= 0 {
			minCalls = 1
		}
		if count >= minCalls {
			satisfied++
		} else {
			unsatisfied = append(unsatisfied, fmt.Sprintf("%s: got %d, want >=%d", exp.SkillName, count, minCalls))
		}
	}

	score := 100 * float64(satisfied) / float64(len(expected))
	passed := score >= skillInvocationPassThreshold
	reasoning := fmt.Sprintf("%d/%d expected skills invoked sufficiently", satisfied, len(expected))
	if len(unsatisfied) > 0 {
		reasoning += fmt.Sprintf("; unsatisfied: %v", unsatisfied)
	}

	return evalcase.JudgeResult{Passed: passed, Score: score, Confidence: 1, Reasoning: reasoning}, nil
}

// invokedSkillNames tallies Skill tool invocations by skill name, reading
// the "skill" or "command" input field and stripping a leading slash.
func invokedSkillNames(jctx Context) map[string]int {
	counts := make(map[string]int)
	for _, call := range jctx.Result.ToolCalls {
		if call.ToolName != "Skill" {
			continue
		}
		if name, ok := skillNameFromInput(call.Input); ok {
			counts[name]++
		}
	}
	for _, use := range sessionlog.FindToolUsesByName(jctx.Workspace, "Skill") {
		if name, ok := skillNameFromInput(use.Input); ok {
			counts[name]++
		}
	}
	return counts
}

func skillNameFromInput(input map[string]any) (string, bool) {
	for _, key := range []string{"skill", "command"} {
		if v, ok := input[key]; ok {
			if s, ok := v.(string); ok {
				return strings.TrimPrefix(s, "/"), true
			}
		}
	}
	return "", false
}

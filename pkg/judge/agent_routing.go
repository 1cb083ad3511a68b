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
	"strings"

	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/sessionlog"
)

var delegationIntentKeywords = []string{
	"delegate", "task tool", "subagent", "agent", "specialized", "use the", "invoke", "call the",
}

// AgentRoutingJudge grades whether the agent under test delegated to the
// expected subagent, using a composite heuristic over both actual Task
// tool invocations and delegation-intent language in the output.
type AgentRoutingJudge struct {
	// routingKeywords maps an agent id to the work-type keywords rule (5)
	// looks for. Nil/empty means rule (5) never fires.
	routingKeywords map[string][]string
}

func NewAgentRoutingJudge(routingKeywords map[string][]string) *AgentRoutingJudge {
	return &AgentRoutingJudge{routingKeywords: routingKeywords}
}

func (j *AgentRoutingJudge) Evaluate(_ context.Context, jctx Context) (evalcase.JudgeResult, error) {
	c := jctx.EvalCase
	if c.ExpectedAgent == "" {
		return notApplicable(), nil
	}

	invoked := invokedAgentNames(jctx)
	expectedInvoked := invoked[c.ExpectedAgent]
	forbiddenInvoked := false
	for _, forbidden := range c.ShouldNotRoute {
		if invoked[forbidden] {
			forbiddenInvoked = true
			break
		}
	}

	output := strings.ToLower(jctx.Result.Output)
	hasDelegationIntent := containsAny(output, delegationIntentKeywords)
	mentionsExpected := strings.Contains(output, strings.ToLower(c.ExpectedAgent))
	mentionsForbidden := false
	for _, forbidden := range c.ShouldNotRoute {
		if strings.Contains(output, strings.ToLower(forbidden)) {
			mentionsForbidden = true
			break
		}
	}

	switch {
	case expectedInvoked && !forbiddenInvoked:
		return routingResult(100, true, "expected agent invoked, no forbidden agent invoked"), nil
	case expectedInvoked && forbiddenInvoked:
		return routingResult(50, false, "expected agent invoked but a forbidden agent was also invoked"), nil
	case !anyInvoked(invoked) && mentionsExpected && hasDelegationIntent && !mentionsForbidden:
		return routingResult(80, true, "no Task invocation, but output signals delegation intent toward the expected agent"), nil
	case hasDelegationIntent && mentionsExpected && mentionsForbidden:
		return routingResult(40, false, "delegation intent toward both the expected and a forbidden agent"), nil
	case !hasDelegationIntent && j.workTypeKeywordCount(c.ExpectedAgent, output) >= 2:
		return routingResult(70, true, "no delegation but multiple expected-agent work-type keywords present"), nil
	default:
		return routingResult(0, false, "no agent invocation and no delegation intent detected"), nil
	}
}

func routingResult(score float64, passed bool, reasoning string) evalcase.JudgeResult {
	return evalcase.JudgeResult{Passed: passed, Score: score, Confidence: 1, Reasoning: reasoning}
}

func (j *AgentRoutingJudge) workTypeKeywordCount(agent, output string) int {
	keywords := j.routingKeywords[agent]
	count := 0
	for _, kw := range keywords {
		if strings.Contains(output, strings.ToLower(kw)) {
			count++
		}
	}
	return count
}

// invokedAgentNames reports which agents were targets of a Task tool
// call, combining in-process tool calls with a claude-code session-log
// scan.
func invokedAgentNames(jctx Context) map[string]bool {
	invoked := make(map[string]bool)
	for _, call := range jctx.Result.ToolCalls {
		if call.ToolName != "Task" {
			continue
		}
		if name, ok := agentNameFromInput(call.Input); ok {
			invoked[name] = true
		}
	}
	for _, use := range sessionlog.FindToolUsesByName(jctx.Workspace, "Task") {
		if name, ok := agentNameFromInput(use.Input); ok {
			invoked[name] = true
		}
	}
	return invoked
}

func agentNameFromInput(input map[string]any) (string, bool) {
	for _, key := range []string{"agent", "subagent_type"} {
		if v, ok := input[key]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func anyInvoked(invoked map[string]bool) bool {
	for _, v := range invoked {
		if v {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

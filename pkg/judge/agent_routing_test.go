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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/evalloom/pkg/evalcase"
)

func TestAgentRoutingJudge_NotApplicableWithoutExpectedAgent(t *testing.T) {
	t.Parallel()
	j := NewAgentRoutingJudge(nil)
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{}})
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestAgentRoutingJudge_ExpectedAgentInvokedViaToolCall(t *testing.T) {
	t.Parallel()
	j := NewAgentRoutingJudge(nil)
	c := evalcase.EvalCase{ExpectedAgent: "reviewer"}
	jctx := Context{
		EvalCase: c,
		Result: evalcase.ExecutionResult{
			ToolCalls: []evalcase.ToolCallRecord{{ToolName: "Task", Input: map[string]any{"agent": "reviewer"}}},
		},
	}
	result, err := j.Evaluate(context.Background(), jctx)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 100.0, result.Score)
}

func TestAgentRoutingJudge_ForbiddenAgentAlsoInvoked(t *testing.T) {
	t.Parallel()
	j := NewAgentRoutingJudge(nil)
	c := evalcase.EvalCase{ExpectedAgent: "reviewer", ShouldNotRoute: []string{"deployer"}}
	jctx := Context{
		EvalCase: c,
		Result: evalcase.ExecutionResult{
			ToolCalls: []evalcase.ToolCallRecord{
				{ToolName: "Task", Input: map[string]any{"agent": "reviewer"}},
				{ToolName: "Task", Input: map[string]any{"agent": "deployer"}},
			},
		},
	}
	result, err := j.Evaluate(context.Background(), jctx)
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestAgentRoutingJudge_WorkTypeKeywordsFireWithConfiguredVocabulary(t *testing.T) {
	t.Parallel()
	j := NewAgentRoutingJudge(map[string][]string{"planner": {"design", "roadmap"}})
	c := evalcase.EvalCase{ExpectedAgent: "planner"}
	jctx := Context{
		EvalCase: c,
		Result:   evalcase.ExecutionResult{Output: "I will design the roadmap for this feature."},
	}
	result, err := j.Evaluate(context.Background(), jctx)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 70.0, result.Score)
}

func TestAgentRoutingJudge_NoInvocationNoIntentFails(t *testing.T) {
	t.Parallel()
	j := NewAgentRoutingJudge(nil)
	c := evalcase.EvalCase{ExpectedAgent: "reviewer"}
	jctx := Context{EvalCase: c, Result: evalcase.ExecutionResult{Output: "done."}}
	result, err := j.Evaluate(context.Background(), jctx)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, 0.0, result.Score)
}

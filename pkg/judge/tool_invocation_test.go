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

func intPtr(i int) *int { return &i }

func TestToolInvocationJudge_NotApplicableWithoutExpectations(t *testing.T) {
	t.Parallel()
	j := NewToolInvocationJudge()
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{}})
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestToolInvocationJudge_DefaultBoundsRequireAtLeastOneCall(t *testing.T) {
	t.Parallel()
	j := NewToolInvocationJudge()
	c := evalcase.EvalCase{ExpectedToolCalls: []evalcase.ExpectedToolCall{{ToolName: "Write"}}}

	result, err := j.Evaluate(context.Background(), Context{EvalCase: c, Result: evalcase.ExecutionResult{}})
	require.NoError(t, err)
	assert.False(t, result.Passed)

	withCall := Context{EvalCase: c, Result: evalcase.ExecutionResult{
		ToolCalls: []evalcase.ToolCallRecord{{ToolName: "Write"}},
	}}
	result, err = j.Evaluate(context.Background(), withCall)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 100.0, result.Score)
}

func TestToolInvocationJudge_MaxCallsExceeded(t *testing.T) {
	t.Parallel()
	j := NewToolInvocationJudge()
	c := evalcase.EvalCase{ExpectedToolCalls: []evalcase.ExpectedToolCall{
		{ToolName: "Write", MinCalls: intPtr(1), MaxCalls: intPtr(1)},
	}}
	jctx := Context{EvalCase: c, Result: evalcase.ExecutionResult{
		ToolCalls: []evalcase.ToolCallRecord{{ToolName: "Write"}, {ToolName: "Write"}},
	}}
	result, err := j.Evaluate(context.Background(), jctx)
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestToolInvocationJudge_ExpectedInputRestrictsMatchingCalls(t *testing.T) {
	t.Parallel()
	j := NewToolInvocationJudge()
	c := evalcase.EvalCase{ExpectedToolCalls: []evalcase.ExpectedToolCall{
		{ToolName: "Write", ExpectedInput: map[string]any{"path": "a.go"}},
	}}
	jctx := Context{EvalCase: c, Result: evalcase.ExecutionResult{
		ToolCalls: []evalcase.ToolCallRecord{
			{ToolName: "Write", Input: map[string]any{"path": "b.go"}},
		},
	}}
	result, err := j.Evaluate(context.Background(), jctx)
	require.NoError(t, err)
	assert.False(t, result.Passed)

	jctx.Result.ToolCalls = []evalcase.ToolCallRecord{
		{ToolName: "Write", Input: map[string]any{"path": "a.go", "content": "x"}},
	}
	result, err = j.Evaluate(context.Background(), jctx)
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

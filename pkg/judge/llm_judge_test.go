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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/llmprovider"
)

type scriptedProvider struct {
	response string
	err      error
}

func (p scriptedProvider) Complete(ctx context.Context, messages []llmprovider.Message) (*llmprovider.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llmprovider.Response{Content: p.response}, nil
}

func (scriptedProvider) Name() string  { return "scripted" }
func (scriptedProvider) Model() string { return "scripted-model" }

func writeRubric(t *testing.T, dir, id, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".md"), []byte(contents), 0o644))
}

func TestLLMJudge_MissingRubricFileFails(t *testing.T) {
	t.Parallel()
	j := NewLLMJudge(scriptedProvider{}, t.TempDir(), "correctness")
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{}})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasoning, "failed to load rubric")
}

func TestLLMJudge_ProviderErrorFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRubric(t, dir, "correctness", "# check correctness")

	j := NewLLMJudge(scriptedProvider{err: errors.New("connection refused")}, dir, "correctness")
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{}})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasoning, "LLM call failed")
}

func TestLLMJudge_ParsesFencedJSONVerdict(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRubric(t, dir, "correctness", "# check correctness")

	response := "Here is my verdict:\n```json\n{\"score\": 92, \"passed\": true, \"confidence\": 0.9, \"reasoning\": \"looks good\"}\n```\n"
	j := NewLLMJudge(scriptedProvider{response: response}, dir, "correctness")
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{}})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 92.0, result.Score)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, "looks good", result.Reasoning)
}

func TestLLMJudge_DerivesPassedFromThresholdWhenAbsent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRubric(t, dir, "correctness", "# check correctness")

	response := "```json\n{\"score\": 40, \"confidence\": 0.5, \"reasoning\": \"weak\"}\n```"
	j := NewLLMJudge(scriptedProvider{response: response}, dir, "correctness")
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{}})
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestLLMJudge_UnparseableResponseFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRubric(t, dir, "correctness", "# check correctness")

	j := NewLLMJudge(scriptedProvider{response: "not json at all"}, dir, "correctness")
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{}})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasoning, "Failed to parse LLM response")
}

func TestLLMJudge_EstimatesCostWhenProviderReportsNoTokens(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRubric(t, dir, "correctness", "# check correctness")

	response := "```json\n{\"score\": 80, \"passed\": true, \"confidence\": 0.8, \"reasoning\": \"fine\"}\n```"
	j := NewLLMJudge(scriptedProvider{response: response}, dir, "correctness")
	result, err := j.Evaluate(context.Background(), Context{EvalCase: evalcase.EvalCase{Prompt: "do the thing"}})
	require.NoError(t, err)
	require.NotNil(t, result.Details)
	assert.Greater(t, result.Details["estimatedInputTokens"], 0)
	assert.Greater(t, result.Details["estimatedOutputTokens"], 0)
	assert.Greater(t, result.Details["estimatedCostUsd"], 0.0)
}

func TestLLMJudge_PairwisePromptUsedWhenReferenceSolutionPresent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRubric(t, dir, "correctness", "# check correctness")

	response := "```json\n{\"score\": 100, \"passed\": true, \"confidence\": 1, \"reasoning\": \"matches reference\"}\n```"
	j := NewLLMJudge(scriptedProvider{response: response}, dir, "correctness")
	c := evalcase.EvalCase{
		Prompt:            "implement add()",
		ReferenceSolution: &evalcase.ReferenceSolution{Code: "func add(a, b int) int { return a + b }"},
	}
	result, err := j.Evaluate(context.Background(), Context{EvalCase: c, Workspace: dir})
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

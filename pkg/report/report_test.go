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
package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/weftlabs/evalloom/pkg/evalcase"
)

func caseResult(id string, category evalcase.Category, success bool, errMsg string, errType evalcase.ErrorKind) evalcase.EvalCaseResult {
	return evalcase.EvalCaseResult{
		EvalCase:  evalcase.EvalCase{ID: id, Name: id, Category: category},
		Success:   success,
		Error:     errMsg,
		ErrorType: errType,
	}
}

func TestSummarizeByCategory(t *testing.T) {
	t.Parallel()

	results := []evalcase.EvalCaseResult{
		caseResult("c1", evalcase.CategoryBasic, true, "", ""),
		caseResult("c2", evalcase.CategoryBasic, false, "pattern mismatch", evalcase.ErrorKindJudge),
		caseResult("c3", evalcase.CategoryBasic, false, "workspace create failed", ""),
		caseResult("c4", evalcase.CategoryTool, true, "", ""),
	}

	summaries := SummarizeByCategory(results)
	require := map[evalcase.Category]CategorySummary{}
	for _, s := range summaries {
		require[s.Category] = s
	}

	basic := require[evalcase.CategoryBasic]
	assert.Equal(t, 3, basic.Total)
	assert.Equal(t, 1, basic.Passed)
	assert.Equal(t, 1, basic.Failed)
	assert.Equal(t, 1, basic.Errors)
	assert.InDelta(t, 1.0/3.0, basic.PassRate, 0.0001)

	tool := require[evalcase.CategoryTool]
	assert.Equal(t, 1, tool.Total)
	assert.Equal(t, 1, tool.Passed)
}

func TestSummarizeByCategory_HardErrorVsClassifiedFailure(t *testing.T) {
	t.Parallel()

	// A blank ErrorType alongside a non-empty Error is the hard-error
	// signal; a populated ErrorType is an ordinary classified failure.
	hardError := caseResult("c1", evalcase.CategoryBasic, false, "workspace creation failed", "")
	classifiedFailure := caseResult("c2", evalcase.CategoryBasic, false, "timed out", evalcase.ErrorKindTimeout)

	summaries := SummarizeByCategory([]evalcase.EvalCaseResult{hardError, classifiedFailure})
	assert.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Errors)
	assert.Equal(t, 1, summaries[0].Failed)
}

func TestSummarizeErrors(t *testing.T) {
	t.Parallel()

	results := []evalcase.EvalCaseResult{
		caseResult("c1", evalcase.CategoryBasic, false, "request timed out", evalcase.ErrorKindTimeout),
		caseResult("c2", evalcase.CategoryBasic, false, "request timed out again", evalcase.ErrorKindTimeout),
		caseResult("c3", evalcase.CategoryBasic, false, "judge disagreed", evalcase.ErrorKindJudge),
		caseResult("c4", evalcase.CategoryBasic, true, "", ""),
	}

	summaries := SummarizeErrors(results)
	assert.Len(t, summaries, 2)

	for _, s := range summaries {
		if s.ErrorType == evalcase.ErrorKindTimeout {
			assert.Equal(t, 2, s.Count)
			assert.Len(t, s.Examples, 2)
		}
	}
}

func TestSummarizeErrors_ExcludesHardErrors(t *testing.T) {
	t.Parallel()

	results := []evalcase.EvalCaseResult{
		caseResult("c1", evalcase.CategoryBasic, false, "workspace creation failed", ""),
	}
	assert.Empty(t, SummarizeErrors(results))
}

func TestCompareRuns(t *testing.T) {
	t.Parallel()

	previous := evalcase.EvalSuiteResult{
		PassRate: 0.5,
		Results: []evalcase.EvalCaseResult{
			caseResult("a", evalcase.CategoryBasic, true, "", ""),
			caseResult("b", evalcase.CategoryBasic, false, "nope", evalcase.ErrorKindJudge),
		},
	}
	current := evalcase.EvalSuiteResult{
		PassRate: 0.5,
		Results: []evalcase.EvalCaseResult{
			caseResult("a", evalcase.CategoryBasic, false, "regressed", evalcase.ErrorKindJudge),
			caseResult("b", evalcase.CategoryBasic, true, "", ""),
		},
	}

	cmp := CompareRuns(current, previous)
	assert.Equal(t, 0.0, cmp.PassRateDelta)
	assert.ElementsMatch(t, []string{"b"}, cmp.NewlyPassing)
	assert.ElementsMatch(t, []string{"a"}, cmp.NewlyFailing)
}

func TestAggregateResults(t *testing.T) {
	t.Parallel()

	runs := []evalcase.EvalSuiteResult{
		{Results: []evalcase.EvalCaseResult{
			{EvalCase: evalcase.EvalCase{ID: "x"}, Success: true, Duration: 10 * time.Millisecond},
		}},
		{Results: []evalcase.EvalCaseResult{
			{EvalCase: evalcase.EvalCase{ID: "x"}, Success: false, Duration: 20 * time.Millisecond},
		}},
	}

	agg := AggregateResults(runs)
	assert.Len(t, agg, 1)
	assert.Equal(t, 2, agg[0].Runs)
	assert.Equal(t, 1, agg[0].Passes)
	assert.Equal(t, 1, agg[0].Failures)
	assert.True(t, agg[0].Flaky)
	assert.Equal(t, 15*time.Millisecond, agg[0].AvgDuration)
	assert.InDelta(t, 0.5, agg[0].FlakinessScore, 0.0001)
}

func TestDetectRegressions(t *testing.T) {
	t.Parallel()

	baseline := evalcase.EvalSuiteResult{Results: []evalcase.EvalCaseResult{
		caseResult("a", evalcase.CategoryBasic, true, "", ""),
		caseResult("b", evalcase.CategoryBasic, false, "already failing", evalcase.ErrorKindJudge),
	}}
	current := evalcase.EvalSuiteResult{Results: []evalcase.EvalCaseResult{
		caseResult("a", evalcase.CategoryBasic, false, "now failing", evalcase.ErrorKindJudge),
		caseResult("b", evalcase.CategoryBasic, false, "still failing", evalcase.ErrorKindJudge),
	}}

	assert.Equal(t, []string{"a"}, DetectRegressions(current, baseline))
}

func TestCalculateNonDeterminismMetrics(t *testing.T) {
	t.Parallel()

	t.Run("empty is fully consistent", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1.0, CalculateNonDeterminismMetrics(nil))
	})

	t.Run("consistent across runs", func(t *testing.T) {
		t.Parallel()
		runs := []evalcase.EvalSuiteResult{
			{Results: []evalcase.EvalCaseResult{{EvalCase: evalcase.EvalCase{ID: "a"}, Success: true}}},
			{Results: []evalcase.EvalCaseResult{{EvalCase: evalcase.EvalCase{ID: "a"}, Success: true}}},
		}
		assert.Equal(t, 1.0, CalculateNonDeterminismMetrics(runs))
	})

	t.Run("flips outcome", func(t *testing.T) {
		t.Parallel()
		runs := []evalcase.EvalSuiteResult{
			{Results: []evalcase.EvalCaseResult{{EvalCase: evalcase.EvalCase{ID: "a"}, Success: true}}},
			{Results: []evalcase.EvalCaseResult{{EvalCase: evalcase.EvalCase{ID: "a"}, Success: false}}},
		}
		assert.Equal(t, 0.0, CalculateNonDeterminismMetrics(runs))
	})
}

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

// Package report holds the pure summarization and comparison functions
// that turn one or more EvalSuiteResults into human- and machine-readable
// reports. Nothing here touches the filesystem or network.
package report

import (
	"fmt"
	"time"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

// CategorySummary is the pass/fail breakdown for one eval case category.
type CategorySummary struct {
	Category evalcase.Category
	Total    int
	Passed   int
	Failed   int
	Errors   int
	PassRate float64
}

// SummarizeByCategory buckets results by category and computes pass rate
// per bucket.
func SummarizeByCategory(results []evalcase.EvalCaseResult) []CategorySummary {
	order := []evalcase.Category{}
	buckets := map[evalcase.Category]*CategorySummary{}

	for _, r := range results {
		cat := r.EvalCase.Category
		b, ok := buckets[cat]
		if !ok {
			b = &CategorySummary{Category: cat}
			buckets[cat] = b
			order = append(order, cat)
		}
		b.Total++
		switch {
		case isErrorResult(r):
			b.Errors++
		case r.Success:
			b.Passed++
		default:
			b.Failed++
		}
	}

	summaries := make([]CategorySummary, 0, len(order))
	for _, cat := range order {
		b := buckets[cat]
		if b.Total > 0 {
			b.PassRate = float64(b.Passed) / float64(b.Total)
		}
		summaries = append(summaries, *b)
	}
	return summaries
}

// ErrorSummary aggregates failures of one errorType with a handful of
// truncated examples.
type ErrorSummary struct {
	ErrorType evalcase.ErrorKind
	Count     int
	Examples  []string
}

const maxErrorExamples = 3
const errorExampleMessageLimit = 100

// SummarizeErrors groups non-passing results by errorType.
func SummarizeErrors(results []evalcase.EvalCaseResult) []ErrorSummary {
	order := []evalcase.ErrorKind{}
	buckets := map[evalcase.ErrorKind]*ErrorSummary{}

	for _, r := range results {
		if r.Success || r.ErrorType == "" {
			continue
		}
		b, ok := buckets[r.ErrorType]
		if !ok {
			b = &ErrorSummary{ErrorType: r.ErrorType}
			buckets[r.ErrorType] = b
			order = append(order, r.ErrorType)
		}
		b.Count++
		if len(b.Examples) < maxErrorExamples {
			b.Examples = append(b.Examples, fmt.Sprintf("%s: %s", r.EvalCase.Name, truncate(r.Error, errorExampleMessageLimit)))
		}
	}

	summaries := make([]ErrorSummary, 0, len(order))
	for _, kind := range order {
		summaries = append(summaries, *buckets[kind])
	}
	return summaries
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// isErrorResult mirrors the runner's fold(): a blank ErrorType alongside a
// non-empty Error means no ExecutionResult was ever produced (workspace
// creation failed, a hook threw), the one case that counts as a hard
// error rather than an ordinary classified failure.
func isErrorResult(r evalcase.EvalCaseResult) bool {
	return r.Error != "" && r.ErrorType == "" && !r.Success
}

// RunComparison is the outcome of diffing two suite results by case id.
type RunComparison struct {
	PassRateDelta float64
	NewlyPassing  []string
	NewlyFailing  []string
}

// CompareRuns diffs current against previous, keyed by case id.
func CompareRuns(current, previous evalcase.EvalSuiteResult) RunComparison {
	prevByID := indexByID(previous.Results)
	currByID := indexByID(current.Results)

	cmp := RunComparison{PassRateDelta: current.PassRate - previous.PassRate}
	for id, curr := range currByID {
		prev, ok := prevByID[id]
		if !ok {
			continue
		}
		if curr.Success && !prev.Success {
			cmp.NewlyPassing = append(cmp.NewlyPassing, id)
		}
		if !curr.Success && prev.Success {
			cmp.NewlyFailing = append(cmp.NewlyFailing, id)
		}
	}
	return cmp
}

func indexByID(results []evalcase.EvalCaseResult) map[string]evalcase.EvalCaseResult {
	m := make(map[string]evalcase.EvalCaseResult, len(results))
	for _, r := range results {
		m[r.EvalCase.ID] = r
	}
	return m
}

// AggregatedCase is one case's statistics across repeated runs.
type AggregatedCase struct {
	CaseID         string
	Runs           int
	Passes         int
	Failures       int
	PassRate       float64
	AvgDuration    time.Duration
	Flaky          bool
	FlakinessScore float64
}

// AggregateResults computes per-case statistics across a series of runs
// of the same suite.
func AggregateResults(runs []evalcase.EvalSuiteResult) []AggregatedCase {
	type acc struct {
		runs, passes, failures int
		totalDuration          time.Duration
	}
	order := []string{}
	accs := map[string]*acc{}

	for _, run := range runs {
		for _, r := range run.Results {
			id := r.EvalCase.ID
			a, ok := accs[id]
			if !ok {
				a = &acc{}
				accs[id] = a
				order = append(order, id)
			}
			a.runs++
			a.totalDuration += r.Duration
			if r.Success {
				a.passes++
			} else {
				a.failures++
			}
		}
	}

	out := make([]AggregatedCase, 0, len(order))
	for _, id := range order {
		a := accs[id]
		ac := AggregatedCase{
			CaseID:   id,
			Runs:     a.runs,
			Passes:   a.passes,
			Failures: a.failures,
			Flaky:    a.passes > 0 && a.passes < a.runs,
		}
		if a.runs > 0 {
			ac.PassRate = float64(a.passes) / float64(a.runs)
			ac.AvgDuration = a.totalDuration / time.Duration(a.runs)
			ac.FlakinessScore = float64(min(a.passes, a.failures)) / float64(a.runs)
		}
		out = append(out, ac)
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DetectRegressions returns case ids that passed in baseline but fail in
// current.
func DetectRegressions(current, baseline evalcase.EvalSuiteResult) []string {
	baseByID := indexByID(baseline.Results)
	var regressions []string
	for _, r := range current.Results {
		base, ok := baseByID[r.EvalCase.ID]
		if ok && base.Success && !r.Success {
			regressions = append(regressions, r.EvalCase.ID)
		}
	}
	return regressions
}

// CalculateNonDeterminismMetrics reports the fraction of cases whose
// success/failure is identical across every run.
func CalculateNonDeterminismMetrics(runs []evalcase.EvalSuiteResult) float64 {
	if len(runs) == 0 {
		return 1
	}
	outcomes := map[string][]bool{}
	for _, run := range runs {
		for _, r := range run.Results {
			outcomes[r.EvalCase.ID] = append(outcomes[r.EvalCase.ID], r.Success)
		}
	}
	if len(outcomes) == 0 {
		return 1
	}

	consistent := 0
	for _, results := range outcomes {
		if allSame(results) {
			consistent++
		}
	}
	return float64(consistent) / float64(len(outcomes))
}

func allSame(values []bool) bool {
	if len(values) == 0 {
		return true
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return false
		}
	}
	return true
}

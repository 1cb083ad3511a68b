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

// Package judge implements the graders that turn an ExecutionResult into
// a pass/fail verdict: file-existence, pattern-match, tool-invocation,
// skill-invocation, syntax-validation, agent-routing, and an LLM-backed
// rubric judge.
package judge

import (
	"context"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

// Context carries everything a judge needs to grade one case (or, for
// multi-turn cases, one turn of one case).
type Context struct {
	EvalCase  evalcase.EvalCase
	Result    evalcase.ExecutionResult
	Workspace string
	TurnIndex *int
}

// Judge grades one execution against the contract it was configured
// with. A judge whose contract does not apply to the case's category
// returns a not-applicable pass rather than an error.
type Judge interface {
	Evaluate(ctx context.Context, jctx Context) (evalcase.JudgeResult, error)
}

// notApplicable is the canned result for a judge/category mismatch.
func notApplicable() evalcase.JudgeResult {
	return evalcase.JudgeResult{Passed: true, Score: 100, Confidence: 1, Reasoning: "Not applicable"}
}

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

// Package runner implements the orchestrator: it drives each loaded eval
// case from workspace acquisition through judging to a suite-level
// result, handling retries, trials, and parallel scheduling.
package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/weftlabs/evalloom/internal/log"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/harness"
	"github.com/weftlabs/evalloom/pkg/judge"
	"go.uber.org/zap"
)

// Hooks are optional user callbacks around the run and each case.
type Hooks struct {
	Setup      func(ctx context.Context) error
	Teardown   func(ctx context.Context) error
	BeforeEach func(ctx context.Context, c evalcase.EvalCase) error
	AfterEach  func(ctx context.Context, result evalcase.EvalCaseResult) error
}

// Runner orchestrates a suite run over a fixed harness and judge registry.
type Runner struct {
	config   evalcase.Config
	harness  *harness.Harness
	registry *judge.Registry
	hooks    Hooks
}

// New constructs a Runner.
func New(config evalcase.Config, h *harness.Harness, registry *judge.Registry, hooks Hooks) *Runner {
	return &Runner{config: config, harness: h, registry: registry, hooks: hooks}
}

// Run executes every case in cases and folds the results into a suite
// result. Cases run in parallel (bounded by config.MaxConcurrency) when
// config.Parallel is set and there is more than one case; otherwise they
// run sequentially on the calling goroutine.
func (r *Runner) Run(ctx context.Context, cases []evalcase.EvalCase) (evalcase.EvalSuiteResult, error) {
	start := time.Now()

	if r.hooks.Setup != nil {
		if err := r.hooks.Setup(ctx); err != nil {
			return evalcase.EvalSuiteResult{}, fmt.Errorf("setup hook: %w", err)
		}
	}

	log.Info("starting eval run", zap.Int("case_count", len(cases)), zap.Bool("parallel", r.config.Parallel))

	results := make([]evalcase.EvalCaseResult, len(cases))
	if r.config.Parallel && len(cases) > 1 {
		r.runParallel(ctx, cases, results)
	} else {
		for i, c := range cases {
			results[i] = r.runSingle(ctx, c)
		}
	}

	if r.hooks.Teardown != nil {
		if err := r.hooks.Teardown(ctx); err != nil {
			log.Warn("teardown hook failed", zap.Error(err))
		}
	}

	r.harness.CleanupSurvivors()

	return fold(results, start), nil
}

// runParallel drains a shared monotonic index across a fixed-size worker
// pool: each worker claims the next index atomically and writes its
// result at that slot, so the output order matches input order
// regardless of completion order.
func (r *Runner) runParallel(ctx context.Context, cases []evalcase.EvalCase, results []evalcase.EvalCaseResult) {
	workers := r.config.MaxConcurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(cases) {
		workers = len(cases)
	}

	var nextIndex int64 = -1
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&nextIndex, 1))
				if i >= len(cases) {
					return
				}
				results[i] = r.runSingle(ctx, cases[i])
			}
		}()
	}
	wg.Wait()
}

// runSingle runs a case's trial plan and invokes the beforeEach/afterEach
// hooks around it.
func (r *Runner) runSingle(ctx context.Context, c evalcase.EvalCase) evalcase.EvalCaseResult {
	if r.hooks.BeforeEach != nil {
		if err := r.hooks.BeforeEach(ctx, c); err != nil {
			log.Warn("beforeEach hook failed", zap.String("eval_id", c.ID), zap.Error(err))
		}
	}

	trialCount, passThreshold := c.TrialPlan(r.config.Trials, r.config.TrialPassThreshold)

	var result evalcase.EvalCaseResult
	if trialCount > 1 {
		result = r.runTrials(ctx, c, trialCount, passThreshold)
	} else {
		result = r.runWithRetries(ctx, c)
	}

	if r.hooks.AfterEach != nil {
		if err := r.hooks.AfterEach(ctx, result); err != nil {
			log.Warn("afterEach hook failed", zap.String("eval_id", c.ID), zap.Error(err))
		}
	}
	return result
}

func (r *Runner) runTrials(ctx context.Context, c evalcase.EvalCase, trialCount int, passThreshold float64) evalcase.EvalCaseResult {
	var trialResults []bool
	var last evalcase.EvalCaseResult
	var totalDuration time.Duration

	passCount := 0
	for t := 0; t < trialCount; t++ {
		last = r.runWithRetries(ctx, c)
		totalDuration += last.Duration
		trialResults = append(trialResults, last.Success)
		if last.Success {
			passCount++
		}
	}

	last.Success = float64(passCount)/float64(trialCount) >= passThreshold
	last.Duration = totalDuration
	last.TrialResults = trialResults
	return last
}

// runWithRetries runs up to maxRetries+1 attempts of executeAndJudge,
// retrying on failure with backoff until exhausted.
func (r *Runner) runWithRetries(ctx context.Context, c evalcase.EvalCase) evalcase.EvalCaseResult {
	var retryErrors []string
	var result evalcase.EvalCaseResult

	maxAttempts := r.config.MaxRetries + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result = r.executeAndJudge(ctx, c)

		if result.Success {
			if attempt > 0 {
				result.Flaky = true
				result.RetryCount = attempt
				result.RetryErrors = retryErrors
			}
			return result
		}

		reason := fmt.Sprintf("Attempt %d: %s", attempt+1, failureReason(result))
		retryErrors = append(retryErrors, reason)

		if attempt < maxAttempts-1 {
			log.Warn("eval case attempt failed, retrying", zap.String("eval_id", c.ID), zap.String("reason", reason))
			time.Sleep(r.retryDelay(attempt, result.ErrorType))
		}
	}

	result.RetryCount = maxAttempts - 1
	result.RetryErrors = retryErrors
	return result
}

func failureReason(result evalcase.EvalCaseResult) string {
	if result.ErrorType != "" {
		return string(result.ErrorType)
	}
	return "judge failure"
}

// retryDelay computes base*multiplier^attempt, scaled further for api
// and timeout failures since those benefit most from backing off.
func (r *Runner) retryDelay(attempt int, errorType evalcase.ErrorKind) time.Duration {
	delay := float64(r.config.RetryDelay) * pow(r.config.RetryBackoffMultiplier, attempt)
	switch errorType {
	case evalcase.ErrorKindAPI:
		delay *= 3
	case evalcase.ErrorKindTimeout:
		delay *= 1.5
	}
	return time.Duration(delay)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// executeAndJudge runs one attempt: execute the case (single- or
// multi-turn), fan judges out in parallel, and clean up the workspace
// once judging completes.
func (r *Runner) executeAndJudge(ctx context.Context, c evalcase.EvalCase) evalcase.EvalCaseResult {
	if c.Category == evalcase.CategoryMultiTurn {
		return r.executeAndJudgeMultiTurn(ctx, c)
	}

	execResult, err := r.harness.Execute(ctx, c)
	if err != nil {
		return errorResult(c, err)
	}

	judgeResults := r.runJudgesParallel(ctx, c.Judges, judge.Context{EvalCase: c, Result: execResult, Workspace: execResult.WorkingDirectory})
	r.harness.CleanupWorkspace(execResult.WorkspaceID)

	return buildCaseResult(c, execResult, judgeResults)
}

// errorResult builds a result for a case that never produced an
// ExecutionResult at all (workspace creation failed, a hook threw). Its
// ErrorType is deliberately left blank: fold uses a blank ErrorType on a
// non-empty Error as the signal that distinguishes this "no execution
// happened" bucket from an ordinary classified failure.
func errorResult(c evalcase.EvalCase, err error) evalcase.EvalCaseResult {
	return evalcase.EvalCaseResult{
		EvalCase: c,
		Success:  false,
		Error:    err.Error(),
	}
}

// partialMultiTurnFailureResult builds a result for a multi-turn case
// that aborted mid-sequence. Unlike errorResult, execution did partially
// happen, so this is an ordinary classified failure, not a hard error: the
// cause is wrapped in a ClassifiedError so callers inspecting the error
// value directly (outside of EvalCaseResult) still see the taxonomy.
func partialMultiTurnFailureResult(c evalcase.EvalCase, err error, turnResults []evalcase.ExecutionResult) evalcase.EvalCaseResult {
	kind := classifyError(err.Error())
	classified := evalcase.NewClassifiedError(kind, c.ID, err)
	return evalcase.EvalCaseResult{
		EvalCase:  c,
		Success:   false,
		Error:     classified.Error(),
		ErrorType: kind,
		ToolCalls: flattenToolCalls(turnResults),
	}
}

func buildCaseResult(c evalcase.EvalCase, execResult evalcase.ExecutionResult, judgeResults []evalcase.JudgeResult) evalcase.EvalCaseResult {
	allPassed := true
	for _, jr := range judgeResults {
		if !jr.Passed {
			allPassed = false
			break
		}
	}

	result := evalcase.EvalCaseResult{
		EvalCase:     c,
		Success:      execResult.Success && allPassed,
		Output:       execResult.Output,
		Duration:     execResult.Duration,
		JudgeResults: judgeResults,
		ToolCalls:    execResult.ToolCalls,
		Error:        execResult.Error,
	}
	if !execResult.Success {
		result.ErrorType = classifyError(execResult.Error)
	} else if !allPassed {
		result.ErrorType = evalcase.ErrorKindJudge
	}
	return result
}

func (r *Runner) executeAndJudgeMultiTurn(ctx context.Context, c evalcase.EvalCase) evalcase.EvalCaseResult {
	turnResults, err := r.harness.ExecuteMultiTurn(ctx, c)
	if err != nil && len(turnResults) == 0 {
		return errorResult(c, err)
	}

	final := turnResults[len(turnResults)-1]
	if err != nil {
		// A turn failed mid-sequence: the workspace was already cleaned up
		// by the harness, so there is nothing left to judge.
		return partialMultiTurnFailureResult(c, err, turnResults)
	}

	judgeResults := r.runMultiTurnJudges(ctx, c, turnResults)
	r.harness.CleanupWorkspace(final.WorkspaceID)

	result := buildCaseResult(c, final, judgeResults)
	result.ToolCalls = flattenToolCalls(turnResults)
	return result
}

func flattenToolCalls(turnResults []evalcase.ExecutionResult) []evalcase.ToolCallRecord {
	var calls []evalcase.ToolCallRecord
	for _, t := range turnResults {
		calls = append(calls, t.ToolCalls...)
	}
	return calls
}

// runMultiTurnJudges dispatches per-turn judges (postfixing their id with
// "[turn-N]") and global judges (against the final turn) concurrently.
func (r *Runner) runMultiTurnJudges(ctx context.Context, c evalcase.EvalCase, turnResults []evalcase.ExecutionResult) []evalcase.JudgeResult {
	type job struct {
		id     string
		jctx   judge.Context
		suffix string
	}

	var jobs []job
	for i, turn := range c.Turns {
		if i >= len(turnResults) {
			break
		}
		turnIndex := i
		for _, jid := range turn.Judges {
			jobs = append(jobs, job{
				id:     jid,
				jctx:   judge.Context{EvalCase: c, Result: turnResults[i], Workspace: turnResults[i].WorkingDirectory, TurnIndex: &turnIndex},
				suffix: fmt.Sprintf("[turn-%d]", i+1),
			})
		}
	}
	final := turnResults[len(turnResults)-1]
	for _, jid := range c.Judges {
		jobs = append(jobs, job{id: jid, jctx: judge.Context{EvalCase: c, Result: final, Workspace: final.WorkingDirectory}})
	}

	var wg sync.WaitGroup
	out := make([]evalcase.JudgeResult, len(jobs))
	valid := make([]bool, len(jobs))
	for i, jb := range jobs {
		i, jb := i, jb
		wg.Add(1)
		go func() {
			defer wg.Done()
			j, ok := r.registry.Get(jb.id)
			if !ok {
				log.Warn("judge id not found in registry", zap.String("judge_id", jb.id))
				return
			}
			result := r.runJudgeWithRetry(ctx, j)(jb.jctx)
			result.JudgeID = jb.id + jb.suffix
			out[i] = result
			valid[i] = true
		}()
	}
	wg.Wait()

	var results []evalcase.JudgeResult
	for i, ok := range valid {
		if ok {
			results = append(results, out[i])
		}
	}
	return results
}

// runJudgesParallel runs every judgeId concurrently and waits for all to
// complete; unknown ids are skipped (logged), not failed.
func (r *Runner) runJudgesParallel(ctx context.Context, judgeIDs []string, jctx judge.Context) []evalcase.JudgeResult {
	var wg sync.WaitGroup
	out := make([]evalcase.JudgeResult, len(judgeIDs))
	valid := make([]bool, len(judgeIDs))

	for i, id := range judgeIDs {
		i, id := i, id
		j, ok := r.registry.Get(id)
		if !ok {
			log.Warn("judge id not found in registry", zap.String("judge_id", id))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := r.runJudgeWithRetry(ctx, j)(jctx)
			result.JudgeID = id
			out[i] = result
			valid[i] = true
		}()
	}
	wg.Wait()

	var results []evalcase.JudgeResult
	for i, ok := range valid {
		if ok {
			results = append(results, out[i])
		}
	}
	return results
}

// runJudgeWithRetry wraps a judge's Evaluate in a three-attempt retry
// loop, synthesizing a failing result if every attempt errors.
func (r *Runner) runJudgeWithRetry(ctx context.Context, j judge.Judge) func(judge.Context) evalcase.JudgeResult {
	const maxAttempts = 3
	return func(jctx judge.Context) evalcase.JudgeResult {
		var lastErr error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			result, err := j.Evaluate(ctx, jctx)
			if err == nil {
				return result
			}
			lastErr = err
			if attempt < maxAttempts-1 {
				time.Sleep(time.Duration(500*(attempt+1)) * time.Millisecond)
			}
		}
		return evalcase.JudgeResult{
			Passed:     false,
			Score:      0,
			Confidence: 1,
			Reasoning:  fmt.Sprintf("Judge error after %d attempts: %v", maxAttempts, lastErr),
		}
	}
}

func fold(results []evalcase.EvalCaseResult, start time.Time) evalcase.EvalSuiteResult {
	suite := evalcase.EvalSuiteResult{
		RunID:     uuid.NewString(),
		Total:     len(results),
		Results:   results,
		Duration:  time.Since(start),
		Timestamp: start,
	}
	for _, r := range results {
		switch {
		case r.Error != "" && r.ErrorType == "" && !r.Success:
			suite.Errors++
		case r.Success:
			suite.Passed++
		default:
			suite.Failed++
		}
	}
	if suite.Total > 0 {
		suite.PassRate = float64(suite.Passed) / float64(suite.Total)
	}
	return suite
}

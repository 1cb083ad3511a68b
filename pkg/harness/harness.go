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

// Package harness drives a single agent invocation (or, for multi-turn
// cases, a sequence of them) against a freshly allocated workspace and
// normalizes the result into an ExecutionResult.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/weftlabs/evalloom/internal/log"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/sessionlog"
	"github.com/weftlabs/evalloom/pkg/workspace"
	"go.uber.org/zap"
)

// Harness executes eval cases against a user-supplied agent function.
type Harness struct {
	agent          evalcase.Agent
	workspaces     *workspace.Manager
	defaultTimeout time.Duration
	agentType      string
	template       string
}

// New constructs a Harness. agentType selects which session-log format
// (if any) is scanned for tool-call augmentation; template, if non-empty,
// seeds every workspace from that directory.
func New(agent evalcase.Agent, workspaces *workspace.Manager, defaultTimeout time.Duration, agentType, template string) *Harness {
	return &Harness{agent: agent, workspaces: workspaces, defaultTimeout: defaultTimeout, agentType: agentType, template: template}
}

// Execute runs a single-turn case once: allocate a workspace, invoke the
// agent racing a timeout, normalize and augment the result. The caller
// owns workspace cleanup via CleanupWorkspace after judging.
func (h *Harness) Execute(ctx context.Context, c evalcase.EvalCase) (evalcase.ExecutionResult, error) {
	ws, err := h.workspaces.CreateWorkspace(h.template)
	if err != nil {
		return evalcase.ExecutionResult{}, fmt.Errorf("creating workspace: %w", err)
	}

	result := h.invokeAgent(ctx, c, ws, c.Prompt, "")
	result.WorkspaceID = ws.ID
	return result, nil
}

// ExecuteMultiTurn runs every turn of a multi-turn case sequentially
// against one workspace, threading sessionId from each turn's result
// into the next. A failing turn aborts the sequence and cleans the
// workspace immediately, asymmetric with the single-turn happy path
// where the runner owns cleanup after judging.
func (h *Harness) ExecuteMultiTurn(ctx context.Context, c evalcase.EvalCase) ([]evalcase.ExecutionResult, error) {
	ws, err := h.workspaces.CreateWorkspace(h.template)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	var results []evalcase.ExecutionResult
	var sessionID string
	for i, turn := range c.Turns {
		result := h.invokeAgent(ctx, c, ws, turn.Prompt, sessionID)
		results = append(results, result)
		sessionID = result.SessionID

		if !result.Success {
			h.workspaces.CleanupWorkspace(ws.ID)
			return results, fmt.Errorf("turn %d failed: %s", i+1, result.Error)
		}
	}

	if len(results) > 0 {
		results[len(results)-1].WorkspaceID = ws.ID
	}
	return results, nil
}

// CleanupWorkspace removes the workspace with the given id. The runner
// calls this after all of a case's judges have completed; the harness
// itself never initiates cleanup on the happy path.
func (h *Harness) CleanupWorkspace(id string) {
	h.workspaces.CleanupWorkspace(id)
}

// CleanupSurvivors tears down any workspace left live after a run, e.g.
// from a case whose hook threw before reaching judging.
func (h *Harness) CleanupSurvivors() {
	h.workspaces.CleanupAll()
}

func (h *Harness) invokeAgent(ctx context.Context, c evalcase.EvalCase, ws workspace.Workspace, prompt, sessionID string) evalcase.ExecutionResult {
	timeout := c.TimeoutOrDefault(h.defaultTimeout)
	agentCtx := evalcase.AgentContext{
		WorkingDirectory: ws.Path,
		EvalID:           c.ID,
		EvalName:         c.Name,
		SessionID:        sessionID,
		Timeout:          timeout,
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res evalcase.AgentResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.agent(runCtx, prompt, agentCtx)
		done <- outcome{res, err}
	}()

	var result evalcase.ExecutionResult
	select {
	case o := <-done:
		result = normalize(o.res, o.err, ws)
	case <-runCtx.Done():
		log.Warn("agent invocation timed out", zap.String("eval_id", c.ID), zap.Duration("timeout", timeout))
		result = evalcase.ExecutionResult{
			Success:          false,
			Error:            fmt.Sprintf("agent invocation timed out after %s", timeout),
			WorkingDirectory: ws.Path,
		}
	}

	result.WorkingDirectory = ws.Path
	augmentToolCalls(&result, ws.Path, h.agentType)
	return result
}

func normalize(res evalcase.AgentResult, err error, ws workspace.Workspace) evalcase.ExecutionResult {
	if err != nil {
		return evalcase.ExecutionResult{
			Success:          false,
			Error:            err.Error(),
			WorkingDirectory: ws.Path,
			ToolCalls:        res.ToolCalls,
		}
	}
	return evalcase.ExecutionResult{
		Success:          res.Success,
		Output:           res.Output,
		ToolCalls:        res.ToolCalls,
		Duration:         res.Duration,
		WorkingDirectory: ws.Path,
		SessionID:        res.SessionID,
		Error:            res.Error,
		NumTurns:         res.NumTurns,
		Usage:            res.Usage,
	}
}

func augmentToolCalls(result *evalcase.ExecutionResult, workspaceDir, agentType string) {
	fromLog := sessionlog.Augment(workspaceDir, agentType)
	if len(fromLog) == 0 {
		return
	}
	result.ToolCalls = sessionlog.MergeToolCalls(result.ToolCalls, fromLog)
}

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

package evalcase

import (
	"context"
	"time"
)

// AgentContext is handed to the user-supplied agent function for each
// invocation.
type AgentContext struct {
	WorkingDirectory string
	EvalID           string
	EvalName         string
	SessionID        string
	Timeout          time.Duration
}

// AgentResult is what the user-supplied agent function returns for one
// invocation.
type AgentResult struct {
	Output    string
	Success   bool
	ToolCalls []ToolCallRecord
	SessionID string
	Error     string
	Duration  time.Duration
	NumTurns  int
	Usage     Usage
}

// Agent is the external collaborator that actually drives the AI agent
// under test. The engine only ever calls this function; it never calls an
// LLM or inspects agent internals directly.
type Agent func(ctx context.Context, prompt string, agentCtx AgentContext) (AgentResult, error)

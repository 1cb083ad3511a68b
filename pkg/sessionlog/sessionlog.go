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

package sessionlog

import "github.com/weftlabs/evalloom/pkg/evalcase"

// Augment returns the tool call records recoverable from a workspace's
// session log for the given agent type, merged after agent-reported calls
// by the caller. An unrecognized agentType yields no records rather than
// an error: session-log augmentation is always best effort.
func Augment(workspaceDir, agentType string) []evalcase.ToolCallRecord {
	switch agentType {
	case "claude-code":
		return ParseClaudeCode(workspaceDir)
	case "openai-agents":
		return ParseOpenAIAgents(workspaceDir)
	case "vercel-ai":
		return ParseVercelAI(workspaceDir)
	default:
		return nil
	}
}

// MergeToolCalls combines agent-reported tool calls with session-log
// derived ones, deduplicating by (toolName, canonical input) and
// preferring the agent-reported record (it may carry timestamp/duration
// data a session log lacks).
func MergeToolCalls(reported, fromLog []evalcase.ToolCallRecord) []evalcase.ToolCallRecord {
	seen := make(map[string]struct{}, len(reported))
	out := make([]evalcase.ToolCallRecord, 0, len(reported)+len(fromLog))
	for _, r := range reported {
		seen[DedupKey(r.ToolName, r.Input)] = struct{}{}
		out = append(out, r)
	}
	for _, r := range fromLog {
		key := DedupKey(r.ToolName, r.Input)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

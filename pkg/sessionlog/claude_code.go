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

// Package sessionlog mines tool-call evidence from the JSONL session logs
// an agent may drop in its workspace. It is used two ways: the test
// harness folds this into ExecutionResult.toolCalls (forensic, best
// effort, non-fatal on a missing log), and judges that need to see
// Task/Skill invocations scan it directly regardless of the configured
// agentType.
package sessionlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

// RawToolUse is one tool_use content block found in a claude-code session
// transcript.
type RawToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

type claudeCodeEvent struct {
	Message struct {
		Content []claudeCodeBlock `json:"content"`
	} `json:"message"`
}

type claudeCodeBlock struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id"`
	Content   any            `json:"content"`
	IsError   bool           `json:"is_error"`
}

// findClaudeCodeLogs walks {workspaceDir}/.claude/projects for *.jsonl
// files at any depth. A missing directory yields no files, not an error.
func findClaudeCodeLogs(workspaceDir string) []string {
	root := filepath.Join(workspaceDir, ".claude", "projects")
	var files []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort forensic scan
		}
		if !d.IsDir() && strings.HasSuffix(path, ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// parseClaudeCodeBlocks reads every event across every log file and
// returns the raw tool_use and tool_result blocks it finds, in file order.
func parseClaudeCodeBlocks(workspaceDir string) (uses []RawToolUse, results map[string]claudeCodeBlock) {
	results = make(map[string]claudeCodeBlock)
	for _, path := range findClaudeCodeLogs(workspaceDir) {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(strings.TrimSpace(string(line))) == 0 {
				continue
			}
			var event claudeCodeEvent
			if err := json.Unmarshal(line, &event); err != nil {
				continue
			}
			for _, block := range event.Message.Content {
				switch block.Type {
				case "tool_use":
					uses = append(uses, RawToolUse{ID: block.ID, Name: block.Name, Input: block.Input})
				case "tool_result":
					results[block.ToolUseID] = block
				}
			}
		}
		f.Close()
	}
	return uses, results
}

// FindToolUsesByName scans a workspace's claude-code session logs for
// tool_use blocks with the given tool name, e.g. "Skill" or "Task".
func FindToolUsesByName(workspaceDir, name string) []RawToolUse {
	uses, _ := parseClaudeCodeBlocks(workspaceDir)
	var matched []RawToolUse
	for _, u := range uses {
		if u.Name == name {
			matched = append(matched, u)
		}
	}
	return matched
}

// ParseClaudeCode joins tool_use/tool_result pairs by id and returns
// deduplicated tool call records for harness augmentation.
func ParseClaudeCode(workspaceDir string) []evalcase.ToolCallRecord {
	uses, results := parseClaudeCodeBlocks(workspaceDir)

	var out []evalcase.ToolCallRecord
	seen := make(map[string]struct{})
	for _, u := range uses {
		key := DedupKey(u.Name, u.Input)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		record := evalcase.ToolCallRecord{ToolName: u.Name, ToolUseID: u.ID, Input: u.Input}
		if res, ok := results[u.ID]; ok {
			record.Output = res.Content
			record.IsError = res.IsError
		}
		out = append(out, record)
	}
	return out
}

// DedupKey canonicalizes a tool call's identity: (toolName, canonical JSON
// of input) with sorted keys and no whitespace, per the tool-call-identity
// contract.
func DedupKey(toolName string, input map[string]any) string {
	canon, err := canonicalJSON(input)
	if err != nil {
		canon = ""
	}
	return toolName + "\x00" + canon
}

func canonicalJSON(v any) (string, error) {
	normalized := normalize(v)
	b, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalize converts maps into a form whose JSON encoding has a
// deterministic key order: Go's encoding/json already sorts map[string]any
// keys, so normalize only needs to recurse to apply that to nested values.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = normalize(v2)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = normalize(v2)
		}
		return out
	default:
		return v
	}
}

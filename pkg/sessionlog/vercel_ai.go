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

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

type vercelAIRecord struct {
	Type       string `json:"type"`
	ToolName   string `json:"tool_name"`
	ToolInput  string `json:"tool_input"`
	ToolOutput string `json:"tool_output"`
	FromAgent  string `json:"from_agent"`
	ToAgent    string `json:"to_agent"`
}

// ParseVercelAI reads {workspaceDir}/.vercel-ai/steps.jsonl and returns
// tool call records built from its "step" records, folding "handoff"
// records in as synthetic "Handoff" tool calls.
func ParseVercelAI(workspaceDir string) []evalcase.ToolCallRecord {
	path := filepath.Join(workspaceDir, ".vercel-ai", "steps.jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []evalcase.ToolCallRecord
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec vercelAIRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}

		var record evalcase.ToolCallRecord
		switch rec.Type {
		case "step":
			record = evalcase.ToolCallRecord{
				ToolName: rec.ToolName,
				Input:    parseJSONObject(rec.ToolInput),
				Output:   parseJSONAny(rec.ToolOutput),
			}
		case "handoff":
			record = evalcase.ToolCallRecord{
				ToolName: "Handoff",
				Input:    map[string]any{"from_agent": rec.FromAgent, "to_agent": rec.ToAgent},
			}
		default:
			continue
		}

		key := DedupKey(record.ToolName, record.Input)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	return out
}

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

type openaiAgentsRecord struct {
	Type      string `json:"type"`
	SpanType  string `json:"span_type"`
	ToolName  string `json:"tool_name"`
	ToolInput string `json:"tool_input"`
	ToolOutput string `json:"tool_output"`
	FromAgent string `json:"from_agent"`
	ToAgent   string `json:"to_agent"`
}

// ParseOpenAIAgents reads {workspaceDir}/.openai-agents/traces.jsonl and
// returns tool call records built from its "span" records of span_type
// "function". A span_type "handoff" record becomes a synthetic "Handoff"
// tool call so agent-routing style judges can observe it uniformly.
func ParseOpenAIAgents(workspaceDir string) []evalcase.ToolCallRecord {
	path := filepath.Join(workspaceDir, ".openai-agents", "traces.jsonl")
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
		var rec openaiAgentsRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Type != "span" {
			continue
		}

		var record evalcase.ToolCallRecord
		switch rec.SpanType {
		case "function":
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

// parseJSONObject best-effort decodes a raw tool_input string into a map;
// a non-object or unparseable payload yields nil rather than an error,
// since session-log augmentation is always best effort.
func parseJSONObject(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func parseJSONAny(raw string) any {
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

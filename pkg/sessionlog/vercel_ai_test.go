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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVercelAISteps(t *testing.T, workspaceDir, contents string) {
	t.Helper()
	dir := filepath.Join(workspaceDir, ".vercel-ai")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "steps.jsonl"), []byte(contents), 0o644))
}

func TestParseVercelAI_StepBecomesToolCall(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeVercelAISteps(t, dir, `{"type":"step","tool_name":"fetchUrl","tool_input":"{\"url\":\"https://example.com\"}","tool_output":"\"ok\""}`+"\n")

	calls := ParseVercelAI(dir)
	require.Len(t, calls, 1)
	assert.Equal(t, "fetchUrl", calls[0].ToolName)
	assert.Equal(t, "https://example.com", calls[0].Input["url"])
	assert.Equal(t, "ok", calls[0].Output)
}

func TestParseVercelAI_HandoffStepBecomesSyntheticToolCall(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeVercelAISteps(t, dir, `{"type":"handoff","from_agent":"router","to_agent":"writer"}`+"\n")

	calls := ParseVercelAI(dir)
	require.Len(t, calls, 1)
	assert.Equal(t, "Handoff", calls[0].ToolName)
}

func TestParseVercelAI_DeduplicatesIdenticalSteps(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	line := `{"type":"step","tool_name":"fetchUrl","tool_input":"{\"url\":\"https://example.com\"}"}` + "\n"
	writeVercelAISteps(t, dir, line+line)

	calls := ParseVercelAI(dir)
	assert.Len(t, calls, 1)
}

func TestParseVercelAI_MissingFileYieldsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ParseVercelAI(t.TempDir()))
}

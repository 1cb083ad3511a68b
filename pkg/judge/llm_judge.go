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

package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/weftlabs/evalloom/pkg/evalcase"
	"github.com/weftlabs/evalloom/pkg/llmprovider"
)

const llmJudgePassThreshold = 70.0

var fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// LLMJudge resolves the named rubric (its id is the eval case's judge id,
// with the rubric file stored as `{rubricsDir}/{id}.md`) and asks an LLM
// to grade the execution against it, optionally as a pairwise comparison
// against a reference solution.
type LLMJudge struct {
	provider   llmprovider.Provider
	rubricsDir string
	id         string
}

// NewLLMJudge constructs an LLM-backed judge bound to rubric id (its
// filename under rubricsDir, without extension).
func NewLLMJudge(provider llmprovider.Provider, rubricsDir, id string) *LLMJudge {
	return &LLMJudge{provider: provider, rubricsDir: rubricsDir, id: id}
}

type llmVerdict struct {
	Score      float64 `json:"score"`
	Passed     *bool   `json:"passed"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (j *LLMJudge) Evaluate(ctx context.Context, jctx Context) (evalcase.JudgeResult, error) {
	rubric, err := os.ReadFile(filepath.Join(j.rubricsDir, j.id+".md"))
	if err != nil {
		return failedLLMResult(fmt.Sprintf("failed to load rubric %q: %v", j.id, err)), nil
	}

	files := readTargetFiles(jctx.Workspace, jctx.EvalCase.TargetFiles)

	var prompt string
	if ref := jctx.EvalCase.ReferenceSolution; ref != nil {
		refFiles := readReferenceFiles(jctx.Workspace, *ref)
		prompt = buildPairwisePrompt(string(rubric), jctx, files, refFiles)
	} else {
		prompt = buildRubricPrompt(string(rubric), jctx, files)
	}

	resp, err := j.provider.Complete(ctx, []llmprovider.Message{
		{Role: llmprovider.RoleSystem, Content: "You are grading an AI agent's execution against a rubric. Respond with a single fenced json block."},
		{Role: llmprovider.RoleUser, Content: prompt},
	})
	if err != nil {
		return failedLLMResult(fmt.Sprintf("LLM call failed: %v", err)), nil
	}

	result := parseLLMVerdict(resp.Content)
	if result.Details == nil {
		result.Details = make(map[string]any)
	}
	estimateJudgeCallCost(result.Details, prompt, resp.Content, resp.Usage.TotalTokens)
	return result, nil
}

func failedLLMResult(reasoning string) evalcase.JudgeResult {
	return evalcase.JudgeResult{Passed: false, Score: 0, Confidence: 0, Reasoning: reasoning}
}

func readTargetFiles(workspace string, targets []string) map[string]string {
	files := make(map[string]string, len(targets))
	for _, rel := range targets {
		content, err := os.ReadFile(filepath.Join(workspace, rel))
		if err != nil {
			files[rel] = "[FILE NOT FOUND]"
			continue
		}
		files[rel] = string(content)
	}
	return files
}

func readReferenceFiles(workspace string, ref evalcase.ReferenceSolution) map[string]string {
	files := make(map[string]string)
	for _, rel := range ref.Files {
		content, err := os.ReadFile(filepath.Join(workspace, rel))
		if err != nil {
			files[rel] = "[FILE NOT FOUND]"
			continue
		}
		files[rel] = string(content)
	}
	if ref.Code != "" {
		files["<inline reference>"] = ref.Code
	}
	return files
}

func buildRubricPrompt(rubric string, jctx Context, files map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Rubric\n%s\n\n", rubric)
	fmt.Fprintf(&b, "## Agent prompt\n%s\n\n", jctx.EvalCase.Prompt)
	fmt.Fprintf(&b, "## Agent output\n%s\n\n", jctx.Result.Output)
	writeFileSection(&b, "Workspace files", files)
	b.WriteString(verdictInstructions)
	return b.String()
}

func buildPairwisePrompt(rubric string, jctx Context, files, refFiles map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Rubric\n%s\n\n", rubric)
	fmt.Fprintf(&b, "## Agent prompt\n%s\n\n", jctx.EvalCase.Prompt)
	if jctx.EvalCase.ReferenceSolution != nil && jctx.EvalCase.ReferenceSolution.Description != "" {
		fmt.Fprintf(&b, "## Reference solution description\n%s\n\n", jctx.EvalCase.ReferenceSolution.Description)
	}
	writeFileSection(&b, "Reference solution files", refFiles)
	writeFileSection(&b, "Agent's files", files)
	writeDiffHints(&b, refFiles, files)
	b.WriteString("Compare the agent's solution against the reference, grading via the rubric above.\n")
	b.WriteString(verdictInstructions)
	return b.String()
}

func writeFileSection(b *strings.Builder, title string, files map[string]string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n", title)
	for name, content := range files {
		fmt.Fprintf(b, "### %s\n```\n%s\n```\n", name, content)
	}
	b.WriteString("\n")
}

// writeDiffHints adds a unified-diff style hint per file shared between
// the reference and agent solutions, so the model does not have to align
// two full files by eye.
func writeDiffHints(b *strings.Builder, refFiles, files map[string]string) {
	differ := dmp.New()
	for name, ref := range refFiles {
		actual, ok := files[name]
		if !ok {
			continue
		}
		diffs := differ.DiffMain(ref, actual, false)
		if len(diffs) <= 1 {
			continue
		}
		fmt.Fprintf(b, "### Diff hint for %s (reference -> agent)\n```\n%s\n```\n", name, differ.DiffPrettyText(diffs))
	}
}

const verdictInstructions = "\nRespond with exactly one fenced block:\n```json\n{\"score\": <0-100>, \"passed\": <bool>, \"confidence\": <0-1>, \"reasoning\": \"<text>\"}\n```\n"

// parseLLMVerdict extracts the first fenced json block if present,
// otherwise attempts to parse the whole response, clamping score and
// confidence into range and deriving passed from the threshold when
// absent.
func parseLLMVerdict(raw string) evalcase.JudgeResult {
	payload := raw
	if m := fencedJSONPattern.FindStringSubmatch(raw); m != nil {
		payload = m[1]
	}

	var v llmVerdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return failedLLMResult(fmt.Sprintf("Failed to parse LLM response: %v", err))
	}

	score := math.Max(0, math.Min(100, v.Score))
	confidence := math.Max(0, math.Min(1, v.Confidence))
	passed := score >= llmJudgePassThreshold
	if v.Passed != nil {
		passed = *v.Passed
	}

	return evalcase.JudgeResult{Passed: passed, Score: score, Confidence: confidence, Reasoning: v.Reasoning}
}

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
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

const patternMatchPassThreshold = 80.0

// PatternMatchJudge checks presence (not absence) of each configured
// regex in its target file, across every {file, patterns[]} entry.
type PatternMatchJudge struct{}

func NewPatternMatchJudge() *PatternMatchJudge { return &PatternMatchJudge{} }

func (j *PatternMatchJudge) Evaluate(_ context.Context, jctx Context) (evalcase.JudgeResult, error) {
	entries := jctx.EvalCase.ExpectedPatterns
	if len(entries) == 0 {
		return notApplicable(), nil
	}

	total := 0
	satisfied := 0
	var unmatched []string
	for _, entry := range entries {
		content, err := os.ReadFile(filepath.Join(jctx.Workspace, entry.File))
		if err != nil {
			total += len(entry.Patterns)
			for _, p := range entry.Patterns {
				unmatched = append(unmatched, fmt.Sprintf("%s: %s (file unreadable)", entry.File, p))
			}
			continue
		}
		for _, p := range entry.Patterns {
			total++
			re, err := regexp.Compile("(?m)" + p)
			if err != nil {
				unmatched = append(unmatched, fmt.Sprintf("%s: %s (invalid regex)", entry.File, p))
				continue
			}
			if re.Match(content) {
				satisfied++
			} else {
				unmatched = append(unmatched, fmt.Sprintf("%s: %s", entry.File, p))
			}
		}
	}

	if total == 0 {
		return notApplicable(), nil
	}

	score := 100 * float64(satisfied) / float64(total)
	passed := score >= patternMatchPassThreshold
	reasoning := fmt.Sprintf("%d/%d patterns matched", satisfied, total)
	if len(unmatched) > 0 {
		reasoning += fmt.Sprintf("; unmatched: %v", unmatched)
	}

	details := map[string]any{"unmatched": unmatched}
	if golden := jctx.EvalCase.GoldenFile; golden != "" {
		if result, err := compareWithGoldenFile(filepath.Join(jctx.Workspace, golden), jctx.Result.Output); err == nil {
			reasoning += fmt.Sprintf("; golden-file similarity %.0f%% (matched=%t)", result.SimilarityScore*100, result.Matched)
			details["goldenFileSimilarity"] = result.SimilarityScore
			details["goldenFileMatched"] = result.Matched
		}
	}

	return evalcase.JudgeResult{
		Passed:     passed,
		Score:      score,
		Confidence: 1,
		Reasoning:  reasoning,
		Details:    details,
	}, nil
}

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

	"github.com/weftlabs/evalloom/pkg/evalcase"
)

const fileExistencePassThreshold = 80.0

// FileExistenceJudge checks that every one of a code-gen case's
// targetFiles exists under the workspace.
type FileExistenceJudge struct{}

func NewFileExistenceJudge() *FileExistenceJudge { return &FileExistenceJudge{} }

func (j *FileExistenceJudge) Evaluate(_ context.Context, jctx Context) (evalcase.JudgeResult, error) {
	targets := jctx.EvalCase.TargetFiles
	if len(targets) == 0 {
		return notApplicable(), nil
	}

	var missing []string
	satisfied := 0
	for _, rel := range targets {
		if _, err := os.Stat(filepath.Join(jctx.Workspace, rel)); err == nil {
			satisfied++
		} else {
			missing = append(missing, rel)
		}
	}

	score := 100 * float64(satisfied) / float64(len(targets))
	passed := score >= fileExistencePassThreshold
	reasoning := fmt.Sprintf("%d/%d target files present", satisfied, len(targets))
	if len(missing) > 0 {
		reasoning += fmt.Sprintf("; missing: %v", missing)
	}

	return evalcase.JudgeResult{
		Passed:     passed,
		Score:      score,
		Confidence: 1,
		Reasoning:  reasoning,
		Details:    map[string]any{"missing": missing},
	}, nil
}
